package textlayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/pdftest"
)

func TestReadText(t *testing.T) {
	t.Parallel()

	doc := pdftest.Build(
		[]string{"Policy Number: ABC-123456", "Named Insured: Jane Doe"},
		[]string{"Deductible: $2,500"},
	)

	text, pages, err := ReadText(doc)
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
	assert.Contains(t, text, "ABC-123456")
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "$2,500")
}

func TestReadText_NotAPDF(t *testing.T) {
	t.Parallel()

	_, _, err := ReadText([]byte("this is not a pdf at all"))
	assert.Error(t, err)
}

func TestReadText_Truncated(t *testing.T) {
	t.Parallel()

	doc := pdftest.Build([]string{"Policy Number: ABC-123456"})
	_, _, err := ReadText(doc[:len(doc)/3])
	assert.Error(t, err)
}

func TestCountFragments(t *testing.T) {
	t.Parallel()

	withText := pdftest.Build([]string{"Policy Number: ABC-123456", "Named Insured: Jane Doe"})
	n, err := CountFragments(withText, 1)
	require.NoError(t, err)
	assert.Greater(t, n, 20)

	blank := pdftest.Build(nil)
	n, err = CountFragments(blank, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountFragments_PageOutOfRange(t *testing.T) {
	t.Parallel()

	doc := pdftest.Build([]string{"Policy Number: ABC-123456"})

	n, err := CountFragments(doc, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = CountFragments(doc, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	doc := pdftest.Build([]string{
		"HOMEOWNERS POLICY DECLARATIONS",
		"Policy Number: ABC-123456",
		"Named Insured: Jane Doe",
		"Policy Period: From 01/01/2024 To 01/01/2025",
		"Deductible: $2,500",
	})

	result, err := New(nil).Extract(context.Background(), &model.ExtractionRequest{
		Document:       doc,
		FileName:       "declarations.pdf",
		OrganizationID: "org-1",
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.MethodClient), result.ProcessingMethod)
	assert.Zero(t, result.CostCents)
	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, "ABC-123456", result.PolicyData.PolicyNumber)
	assert.Equal(t, "Jane Doe", result.PolicyData.InsuredName)
	assert.Equal(t, "01/01/2024", result.PolicyData.EffectiveDate)
	assert.Equal(t, "01/01/2025", result.PolicyData.ExpirationDate)
	assert.Equal(t, "$2,500", result.PolicyData.Deductible)
	assert.Greater(t, result.Confidence, 0.6)
}

func TestExtract_UnreadableIsParseFailure(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Extract(context.Background(), &model.ExtractionRequest{
		Document:       []byte("garbage"),
		FileName:       "garbage.pdf",
		OrganizationID: "org-1",
	})
	require.Error(t, err)
	assert.True(t, extract.IsParseFailure(err))
}
