package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claimguru/extract-cli/internal/model"
)

func TestScore_BaseOnly(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, BaseClient, Score("", model.PolicyRecord{}, BaseClient), 1e-9)
	assert.InDelta(t, BaseProvider, Score("", model.PolicyRecord{}, BaseProvider), 1e-9)
}

func TestScore_FieldIncrements(t *testing.T) {
	t.Parallel()

	rec := model.PolicyRecord{
		PolicyNumber: "ABC-123456",
		InsuredName:  "Jane Doe",
	}
	got := Score("", rec, BaseClient)
	assert.InDelta(t, BaseClient+2*perFieldIncrement, got, 1e-9)
}

func TestScore_UnscoredFieldsDoNotCount(t *testing.T) {
	t.Parallel()

	// Agent contact and mortgagee fields are populated but not scored.
	rec := model.PolicyRecord{
		AgentName:  "Bob Smith",
		AgentPhone: "(555) 123-4567",
		AgentEmail: "bob@agency.example.com",
		Mortgagee:  "First National Bank",
		LoanNumber: "LN-778899",
	}
	assert.InDelta(t, BaseClient, Score("", rec, BaseClient), 1e-9)
}

func TestScore_KeywordBonusCapped(t *testing.T) {
	t.Parallel()

	allKeywords := "policy coverage deductible dwelling premium insured insurance liability endorsement declarations"
	got := Score(allKeywords, model.PolicyRecord{}, BaseClient)
	assert.InDelta(t, BaseClient+keywordBonusCap, got, 1e-9)
}

func TestScore_TypicalDeclarationsPage(t *testing.T) {
	t.Parallel()

	// Five scored fields plus a text with a handful of domain keywords
	// must clear the 0.6 mark a usable extraction is expected to reach.
	rec := model.PolicyRecord{
		PolicyNumber:   "ABC-123456",
		InsuredName:    "Jane Doe",
		EffectiveDate:  "01/01/2024",
		ExpirationDate: "01/01/2025",
		Deductible:     "$2,500",
	}
	text := "HOMEOWNERS POLICY DECLARATIONS deductible insured"
	got := Score(text, rec, BaseClient)
	assert.Greater(t, got, 0.6)
	assert.LessOrEqual(t, got, 1.0)
}

func TestScore_MonotonicInFields(t *testing.T) {
	t.Parallel()

	prev := Score("", model.PolicyRecord{}, BaseClient)
	recs := []model.PolicyRecord{
		{PolicyNumber: "ABC-123456"},
		{PolicyNumber: "ABC-123456", InsuredName: "Jane Doe"},
		{PolicyNumber: "ABC-123456", InsuredName: "Jane Doe", InsurerName: "Acme Insurance"},
	}
	for _, rec := range recs {
		got := Score("", rec, BaseClient)
		assert.Greater(t, got, prev)
		prev = got
	}
}

func TestScore_ClampedToOne(t *testing.T) {
	t.Parallel()

	rec := model.PolicyRecord{
		PolicyNumber: "ABC-123456", InsuredName: "Jane Doe",
		EffectiveDate: "01/01/2024", ExpirationDate: "01/01/2025",
		InsurerName: "Acme Insurance", PropertyAddress: "742 Evergreen Terrace",
		CoverageAmount: "$350,000", Deductible: "$2,500",
	}
	text := "policy coverage deductible dwelling premium insured insurance liability endorsement declarations"
	got := Score(text, rec, 0.9)
	assert.Equal(t, 1.0, got)
}
