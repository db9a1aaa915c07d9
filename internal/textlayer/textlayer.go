// Package textlayer implements the free client-side extraction path: it
// reads a PDF's embedded text layer, runs the field cascade, and scores
// the result. It is also the universal fallback target for every paid
// strategy, so its failure mode (ParseFailure) is terminal.
package textlayer

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"

	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/fields"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/scorer"
)

// Extractor extracts a PDF's embedded text layer. Cost is always zero.
type Extractor struct {
	engine *fields.Engine
}

// New creates a text-layer Extractor.
func New(engine *fields.Engine) *Extractor {
	if engine == nil {
		engine = fields.NewEngine()
	}
	return &Extractor{engine: engine}
}

// Extract concatenates per-page embedded text and builds a scored result.
func (e *Extractor) Extract(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, error) {
	start := time.Now()

	text, pages, err := ReadText(req.Document)
	if err != nil {
		return nil, &extract.ParseFailure{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := e.engine.Extract(text)
	return &model.ExtractionResult{
		ExtractedText:         text,
		PageCount:             pages,
		Confidence:            scorer.Score(text, rec, scorer.BaseClient),
		ProcessingMethod:      string(model.MethodClient),
		CostCents:             0,
		PolicyData:            rec,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
	}, nil
}

// ReadText returns the concatenated embedded text of every page and the
// page count. An unreadable file (corrupt, encrypted, no xref) errors.
func ReadText(doc []byte) (text string, pages int, err error) {
	// The underlying parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("textlayer: parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", 0, eris.Wrap(err, "textlayer: open pdf")
	}

	pages = r.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		// Fragments are per-glyph; space glyphs arrive as their own
		// fragments, so concatenation preserves word boundaries. A change
		// in baseline Y starts a new line.
		lastY := 0.0
		first := true
		for _, frag := range page.Content().Text {
			if !first && frag.Y != lastY {
				sb.WriteString("\n")
			}
			sb.WriteString(frag.S)
			lastY = frag.Y
			first = false
		}
		sb.WriteString("\n")
	}

	return sb.String(), pages, nil
}

// CountFragments returns the number of text fragments on the given page
// (1-based). The classifier uses page 1's fragment count to detect
// scanned documents.
func CountFragments(doc []byte, pageNum int) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("textlayer: parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return 0, eris.Wrap(err, "textlayer: open pdf")
	}
	if pageNum < 1 || pageNum > r.NumPage() {
		return 0, nil
	}
	page := r.Page(pageNum)
	if page.V.IsNull() {
		return 0, nil
	}
	return len(page.Content().Text), nil
}
