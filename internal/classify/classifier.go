// Package classify inspects an uploaded document and recommends an
// extraction method. The profile is heuristic by design: page count is
// estimated from file size and the scanned check probes only page 1.
package classify

import (
	"go.uber.org/zap"

	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/textlayer"
)

const (
	// bytesPerPage is the size heuristic used to estimate page count.
	bytesPerPage = 300_000

	// minTextFragments is the page-1 text fragment count below which the
	// document is treated as scanned.
	minTextFragments = 20

	// complexPageThreshold and complexSizeBytes mark a document complex.
	complexPageThreshold = 10
	complexSizeBytes     = 5_000_000
)

// Classifier produces a DocumentProfile for a request.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify profiles the document and picks a recommended method.
// Decision table, first match wins: text-based and not complex -> client;
// scanned -> vision; complex -> textract; otherwise hybrid.
func (c *Classifier) Classify(doc []byte) model.DocumentProfile {
	size := int64(len(doc))

	profile := model.DocumentProfile{
		IsTextBased:        true,
		FileSizeBytes:      size,
		EstimatedPageCount: estimatePages(size),
	}
	profile.IsComplex = profile.EstimatedPageCount > complexPageThreshold || size > complexSizeBytes

	fragments, err := textlayer.CountFragments(doc, 1)
	switch {
	case err != nil:
		// Corrupt or encrypted file: don't guess client-only, prefer a
		// paid provider or hybrid.
		profile.IsTextBased = false
		profile.IsComplex = true
		zap.L().Debug("classify: text-layer probe failed",
			zap.Int64("size_bytes", size),
			zap.Error(err),
		)
	case fragments < minTextFragments:
		profile.IsScanned = true
		profile.IsTextBased = false
	}

	profile.RecommendedMethod = recommend(profile)
	return profile
}

func recommend(p model.DocumentProfile) model.Method {
	switch {
	case p.IsTextBased && !p.IsComplex:
		return model.MethodClient
	case p.IsScanned:
		return model.MethodVision
	case p.IsComplex:
		return model.MethodTextract
	default:
		return model.MethodHybrid
	}
}

func estimatePages(size int64) int {
	pages := int((size + bytesPerPage - 1) / bytesPerPage)
	if pages < 1 {
		return 1
	}
	return pages
}
