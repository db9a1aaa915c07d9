// Package intake validates uploads before they reach the extraction
// pipeline: size ceiling first, then a structural PDF check.
package intake

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes is the upload ceiling when none is configured.
const DefaultMaxUploadBytes = 25 * 1024 * 1024

// Gate rejects documents that should never be sent to a paid provider.
type Gate struct {
	maxBytes int64
}

// New creates a Gate with the given upload ceiling. Zero or negative
// means the default.
func New(maxBytes int64) *Gate {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Gate{maxBytes: maxBytes}
}

// Check validates the document and returns its real page count. The
// page count is advisory: a document that fails structural validation
// is rejected outright, before any classification or provider call.
func (g *Gate) Check(doc []byte, fileName string) (int, error) {
	size := int64(len(doc))
	if size == 0 {
		return 0, eris.Errorf("intake: %s is empty", fileName)
	}
	if size > g.maxBytes {
		return 0, eris.Errorf("intake: %s is %d bytes, limit is %d", fileName, size, g.maxBytes)
	}

	conf := pdfmodel.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(doc), conf)
	if err != nil {
		return 0, eris.Wrapf(err, "intake: %s failed structural validation", fileName)
	}

	zap.L().Debug("intake: document accepted",
		zap.String("file", fileName),
		zap.Int64("size_bytes", size),
		zap.Int("pages", pdfCtx.PageCount),
	)
	return pdfCtx.PageCount, nil
}
