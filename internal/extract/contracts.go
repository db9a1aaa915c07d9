// Package extract defines the contracts shared by every extraction
// strategy: the Extractor interface and the error taxonomy the
// orchestrator normalizes provider failures into.
package extract

import (
	"context"

	"github.com/claimguru/extract-cli/internal/model"
)

// Extractor turns a document into the canonical ExtractionResult. Every
// strategy (text layer, cloud providers, hybrid) satisfies this so the
// orchestrator never branches on which one ran.
type Extractor interface {
	Extract(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, error)
}
