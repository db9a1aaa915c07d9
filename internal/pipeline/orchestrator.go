// Package pipeline coordinates a single document extraction end to end:
// cache lookup, method selection, dispatch to an extraction strategy,
// fallback on provider failure, and the cache/ledger writes afterwards.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/claimguru/extract-cli/internal/classify"
	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/store"
)

// Options tune the hybrid escalation decision.
type Options struct {
	// HybridConfidence is the client-pass confidence above which hybrid
	// skips the paid provider entirely.
	HybridConfidence float64
	// HybridMinFields is the minimum populated field count the client
	// pass must also reach to skip the paid provider.
	HybridMinFields int
}

// DefaultOptions returns the standard hybrid thresholds.
func DefaultOptions() Options {
	return Options{
		HybridConfidence: 0.7,
		HybridMinFields:  6,
	}
}

// Orchestrator runs extraction requests through cache, classifier,
// strategy dispatch and bookkeeping. Concurrent requests for the same
// (document, organization) pair are collapsed into one execution.
type Orchestrator struct {
	store    store.Store
	client   extract.Extractor
	adapters map[model.Method]extract.Extractor
	profiler *classify.Classifier
	opts     Options
	group    singleflight.Group
}

// NewOrchestrator wires an orchestrator. client is the free text-layer
// extractor; adapters maps each paid method to its proxy adapter.
func NewOrchestrator(st store.Store, client extract.Extractor, adapters map[model.Method]extract.Extractor, opts Options) *Orchestrator {
	if opts.HybridConfidence <= 0 {
		opts.HybridConfidence = DefaultOptions().HybridConfidence
	}
	if opts.HybridMinFields <= 0 {
		opts.HybridMinFields = DefaultOptions().HybridMinFields
	}
	return &Orchestrator{
		store:    st,
		client:   client,
		adapters: adapters,
		profiler: classify.New(),
		opts:     opts,
	}
}

// HashDocument returns the hex SHA-256 of the document bytes. The same
// bytes always produce the same cache key regardless of file name.
func HashDocument(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Process runs one extraction request to completion. Identical requests
// from the same organization arriving concurrently share a single
// underlying execution.
func (o *Orchestrator) Process(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, error) {
	if len(req.Document) == 0 {
		return nil, eris.New("pipeline: empty document")
	}
	if req.OrganizationID == "" {
		return nil, eris.New("pipeline: missing organization id")
	}

	hash := HashDocument(req.Document)
	key := hash + ":" + req.OrganizationID

	v, err, _ := o.group.Do(key, func() (any, error) {
		return o.process(ctx, req, hash)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ExtractionResult), nil
}

func (o *Orchestrator) process(ctx context.Context, req *model.ExtractionRequest, hash string) (*model.ExtractionResult, error) {
	cached, err := o.store.GetCachedResult(ctx, hash, req.OrganizationID)
	if err != nil {
		// A broken cache must not block extraction.
		zap.L().Warn("pipeline: cache lookup failed",
			zap.String("org", req.OrganizationID),
			zap.Error(err),
		)
	}
	if cached != nil {
		hit := *cached
		hit.CacheHit = true
		hit.CostCents = 0
		zap.L().Debug("pipeline: cache hit",
			zap.String("org", req.OrganizationID),
			zap.String("hash", hash),
		)
		return &hit, nil
	}

	method := req.Method
	if method == "" || method == model.MethodAuto {
		profile := o.profiler.Classify(req.Document)
		method = profile.RecommendedMethod
		zap.L().Debug("pipeline: classified document",
			zap.String("file", req.FileName),
			zap.String("method", string(method)),
			zap.Int("estimated_pages", profile.EstimatedPageCount),
			zap.Bool("scanned", profile.IsScanned),
			zap.Bool("complex", profile.IsComplex),
		)
	}
	if !method.Valid() {
		return nil, eris.Errorf("pipeline: unknown extraction method %q", method)
	}

	result, service, err := o.dispatch(ctx, req, method)
	if err != nil {
		return nil, err
	}

	if err := o.store.PutCachedResult(ctx, hash, req.OrganizationID, result); err != nil {
		zap.L().Warn("pipeline: cache write failed",
			zap.String("org", req.OrganizationID),
			zap.Error(err),
		)
	}

	if result.CostCents > 0 {
		rec := &model.UsageRecord{
			OrganizationID: req.OrganizationID,
			Service:        service,
			DocumentName:   req.FileName,
			PageCount:      result.PageCount,
			CostCents:      result.CostCents,
		}
		if err := o.store.AppendUsage(ctx, rec); err != nil {
			zap.L().Error("pipeline: usage ledger append failed",
				zap.String("org", req.OrganizationID),
				zap.String("service", service),
				zap.Int("cost_cents", result.CostCents),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// dispatch runs the selected strategy. The returned service name is what
// the ledger records when the result carried a cost.
func (o *Orchestrator) dispatch(ctx context.Context, req *model.ExtractionRequest, method model.Method) (*model.ExtractionResult, string, error) {
	switch method {
	case model.MethodClient:
		result, err := o.client.Extract(ctx, req)
		if err != nil {
			return nil, "", err
		}
		return result, string(model.MethodClient), nil

	case model.MethodTextract, model.MethodVision:
		adapter, ok := o.adapters[method]
		if !ok {
			return nil, "", eris.Errorf("pipeline: no adapter configured for %q", method)
		}
		result, err := adapter.Extract(ctx, req)
		if err == nil {
			return result, string(method), nil
		}
		if extract.IsConfiguration(err) {
			return nil, "", err
		}
		result, fbErr := o.fallback(ctx, req, method, err)
		if fbErr != nil {
			return nil, "", fbErr
		}
		return result, string(method), nil

	case model.MethodHybrid:
		return o.runHybrid(ctx, req)

	default:
		return nil, "", eris.Errorf("pipeline: unknown extraction method %q", method)
	}
}

// fallback rescues a failed paid call with the free text-layer pass.
// A parse failure here is terminal: the document is unreadable by every
// strategy we have left.
func (o *Orchestrator) fallback(ctx context.Context, req *model.ExtractionRequest, method model.Method, cause error) (*model.ExtractionResult, error) {
	zap.L().Warn("pipeline: provider failed, falling back to client extraction",
		zap.String("org", req.OrganizationID),
		zap.String("method", string(method)),
		zap.Error(cause),
	)

	result, err := o.client.Extract(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: fallback after %s failure", method)
	}

	result.ProcessingMethod = method.FailedFallback()
	result.CostCents = 0
	return result, nil
}
