package ocr

import (
	"context"
	"time"

	"github.com/claimguru/extract-cli/internal/config"
	"github.com/claimguru/extract-cli/internal/cost"
	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/fields"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/scorer"
)

const visionService = "vision"

// Vision is the scan/image-oriented provider, recommended for documents
// whose page-1 text layer is too sparse to trust.
type Vision struct {
	creds  Credentials
	client *proxyClient
	calc   *cost.Calculator
	engine *fields.Engine
}

// NewVision creates the scan-focused adapter from provider config.
func NewVision(cfg config.ProviderConfig, maxAttempts int, calc *cost.Calculator, engine *fields.Engine) *Vision {
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	if engine == nil {
		engine = fields.NewEngine()
	}
	return &Vision{
		creds:  Credentials{APIKey: cfg.APIKey},
		client: newProxyClient(visionService, cfg.Endpoint, cfg.TimeoutSecs, cfg.RatePerSec, retryConfig(maxAttempts)),
		calc:   calc,
		engine: engine,
	}
}

// Name returns the ledger service name.
func (v *Vision) Name() string { return visionService }

// Extract proxies the document to the document-text-detection endpoint
// and normalizes the response.
func (v *Vision) Extract(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, error) {
	if v.creds.APIKey == "" {
		return nil, &extract.ConfigurationError{Provider: visionService, Missing: "api_key"}
	}

	start := time.Now()
	resp, err := v.client.process(ctx, req, v.creds)
	if err != nil {
		return nil, err
	}

	return normalize(resp, visionService, model.MethodVision, v.calc, v.engine, start), nil
}

// normalize converts a provider-agnostic proxy response into the
// canonical result shape shared with every other strategy.
func normalize(resp *proxyResponse, service string, method model.Method, calc *cost.Calculator, engine *fields.Engine, start time.Time) *model.ExtractionResult {
	// Provider-reported structured data wins over the local cascade; the
	// cascade backfills whatever the provider left empty.
	rec := resp.ExtractedPolicyData.Merge(engine.Extract(resp.ExtractedText))
	rec = engine.ApplyFormFields(rec, resp.FormFields)

	pages := resp.PageCount
	if pages < 1 {
		pages = 1
	}

	costCents := resp.CostCents
	if costCents <= 0 {
		costCents = calc.PageCostCents(service, pages)
	}

	confidence := resp.Confidence
	if confidence <= 0 {
		confidence = scorer.Score(resp.ExtractedText, rec, scorer.BaseProvider)
	}

	elapsed := resp.ProcessingTimeSeconds
	if elapsed <= 0 {
		elapsed = time.Since(start).Seconds()
	}

	return &model.ExtractionResult{
		ExtractedText:         resp.ExtractedText,
		PageCount:             pages,
		Confidence:            confidence,
		ProcessingMethod:      string(method),
		CostCents:             costCents,
		PolicyData:            rec,
		FormFields:            resp.FormFields,
		ProcessingTimeSeconds: elapsed,
	}
}
