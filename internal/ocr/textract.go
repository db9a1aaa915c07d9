package ocr

import (
	"context"
	"time"

	"github.com/claimguru/extract-cli/internal/config"
	"github.com/claimguru/extract-cli/internal/cost"
	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/fields"
	"github.com/claimguru/extract-cli/internal/model"
)

const textractService = "textract"

// Textract is the forms/table-oriented provider, recommended for complex
// documents. It surfaces KEY_VALUE_SET form fields alongside the text.
type Textract struct {
	creds  Credentials
	client *proxyClient
	calc   *cost.Calculator
	engine *fields.Engine
}

// NewTextract creates the forms-focused adapter from provider config.
func NewTextract(cfg config.ProviderConfig, maxAttempts int, calc *cost.Calculator, engine *fields.Engine) *Textract {
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	if engine == nil {
		engine = fields.NewEngine()
	}
	return &Textract{
		creds: Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		},
		client: newProxyClient(textractService, cfg.Endpoint, cfg.TimeoutSecs, cfg.RatePerSec, retryConfig(maxAttempts)),
		calc:   calc,
		engine: engine,
	}
}

// Name returns the ledger service name.
func (t *Textract) Name() string { return textractService }

// Extract proxies the document to the forms-recognition endpoint and
// normalizes the response. Missing credentials fail before any network
// call.
func (t *Textract) Extract(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, error) {
	if t.creds.AccessKeyID == "" || t.creds.SecretAccessKey == "" {
		return nil, &extract.ConfigurationError{Provider: textractService, Missing: "access_key_id/secret_access_key"}
	}

	start := time.Now()
	resp, err := t.client.process(ctx, req, t.creds)
	if err != nil {
		return nil, err
	}

	return normalize(resp, textractService, model.MethodTextract, t.calc, t.engine, start), nil
}
