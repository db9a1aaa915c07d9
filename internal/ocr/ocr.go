// Package ocr adapts external paid OCR services to the canonical
// extraction contract. Each provider sits behind a serverless proxy
// endpoint; the adapters base64-encode the document, post it with
// explicit credentials, and normalize the response so the orchestrator
// never branches on which provider ran.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/claimguru/extract-cli/internal/config"
	"github.com/claimguru/extract-cli/internal/cost"
	"github.com/claimguru/extract-cli/internal/fields"
	"github.com/claimguru/extract-cli/internal/model"
	"github.com/claimguru/extract-cli/internal/resilience"
)

// Adapter is a cloud OCR provider normalized to the extraction contract.
type Adapter interface {
	Extract(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, error)
	// Name is the service name recorded in the usage ledger.
	Name() string
}

// Credentials are the provider-specific secrets supplied explicitly by
// the caller. No adapter reads ambient globals.
type Credentials struct {
	APIKey          string `json:"api_key,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
}

// proxyRequest is the provider-agnostic request shape posted to a proxy.
type proxyRequest struct {
	DocumentBase64 string      `json:"documentBase64"`
	FileName       string      `json:"fileName"`
	OrganizationID string      `json:"organizationId"`
	Credentials    Credentials `json:"credentials"`
}

// proxyResponse is the provider-agnostic response shape.
type proxyResponse struct {
	ExtractedText         string             `json:"extractedText"`
	PageCount             int                `json:"pageCount"`
	FormFields            []model.FormField  `json:"formFields"`
	ExtractedPolicyData   model.PolicyRecord `json:"extractedPolicyData"`
	ProcessingTimeSeconds float64            `json:"processingTimeSeconds"`
	CostCents             int                `json:"costCents"`
	Confidence            float64            `json:"confidence"`
}

// NewAdapter creates the adapter for a paid method. maxAttempts bounds
// retries of transient proxy failures; zero means the default.
func NewAdapter(method model.Method, cfg config.ProviderConfig, maxAttempts int, calc *cost.Calculator, engine *fields.Engine) (Adapter, error) {
	switch method {
	case model.MethodTextract:
		return NewTextract(cfg, maxAttempts, calc, engine), nil
	case model.MethodVision:
		return NewVision(cfg, maxAttempts, calc, engine), nil
	default:
		return nil, eris.Errorf("ocr: no adapter for method %q", method)
	}
}

// retryConfig derives the adapter retry policy from config.
func retryConfig(maxAttempts int) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	return cfg
}
