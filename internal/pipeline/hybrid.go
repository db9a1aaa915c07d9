package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/claimguru/extract-cli/internal/model"
)

// runHybrid runs the free client pass first and escalates to the
// forms-oriented provider only when the free result is not good enough.
// The ledger service is textract because that is the only call that can
// cost anything on this path.
func (o *Orchestrator) runHybrid(ctx context.Context, req *model.ExtractionRequest) (*model.ExtractionResult, string, error) {
	clientResult, err := o.client.Extract(ctx, req)
	if err != nil {
		return nil, "", err
	}

	fields := clientResult.PolicyData.FieldCount()
	if clientResult.Confidence > o.opts.HybridConfidence && fields >= o.opts.HybridMinFields {
		clientResult.ProcessingMethod = string(model.MethodHybrid)
		clientResult.CostCents = 0
		zap.L().Debug("pipeline: hybrid satisfied by client pass",
			zap.String("org", req.OrganizationID),
			zap.Float64("confidence", clientResult.Confidence),
			zap.Int("fields", fields),
		)
		return clientResult, string(model.MethodTextract), nil
	}

	adapter, ok := o.adapters[model.MethodTextract]
	if !ok {
		clientResult.ProcessingMethod = string(model.MethodHybrid)
		return clientResult, string(model.MethodTextract), nil
	}

	providerResult, err := adapter.Extract(ctx, req)
	if err != nil {
		// The client pass already succeeded, so a provider failure only
		// costs us the enhancement, not the extraction.
		zap.L().Warn("pipeline: hybrid provider pass failed, keeping client result",
			zap.String("org", req.OrganizationID),
			zap.Error(err),
		)
		clientResult.ProcessingMethod = string(model.MethodHybrid)
		clientResult.CostCents = 0
		return clientResult, string(model.MethodTextract), nil
	}

	merged := mergeHybrid(clientResult, providerResult)
	return merged, string(model.MethodTextract), nil
}

// mergeHybrid combines the client and provider passes field by field.
// Provider values win where both passes found something; the client pass
// fills in anything the provider missed. Only the provider call is
// billable.
func mergeHybrid(clientResult, providerResult *model.ExtractionResult) *model.ExtractionResult {
	merged := &model.ExtractionResult{
		ExtractedText:         providerResult.ExtractedText,
		PageCount:             providerResult.PageCount,
		Confidence:            max(clientResult.Confidence, providerResult.Confidence),
		ProcessingMethod:      string(model.MethodHybrid),
		CostCents:             providerResult.CostCents,
		PolicyData:            providerResult.PolicyData.Merge(clientResult.PolicyData),
		FormFields:            providerResult.FormFields,
		ProcessingTimeSeconds: clientResult.ProcessingTimeSeconds + providerResult.ProcessingTimeSeconds,
	}
	if merged.ExtractedText == "" {
		merged.ExtractedText = clientResult.ExtractedText
	}
	if merged.PageCount == 0 {
		merged.PageCount = clientResult.PageCount
	}
	return merged
}
