package model

// Method identifies an extraction strategy.
type Method string

const (
	// MethodAuto lets the classifier pick the strategy.
	MethodAuto Method = "auto"
	// MethodClient is the free text-layer extraction.
	MethodClient Method = "client"
	// MethodTextract is the forms/table-oriented cloud provider.
	MethodTextract Method = "textract"
	// MethodVision is the scan/image-oriented cloud provider.
	MethodVision Method = "vision"
	// MethodHybrid runs the client pass first and escalates to a paid
	// provider only when the free result is insufficient.
	MethodHybrid Method = "hybrid"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodAuto, MethodClient, MethodTextract, MethodVision, MethodHybrid:
		return true
	}
	return false
}

// Paid reports whether the method involves a billable provider call.
func (m Method) Paid() bool {
	return m == MethodTextract || m == MethodVision
}

// FailedFallback returns the processing-method tag recorded when method m
// failed and the result came from the client-side fallback.
func (m Method) FailedFallback() string {
	return string(m) + "_failed_fallback_to_client"
}

// FormField is a key/value pair reported by a cloud provider's form
// recognition, with the provider's own confidence for the pairing.
type FormField struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ExtractionResult is the canonical output shape shared by every
// extraction strategy. The orchestrator never branches on which provider
// produced it.
type ExtractionResult struct {
	ExtractedText         string       `json:"extracted_text"`
	PageCount             int          `json:"page_count"`
	Confidence            float64      `json:"confidence"`
	ProcessingMethod      string       `json:"processing_method"`
	CostCents             int          `json:"cost_cents"`
	PolicyData            PolicyRecord `json:"policy_data"`
	FormFields            []FormField  `json:"form_fields,omitempty"`
	ProcessingTimeSeconds float64      `json:"processing_time_seconds,omitempty"`
	CacheHit              bool         `json:"cache_hit,omitempty"`
}
