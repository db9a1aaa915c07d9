package model

// DocumentProfile is the classifier's one-shot assessment of an uploaded
// document. It is produced per request and never persisted.
type DocumentProfile struct {
	IsTextBased        bool   `json:"is_text_based"`
	IsScanned          bool   `json:"is_scanned"`
	IsComplex          bool   `json:"is_complex"`
	EstimatedPageCount int    `json:"estimated_page_count"`
	FileSizeBytes      int64  `json:"file_size_bytes"`
	RecommendedMethod  Method `json:"recommended_method"`
}

// ExtractionRequest is the orchestrator's single input: raw file bytes,
// the tenant they belong to, and the requested strategy.
type ExtractionRequest struct {
	Document       []byte
	FileName       string
	OrganizationID string
	Method         Method
}
