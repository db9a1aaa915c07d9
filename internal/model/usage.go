package model

import "time"

// UsageRecord is one row of the append-only ledger of billable extraction
// calls. Cache hits write nothing; records are never mutated or deleted.
type UsageRecord struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Service        string    `json:"service"`
	DocumentName   string    `json:"document_name"`
	PageCount      int       `json:"page_count"`
	CostCents      int       `json:"cost_cents"`
	ProcessingDate time.Time `json:"processing_date"`
}
