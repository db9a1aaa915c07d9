// Package store persists the two durable artifacts of the pipeline: the
// content-addressed result cache and the append-only usage ledger. Both
// are strictly partitioned by organization id.
package store

import (
	"context"
	"time"

	"github.com/claimguru/extract-cli/internal/model"
)

// UsageFilter specifies criteria for listing ledger rows.
type UsageFilter struct {
	OrganizationID string    `json:"organization_id,omitempty"`
	Service        string    `json:"service,omitempty"`
	Since          time.Time `json:"since,omitempty"`
	Limit          int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// Result cache. Keys are (SHA-256 file hash, organization id); writes
	// are upserts and reads have no side effects. A miss is (nil, nil).
	GetCachedResult(ctx context.Context, fileHash, orgID string) (*model.ExtractionResult, error)
	PutCachedResult(ctx context.Context, fileHash, orgID string, result *model.ExtractionResult) error
	PurgeCache(ctx context.Context, orgID string) (int, error)

	// Usage ledger. Append-only: one row per paid call actually made,
	// never mutated or deleted.
	AppendUsage(ctx context.Context, rec *model.UsageRecord) error
	ListUsage(ctx context.Context, filter UsageFilter) ([]model.UsageRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
