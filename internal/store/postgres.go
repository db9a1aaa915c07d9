package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/claimguru/extract-cli/internal/db"
	"github.com/claimguru/extract-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests with pgxmock).
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extraction_cache (
	file_hash       TEXT NOT NULL,
	organization_id TEXT NOT NULL,
	result          JSONB NOT NULL,
	cached_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (file_hash, organization_id)
);

CREATE TABLE IF NOT EXISTS usage_ledger (
	id              UUID PRIMARY KEY,
	organization_id TEXT NOT NULL,
	service         TEXT NOT NULL,
	document_name   TEXT NOT NULL,
	page_count      INTEGER NOT NULL,
	cost_cents      INTEGER NOT NULL,
	processing_date TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_ledger_org ON usage_ledger(organization_id);
CREATE INDEX IF NOT EXISTS idx_usage_ledger_date ON usage_ledger(processing_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCachedResult(ctx context.Context, fileHash, orgID string) (*model.ExtractionResult, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM extraction_cache WHERE file_hash = $1 AND organization_id = $2`,
		fileHash, orgID,
	).Scan(&resultJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached result")
	}

	var result model.ExtractionResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached result")
	}
	return &result, nil
}

func (s *PostgresStore) PutCachedResult(ctx context.Context, fileHash, orgID string, result *model.ExtractionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO extraction_cache (file_hash, organization_id, result, cached_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (file_hash, organization_id) DO UPDATE SET
		   result = EXCLUDED.result, cached_at = EXCLUDED.cached_at`,
		fileHash, orgID, resultJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: put cached result")
}

func (s *PostgresStore) PurgeCache(ctx context.Context, orgID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM extraction_cache WHERE organization_id = $1`, orgID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge cache")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) AppendUsage(ctx context.Context, rec *model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ProcessingDate.IsZero() {
		rec.ProcessingDate = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_ledger (id, organization_id, service, document_name, page_count, cost_cents, processing_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.OrganizationID, rec.Service, rec.DocumentName,
		rec.PageCount, rec.CostCents, rec.ProcessingDate,
	)
	return eris.Wrap(err, "postgres: append usage")
}

func (s *PostgresStore) ListUsage(ctx context.Context, filter UsageFilter) ([]model.UsageRecord, error) {
	query := `SELECT id, organization_id, service, document_name, page_count, cost_cents, processing_date
	          FROM usage_ledger WHERE 1=1`
	var args []any

	if filter.OrganizationID != "" {
		args = append(args, filter.OrganizationID)
		query += ` AND organization_id = $` + itoa(len(args))
	}
	if filter.Service != "" {
		args = append(args, filter.Service)
		query += ` AND service = $` + itoa(len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		query += ` AND processing_date >= $` + itoa(len(args))
	}
	query += ` ORDER BY processing_date DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list usage")
	}
	defer rows.Close()

	var records []model.UsageRecord
	for rows.Next() {
		var rec model.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.Service,
			&rec.DocumentName, &rec.PageCount, &rec.CostCents, &rec.ProcessingDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan usage row")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate usage rows")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
