package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/claimguru/extract-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extraction_cache (
	file_hash       TEXT NOT NULL,
	organization_id TEXT NOT NULL,
	result          TEXT NOT NULL,
	cached_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (file_hash, organization_id)
);

CREATE TABLE IF NOT EXISTS usage_ledger (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	service         TEXT NOT NULL,
	document_name   TEXT NOT NULL,
	page_count      INTEGER NOT NULL,
	cost_cents      INTEGER NOT NULL,
	processing_date DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_ledger_org ON usage_ledger(organization_id);
CREATE INDEX IF NOT EXISTS idx_usage_ledger_date ON usage_ledger(processing_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedResult(ctx context.Context, fileHash, orgID string) (*model.ExtractionResult, error) {
	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM extraction_cache WHERE file_hash = ? AND organization_id = ?`,
		fileHash, orgID,
	).Scan(&resultJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get cached result")
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached result")
	}
	return &result, nil
}

func (s *SQLiteStore) PutCachedResult(ctx context.Context, fileHash, orgID string, result *model.ExtractionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extraction_cache (file_hash, organization_id, result, cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(file_hash, organization_id) DO UPDATE SET
		   result = excluded.result, cached_at = excluded.cached_at`,
		fileHash, orgID, string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put cached result")
}

func (s *SQLiteStore) PurgeCache(ctx context.Context, orgID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM extraction_cache WHERE organization_id = ?`, orgID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge cache")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge cache rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) AppendUsage(ctx context.Context, rec *model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ProcessingDate.IsZero() {
		rec.ProcessingDate = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_ledger (id, organization_id, service, document_name, page_count, cost_cents, processing_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrganizationID, rec.Service, rec.DocumentName,
		rec.PageCount, rec.CostCents, rec.ProcessingDate,
	)
	return eris.Wrap(err, "sqlite: append usage")
}

func (s *SQLiteStore) ListUsage(ctx context.Context, filter UsageFilter) ([]model.UsageRecord, error) {
	query := `SELECT id, organization_id, service, document_name, page_count, cost_cents, processing_date
	          FROM usage_ledger WHERE 1=1`
	var args []any

	if filter.OrganizationID != "" {
		query += ` AND organization_id = ?`
		args = append(args, filter.OrganizationID)
	}
	if filter.Service != "" {
		query += ` AND service = ?`
		args = append(args, filter.Service)
	}
	if !filter.Since.IsZero() {
		query += ` AND processing_date >= ?`
		args = append(args, filter.Since)
	}
	query += ` ORDER BY processing_date DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list usage")
	}
	defer rows.Close()

	var records []model.UsageRecord
	for rows.Next() {
		var rec model.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.Service,
			&rec.DocumentName, &rec.PageCount, &rec.CostCents, &rec.ProcessingDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan usage row")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate usage rows")
}
