package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"safewatch/internal/repository/sqldb"
	"safewatch/internal/types"
)

type SQLStore struct {
	db *sqldb.DB

	schemaOnce sync.Once
	schemaErr  error
	now        func() time.Time
}

func NewSQLStore(db *sqldb.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS crime_reports (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  severity TEXT NOT NULL DEFAULT 'medium',
  address TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crime_reports_created_at ON crime_reports (created_at);
`)
	})
	return s.schemaErr
}

func (s *SQLStore) Insert(ctx context.Context, r types.CrimeReport) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", fmt.Errorf("ensure schema: %w", err)
	}
	r, err := normalize(r)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO crime_reports (id, type, severity, address, description, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		id, r.Type, r.Severity, r.Address, r.Description, s.now().UTC().UnixMicro())
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]types.RecentReport, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT type, severity, address, created_at
FROM crime_reports ORDER BY created_at DESC, id LIMIT $1`, recentLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	defer rows.Close()

	out := make([]types.RecentReport, 0, 8)
	for rows.Next() {
		var (
			r       types.RecentReport
			created int64
		)
		if err := rows.Scan(&r.Type, &r.Severity, &r.Address, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.CreatedAt = time.UnixMicro(created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
