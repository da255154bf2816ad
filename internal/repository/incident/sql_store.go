package incident

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"safewatch/internal/repository/sqldb"
	"safewatch/internal/types"
)

// SQLStore keeps incidents in the incidents table of a Postgres or SQLite database.
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
CREATE TABLE IF NOT EXISTS incidents (
  id TEXT PRIMARY KEY,
  alert_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  severity INTEGER NOT NULL,
  type TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  area TEXT NOT NULL DEFAULT '',
  latitude DOUBLE PRECISION,
  longitude DOUBLE PRECISION,
  incident_date TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  source_url TEXT NOT NULL,
  keywords TEXT NOT NULL DEFAULT '[]',
  recommendations TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents (created_at);
`)
	})
	return s.schemaErr
}

func (s *SQLStore) Insert(ctx context.Context, rec types.IncidentRecord) (string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", fmt.Errorf("ensure schema: %w", err)
	}
	if err := validate(rec); err != nil {
		return "", err
	}
	keywords, err := json.Marshal(nonNil(rec.Keywords))
	if err != nil {
		return "", err
	}
	var lat, lng sql.NullFloat64
	if rec.Coordinates != nil {
		lat = sql.NullFloat64{Float64: rec.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: rec.Coordinates.Lng, Valid: true}
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO incidents (
  id, alert_id, title, description, summary, severity, type, location, area,
  latitude, longitude, incident_date, source, source_url, keywords, recommendations, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		id, rec.AlertID, rec.Title, rec.Description, rec.Summary, rec.Severity, rec.Type, rec.Location, rec.Area,
		lat, lng, rec.IncidentDate, rec.Source, rec.SourceURL, string(keywords), rec.Recommendations,
		s.now().UTC().UnixMicro())
	if err != nil {
		return "", fmt.Errorf("insert incident: %w", err)
	}
	return id, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]types.IncidentRecord, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, alert_id, title, description, summary, severity, type, location, area,
  latitude, longitude, incident_date, source, source_url, keywords, recommendations, created_at
FROM incidents ORDER BY created_at DESC, id LIMIT $1`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := make([]types.IncidentRecord, 0, 16)
	for rows.Next() {
		var (
			rec      types.IncidentRecord
			lat, lng sql.NullFloat64
			keywords string
			created  int64
		)
		if err := rows.Scan(&rec.ID, &rec.AlertID, &rec.Title, &rec.Description, &rec.Summary, &rec.Severity,
			&rec.Type, &rec.Location, &rec.Area, &lat, &lng, &rec.IncidentDate, &rec.Source, &rec.SourceURL,
			&keywords, &rec.Recommendations, &created); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		if lat.Valid && lng.Valid {
			rec.Coordinates = &types.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		if err := json.Unmarshal([]byte(keywords), &rec.Keywords); err != nil {
			rec.Keywords = []string{}
		}
		rec.CreatedAt = time.UnixMicro(created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
