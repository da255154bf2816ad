// Package incident persists validated alerts as incident records.
package incident

import (
	"context"
	"errors"

	"safewatch/internal/types"
)

// ErrInvalid is returned for records that cannot be stored.
var ErrInvalid = errors.New("incident: invalid record")

// Store persists incident records. Insert returns the generated id.
type Store interface {
	Insert(ctx context.Context, rec types.IncidentRecord) (string, error)
	List(ctx context.Context, limit int) ([]types.IncidentRecord, error)
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ClampLimit applies the default and the upper bound used by List.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func validate(rec types.IncidentRecord) error {
	if rec.Title == "" || rec.SourceURL == "" {
		return errors.Join(ErrInvalid, errors.New("title and source_url are required"))
	}
	if rec.Severity < 1 || rec.Severity > 5 {
		return errors.Join(ErrInvalid, errors.New("severity must be between 1 and 5"))
	}
	return nil
}
