// Package report stores user-submitted crime reports and serves the recent
// ones to the alert prompt.
package report

import (
	"context"
	"errors"
	"strings"

	"safewatch/internal/types"
)

var ErrInvalid = errors.New("report: invalid report")

type Store interface {
	Insert(ctx context.Context, r types.CrimeReport) (string, error)
	Recent(ctx context.Context, limit int) ([]types.RecentReport, error)
}

const DefaultRecentLimit = 10

func normalize(r types.CrimeReport) (types.CrimeReport, error) {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Severity = strings.ToLower(strings.TrimSpace(r.Severity))
	r.Address = strings.TrimSpace(r.Address)
	r.Description = strings.TrimSpace(r.Description)
	if r.Type == "" || r.Address == "" {
		return r, errors.Join(ErrInvalid, errors.New("type and address are required"))
	}
	if r.Severity == "" {
		r.Severity = "medium"
	}
	return r, nil
}

func recentLimit(limit int) int {
	if limit <= 0 || limit > 50 {
		return DefaultRecentLimit
	}
	return limit
}

func toRecent(r types.CrimeReport) types.RecentReport {
	return types.RecentReport{Type: r.Type, Severity: r.Severity, Address: r.Address, CreatedAt: r.CreatedAt}
}
