package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"safewatch/internal/types"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data []types.CrimeReport
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Insert(_ context.Context, r types.CrimeReport) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	r, err := normalize(r)
	if err != nil {
		return "", err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, r)
	return r.ID, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]types.RecentReport, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	limit = recentLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.RecentReport, 0, min(limit, len(s.data)))
	for i := len(s.data) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, toRecent(s.data[i]))
	}
	return out, nil
}
