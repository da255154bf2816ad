package incident

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
	data []types.IncidentRecord
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Insert(_ context.Context, rec types.IncidentRecord) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if err := validate(rec); err != nil {
		return "", err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	rec.Keywords = append([]string(nil), rec.Keywords...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, rec)
	return rec.ID, nil
}

// List returns the newest records first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]types.IncidentRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	limit = ClampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.IncidentRecord, 0, min(limit, len(s.data)))
	for i := len(s.data) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.data[i])
	}
	return out, nil
}
