// Package memory holds in-process repositories used when no database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
)

// CheckpointEventRepo keeps events in insertion order. IDs start at 1.
type CheckpointEventRepo struct {
	mu     sync.RWMutex
	events []domain.CheckpointEvent
}

var _ ports.CheckpointEventRepository = (*CheckpointEventRepo)(nil)

func NewCheckpointEventRepo() *CheckpointEventRepo {
	return &CheckpointEventRepo{}
}

func (r *CheckpointEventRepo) Insert(ctx context.Context, e *domain.CheckpointEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = int64(len(r.events) + 1)
	r.events = append(r.events, *e)
	return nil
}

// List walks events newest first, applying the filter before offset and limit.
func (r *CheckpointEventRepo) List(ctx context.Context, f domain.EventFilter) ([]domain.CheckpointEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.CheckpointEvent{}
	skipped := 0
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if f.OnlySuspicious && e.IsSuspicious != 1 {
			continue
		}
		if e.RiskScore < f.MinRisk {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *CheckpointEventRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events), nil
}
