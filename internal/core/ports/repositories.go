package ports

import (
	"context"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

// CheckpointEventRepository persists scored checkpoint events.
type CheckpointEventRepository interface {
	// Insert stores the event and assigns its ID.
	Insert(ctx context.Context, event *domain.CheckpointEvent) error
	// List returns events newest first.
	List(ctx context.Context, filter domain.EventFilter) ([]domain.CheckpointEvent, error)
	Count(ctx context.Context) (int, error)
}
