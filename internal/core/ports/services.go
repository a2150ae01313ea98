package ports

import (
	"context"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

// Geocoder turns free text into place candidates and candidates into coordinates.
type Geocoder interface {
	Suggest(ctx context.Context, query string) ([]domain.Candidate, error)
	Resolve(ctx context.Context, candidate domain.Candidate) (domain.Coordinate, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishScene(ctx context.Context, sessionID string, data []byte) error
	PublishCheckpointEvent(ctx context.Context, event *domain.CheckpointEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// RiskModel scores checkpoint feature vectors.
type RiskModel interface {
	Ready() bool
	Path() string
	Predict(features map[string]float64) domain.Prediction
}
