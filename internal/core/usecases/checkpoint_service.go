package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"time"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
)

const (
	defaultEventLimit = 500
	maxEventLimit     = 5000
)

// CheckpointService scores vehicle observations and keeps the scored events
// that feed the map's checkpoint layer.
type CheckpointService struct {
	events    ports.CheckpointEventRepository
	model     ports.RiskModel
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewCheckpointService creates a CheckpointService. publisher may be nil.
func NewCheckpointService(events ports.CheckpointEventRepository, model ports.RiskModel, publisher ports.EventPublisher) *CheckpointService {
	return &CheckpointService{events: events, model: model, publisher: publisher, now: time.Now}
}

// Status reports model readiness and how many events are stored.
func (s *CheckpointService) Status(ctx context.Context) (domain.CheckpointStatus, error) {
	n, err := s.events.Count(ctx)
	if err != nil {
		return domain.CheckpointStatus{}, fmt.Errorf("count events: %w", err)
	}
	st := domain.CheckpointStatus{OK: true, EventsCached: n}
	if s.model != nil {
		st.ModelReady = s.model.Ready()
		st.ModelPath = s.model.Path()
	}
	return st, nil
}

// Predict scores one observation and stores it as an event.
func (s *CheckpointService) Predict(ctx context.Context, req domain.PredictRequest) (*domain.CheckpointEvent, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, domain.ErrMissingCoordinates
	}

	p := s.score(req)

	ts := req.Timestamp
	if ts == "" {
		ts = s.now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
	}

	event := &domain.CheckpointEvent{
		Timestamp:    ts,
		CheckpointID: req.CheckpointID,
		VehicleID:    req.VehicleID,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		IsSuspicious: p.IsSuspicious,
		Probability:  p.Probability,
		RiskScore:    p.RiskScore,
		CreatedAt:    s.now(),
	}
	if err := s.events.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCheckpointEvent(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish checkpoint event", "id", event.ID, "error", err)
		}
	}
	return event, nil
}

// PredictBatch scores every item that carries coordinates. Items without
// coordinates are skipped. Batch results are not stored.
func (s *CheckpointService) PredictBatch(ctx context.Context, items []domain.PredictRequest) ([]domain.BatchResult, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	results := make([]domain.BatchResult, 0, len(items))
	for _, it := range items {
		if it.Latitude == nil || it.Longitude == nil {
			continue
		}
		p := s.score(it)
		results = append(results, domain.BatchResult{
			CheckpointID: it.CheckpointID,
			VehicleID:    it.VehicleID,
			Lat:          *it.Latitude,
			Lon:          *it.Longitude,
			IsSuspicious: p.IsSuspicious,
			Probability:  p.Probability,
			RiskScore:    p.RiskScore,
		})
	}
	return results, nil
}

// Events lists stored events newest first.
func (s *CheckpointService) Events(ctx context.Context, filter domain.EventFilter) ([]domain.CheckpointEvent, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultEventLimit
	}
	if filter.Limit > maxEventLimit {
		filter.Limit = maxEventLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.events.List(ctx, filter)
}

// Count returns how many events are stored.
func (s *CheckpointService) Count(ctx context.Context) (int, error) {
	return s.events.Count(ctx)
}

// score runs the model on the request's own features; columns it lacks,
// the coordinates included, count as zero. An absent or unready model scores
// everything as zero.
func (s *CheckpointService) score(req domain.PredictRequest) domain.Prediction {
	if s.model == nil || !s.model.Ready() {
		return domain.Prediction{}
	}
	features := maps.Clone(req.Features)
	if features == nil {
		features = map[string]float64{}
	}

	p := s.model.Predict(features)
	metrics.Predictions.WithLabelValues(strconv.Itoa(p.IsSuspicious)).Inc()
	return p
}
