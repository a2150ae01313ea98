package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
	"github.com/samirrijal/riskmap/internal/pkg/telemetry"
)

// NoSelectionPrompt is shown until the first selection.
const NoSelectionPrompt = "Select an area to visualize risk concentration."

const (
	minZoom = 0
	maxZoom = 22
)

// RendererFactory builds and loads a map renderer for a new session.
type RendererFactory func(ctx context.Context) (ports.MapRenderer, error)

// Session is one interactive map: a renderer, its synchronizer and a place selector.
type Session struct {
	ID        string
	Renderer  ports.MapRenderer
	Sync      *Synchronizer
	Selector  *PlaceSelector
	CreatedAt time.Time

	mu        sync.Mutex
	lastSeen  time.Time
	updatedAt time.Time
}

// Scene returns the full current state of the session.
func (s *Session) Scene() domain.Scene {
	sel, snap := s.Sync.View()
	scene := domain.Scene{
		SessionID: s.ID,
		Selection: sel,
		Map:       snap,
		UpdatedAt: s.UpdatedAt(),
	}
	if sel.Selected == nil {
		scene.Prompt = NoSelectionPrompt
	}
	return scene
}

// UpdatedAt is when the session's selection or viewport last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// SessionService owns every live map session.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newRenderer RendererFactory
	newEngine   ports.ClusterEngineFactory
	geocoder    ports.Geocoder
	publisher   ports.EventPublisher
	ttl         time.Duration
	now         func() time.Time
}

// NewSessionService creates a SessionService. geocoder and publisher may be nil.
func NewSessionService(
	newRenderer RendererFactory,
	newEngine ports.ClusterEngineFactory,
	geocoder ports.Geocoder,
	publisher ports.EventPublisher,
	ttl time.Duration,
) *SessionService {
	return &SessionService{
		sessions:    make(map[string]*Session),
		newRenderer: newRenderer,
		newEngine:   newEngine,
		geocoder:    geocoder,
		publisher:   publisher,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Create loads a renderer and binds a fresh synchronizer to it.
// A renderer that cannot load yields an error wrapping domain.ErrMapLoad.
func (s *SessionService) Create(ctx context.Context) (*Session, error) {
	r, err := s.newRenderer(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrMapLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrMapLoad, err)
	}

	id := uuid.NewString()
	syncer := NewSynchronizer(r, s.newEngine, NewRiskPointGenerator()).
		WithLogger(slog.Default().With("session", id))
	r.OnReady(syncer.OnMapReady)

	now := s.now()
	sess := &Session{
		ID:        id,
		Renderer:  r,
		Sync:      syncer,
		Selector:  NewPlaceSelector(s.geocoder, syncer),
		CreatedAt: now,
		lastSeen:  now,
		updatedAt: now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()

	slog.InfoContext(ctx, "session created", "session", id)
	return sess, nil
}

// Get returns a live session and marks it as recently used.
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.lastSeen = s.now()
	sess.mu.Unlock()
	return sess, nil
}

// Delete drops a session.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	metrics.ActiveSessions.Dec()
	return nil
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Scene returns the current scene of a session.
func (s *SessionService) Scene(id string) (domain.Scene, error) {
	sess, err := s.Get(id)
	if err != nil {
		return domain.Scene{}, err
	}
	return sess.Scene(), nil
}

// Select applies a coordinate picked directly on the map.
func (s *SessionService) Select(ctx context.Context, id string, c domain.Coordinate) (domain.Scene, error) {
	if !c.Valid() {
		return domain.Scene{}, domain.ErrInvalidCoordinate
	}
	sess, err := s.Get(id)
	if err != nil {
		return domain.Scene{}, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSelect)
	defer span.End()

	seq := sess.Sync.SelectCoordinate(c)
	span.SetAttributes(
		attribute.String("session", id),
		attribute.Float64("lat", c.Lat),
		attribute.Float64("lng", c.Lng),
		attribute.Int64("seq", int64(seq)),
	)
	metrics.Selections.WithLabelValues("map").Inc()

	return s.afterSelection(ctx, sess), nil
}

// ChoosePlace resolves a search candidate and selects it.
func (s *SessionService) ChoosePlace(ctx context.Context, id string, candidate domain.Candidate) (domain.Scene, error) {
	sess, err := s.Get(id)
	if err != nil {
		return domain.Scene{}, err
	}
	if _, err := sess.Selector.Choose(ctx, candidate); err != nil {
		return domain.Scene{}, err
	}
	return s.afterSelection(ctx, sess), nil
}

// Suggest lists place candidates for query.
func (s *SessionService) Suggest(ctx context.Context, query string) ([]domain.Candidate, error) {
	if s.geocoder == nil {
		return nil, domain.ErrSelectorInactive
	}
	return s.geocoder.Suggest(ctx, query)
}

// Zoom changes a session's zoom level, clamped to 0-22.
func (s *SessionService) Zoom(ctx context.Context, id string, zoom int) (domain.Scene, error) {
	sess, err := s.Get(id)
	if err != nil {
		return domain.Scene{}, err
	}
	zoom = max(minZoom, min(maxZoom, zoom))
	sess.Sync.SetZoom(zoom)
	return s.touch(sess).Scene(), nil
}

// Expire drops sessions idle for longer than the TTL and returns how many went.
func (s *SessionService) Expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		metrics.ActiveSessions.Sub(float64(n))
	}
	return n
}

// RunJanitor expires idle sessions every interval until ctx is done.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.Expire(); n > 0 {
				slog.Info("expired idle sessions", "count", n, "remaining", s.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *SessionService) touch(sess *Session) *Session {
	sess.mu.Lock()
	sess.updatedAt = s.now()
	sess.mu.Unlock()
	return sess
}

// afterSelection stamps the session and broadcasts the new scene.
func (s *SessionService) afterSelection(ctx context.Context, sess *Session) domain.Scene {
	scene := s.touch(sess).Scene()
	if s.publisher == nil {
		return scene
	}
	data, err := json.Marshal(scene)
	if err != nil {
		slog.WarnContext(ctx, "encode scene", "session", sess.ID, "error", err)
		return scene
	}
	if err := s.publisher.PublishScene(ctx, sess.ID, data); err != nil {
		slog.WarnContext(ctx, "publish scene", "session", sess.ID, "error", err)
	}
	return scene
}
