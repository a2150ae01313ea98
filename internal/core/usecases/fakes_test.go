package usecases_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
)

// --- Fake renderer ---

type fakeOverlay struct {
	removed bool
	onRm    func()
}

func (o *fakeOverlay) Remove() {
	if o.removed {
		return
	}
	o.removed = true
	if o.onRm != nil {
		o.onRm()
	}
}

type fakeMarker struct {
	fakeOverlay
	id      string
	pos     domain.Coordinate
	style   domain.MarkerStyle
	visible bool
}

func (m *fakeMarker) ID() string                  { return m.id }
func (m *fakeMarker) Position() domain.Coordinate { return m.pos }
func (m *fakeMarker) SetVisible(v bool)           { m.visible = v }

type fakeRenderer struct {
	mu       sync.Mutex
	onReady  []func(ports.MapHandle)
	handle   *fakeMap
	nextID   int
	markers  map[string]*fakeMarker
	circles  []*domain.RadiusBand
	live     map[*domain.RadiusBand]bool
	panned   []domain.Coordinate
	zoom     int
	zoomSets int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		handle:  &fakeMap{id: "map-1"},
		markers: make(map[string]*fakeMarker),
		live:    make(map[*domain.RadiusBand]bool),
		zoom:    12,
	}
}

// ready fires every registered OnReady callback, like a map finishing its load.
func (r *fakeRenderer) ready() {
	for _, fn := range r.onReady {
		fn(r.handle)
	}
}

func (r *fakeRenderer) OnReady(fn func(ports.MapHandle)) { r.onReady = append(r.onReady, fn) }

func (r *fakeRenderer) PanTo(c domain.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panned = append(r.panned, c)
}

func (r *fakeRenderer) SetZoom(z int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zoom = z
	r.zoomSets++
}

func (r *fakeRenderer) AddMarker(pos domain.Coordinate, style domain.MarkerStyle) ports.MarkerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m := &fakeMarker{id: fmt.Sprintf("m%d", r.nextID), pos: pos, style: style, visible: true}
	r.markers[m.id] = m
	m.onRm = func() {
		r.mu.Lock()
		delete(r.markers, m.id)
		r.mu.Unlock()
	}
	return m
}

func (r *fakeRenderer) AddCircle(band domain.RadiusBand) ports.Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := band
	r.circles = append(r.circles, &b)
	r.live[&b] = true
	return &fakeOverlay{onRm: func() {
		r.mu.Lock()
		delete(r.live, &b)
		r.mu.Unlock()
	}}
}

func (r *fakeRenderer) Snapshot() domain.MapSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := domain.MapSnapshot{Viewport: domain.Viewport{Zoom: r.zoom}}
	if n := len(r.panned); n > 0 {
		snap.Viewport.Center = r.panned[n-1]
	}
	for _, m := range r.markers {
		view := domain.MarkerView{ID: m.id, Position: m.pos, Style: m.style, Visible: m.visible}
		if m.style.Kind == domain.MarkerSelection {
			snap.Selection = &view
			continue
		}
		snap.Markers = append(snap.Markers, view)
	}
	for _, c := range r.circles {
		if r.live[c] {
			snap.Circles = append(snap.Circles, *c)
		}
	}
	return snap
}

// riskMarkers returns live markers drawn with the risk style.
func (r *fakeRenderer) riskMarkers() []*fakeMarker {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*fakeMarker
	for _, m := range r.markers {
		if m.style.Kind == domain.MarkerRisk {
			out = append(out, m)
		}
	}
	return out
}

func (r *fakeRenderer) pins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.markers {
		if m.style.Kind == domain.MarkerSelection {
			n++
		}
	}
	return n
}

func (r *fakeRenderer) liveCircles() []domain.RadiusBand {
	return r.Snapshot().Circles
}

type fakeMap struct {
	id string
}

func (m *fakeMap) ID() string                                 { return m.id }
func (m *fakeMap) Viewport() domain.Viewport                  { return domain.Viewport{} }
func (m *fakeMap) AddBadge(domain.ClusterBadge) ports.Overlay { return &fakeOverlay{} }
func (m *fakeMap) OnViewportChanged(func(domain.Viewport))    {}

// --- Fake cluster engine ---

type fakeEngine struct {
	clears  int
	batches [][]ports.MarkerHandle
	current []ports.MarkerHandle
}

func (e *fakeEngine) ClearMarkers() {
	e.clears++
	e.current = nil
}

func (e *fakeEngine) AddMarkers(markers []ports.MarkerHandle) {
	e.batches = append(e.batches, markers)
	e.current = append(e.current, markers...)
}

type engineRecorder struct {
	built   int
	engines []*fakeEngine
}

func (r *engineRecorder) factory(m ports.MapHandle, render ports.BadgeRenderer) ports.ClusterEngine {
	r.built++
	e := &fakeEngine{}
	r.engines = append(r.engines, e)
	return e
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	suggestFn func(ctx context.Context, query string) ([]domain.Candidate, error)
	resolveFn func(ctx context.Context, c domain.Candidate) (domain.Coordinate, error)
}

func (m *mockGeocoder) Suggest(ctx context.Context, query string) ([]domain.Candidate, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, query)
	}
	return nil, nil
}

func (m *mockGeocoder) Resolve(ctx context.Context, c domain.Candidate) (domain.Coordinate, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, c)
	}
	return domain.Coordinate{}, nil
}

// --- Mock Cache ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", key)
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes++
	return nil
}

// --- Mock Publisher ---

type mockPublisher struct {
	mu      sync.Mutex
	scenes  map[string][][]byte
	events  []*domain.CheckpointEvent
	sceneFn func(ctx context.Context, sessionID string, data []byte) error
}

func (p *mockPublisher) PublishScene(ctx context.Context, sessionID string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scenes == nil {
		p.scenes = make(map[string][][]byte)
	}
	p.scenes[sessionID] = append(p.scenes[sessionID], data)
	if p.sceneFn != nil {
		return p.sceneFn(ctx, sessionID, data)
	}
	return nil
}

func (p *mockPublisher) PublishCheckpointEvent(ctx context.Context, event *domain.CheckpointEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func within(c, center domain.Coordinate, d float64) bool {
	const eps = 1e-9
	return c.Lat >= center.Lat-d-eps && c.Lat <= center.Lat+d+eps &&
		c.Lng >= center.Lng-d-eps && c.Lng <= center.Lng+d+eps
}
