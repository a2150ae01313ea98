// Package scene is an in-memory map renderer. It keeps every overlay the
// synchronizer draws so the scene can be served as JSON, GeoJSON or PNG.
package scene

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
)

// Options configures a renderer.
type Options struct {
	APIKey string
	Center domain.Coordinate
	Zoom   int
}

// Renderer implements ports.MapRenderer and, once loaded, ports.MapHandle.
type Renderer struct {
	mu sync.Mutex

	id       string
	apiKey   string
	viewport domain.Viewport
	loaded   bool

	readyFns    []func(ports.MapHandle)
	viewportFns []func(domain.Viewport)

	nextID  int
	markers map[int]*marker
	circles map[int]*circle
	badges  map[int]*badge
}

var (
	_ ports.MapRenderer = (*Renderer)(nil)
	_ ports.MapHandle   = (*Renderer)(nil)
)

// New returns an unloaded renderer.
func New(opts Options) *Renderer {
	return &Renderer{
		id:       uuid.NewString(),
		apiKey:   opts.APIKey,
		viewport: domain.Viewport{Center: opts.Center, Zoom: opts.Zoom},
		markers:  make(map[int]*marker),
		circles:  make(map[int]*circle),
		badges:   make(map[int]*badge),
	}
}

// NewLoaded returns a renderer that has already completed Load.
func NewLoaded(ctx context.Context, opts Options) (*Renderer, error) {
	r := New(opts)
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Load makes the map interactive and fires the ready hooks. A renderer
// without a credential cannot load.
func (r *Renderer) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMapLoad, err)
	}

	r.mu.Lock()
	if r.apiKey == "" {
		r.mu.Unlock()
		return fmt.Errorf("%w: missing maps api key", domain.ErrMapLoad)
	}
	if r.loaded {
		r.mu.Unlock()
		return nil
	}
	r.loaded = true
	fns := r.readyFns
	r.readyFns = nil
	r.mu.Unlock()

	for _, fn := range fns {
		fn(r)
	}
	return nil
}

// ID returns the map id.
func (r *Renderer) ID() string { return r.id }

// OnReady runs fn once the map is loaded, immediately if it already is.
func (r *Renderer) OnReady(fn func(ports.MapHandle)) {
	r.mu.Lock()
	if !r.loaded {
		r.readyFns = append(r.readyFns, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn(r)
}

// OnViewportChanged registers fn for every pan and zoom.
func (r *Renderer) OnViewportChanged(fn func(domain.Viewport)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewportFns = append(r.viewportFns, fn)
}

func (r *Renderer) Viewport() domain.Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

func (r *Renderer) PanTo(c domain.Coordinate) {
	r.setViewport(func(v *domain.Viewport) { v.Center = c })
}

func (r *Renderer) SetZoom(zoom int) {
	r.setViewport(func(v *domain.Viewport) { v.Zoom = zoom })
}

// setViewport applies fn and notifies listeners outside the lock, since
// listeners draw back onto the renderer.
func (r *Renderer) setViewport(fn func(*domain.Viewport)) {
	r.mu.Lock()
	fn(&r.viewport)
	v := r.viewport
	fns := slices.Clone(r.viewportFns)
	r.mu.Unlock()

	for _, f := range fns {
		f(v)
	}
}

func (r *Renderer) AddMarker(pos domain.Coordinate, style domain.MarkerStyle) ports.MarkerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	m := &marker{r: r, key: r.nextID, pos: pos, style: style, visible: true}
	r.markers[m.key] = m
	return m
}

func (r *Renderer) AddCircle(band domain.RadiusBand) ports.Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	c := &circle{r: r, key: r.nextID, band: band}
	r.circles[c.key] = c
	return c
}

func (r *Renderer) AddBadge(b domain.ClusterBadge) ports.Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	bg := &badge{r: r, key: r.nextID, badge: b}
	r.badges[bg.key] = bg
	return bg
}

// Snapshot returns every live overlay in drawing order.
func (r *Renderer) Snapshot() domain.MapSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := domain.MapSnapshot{
		Viewport: r.viewport,
		Markers:  []domain.MarkerView{},
		Circles:  []domain.RadiusBand{},
		Badges:   []domain.ClusterBadge{},
	}

	for _, k := range sortedKeys(r.markers) {
		m := r.markers[k]
		view := m.viewLocked()
		if m.style.Kind == domain.MarkerSelection {
			snap.Selection = &view
			continue
		}
		snap.Markers = append(snap.Markers, view)
	}
	for _, k := range sortedKeys(r.circles) {
		snap.Circles = append(snap.Circles, r.circles[k].band)
	}
	for _, k := range sortedKeys(r.badges) {
		snap.Badges = append(snap.Badges, r.badges[k].badge)
	}
	return snap
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
