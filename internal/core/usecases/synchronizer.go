package usecases

import (
	"log/slog"
	"sync"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
)

// Synchronizer owns the selected coordinate of one map and keeps every layer
// derived from it consistent: risk markers, their clustering, the radius
// bands and the selection pin.
//
// All methods are serialised by mu, which plays the role of the UI event
// queue: a reconciliation always finishes before the next one starts.
type Synchronizer struct {
	mu sync.Mutex

	renderer  ports.MapRenderer
	newEngine ports.ClusterEngineFactory
	generator *RiskPointGenerator
	logger    *slog.Logger

	mapHandle ports.MapHandle
	engine    ports.ClusterEngine

	selected   *domain.Coordinate
	riskPoints []domain.RiskPoint
	bands      []domain.RadiusBand

	markers []ports.MarkerHandle
	circles []ports.Overlay
	pin     ports.MarkerHandle

	// seq numbers selections in the order they were started; applied is the
	// seq of the selection currently on the map.
	seq     uint64
	applied uint64
}

// NewSynchronizer creates a synchronizer drawing on renderer. The clustering
// engine is built by newEngine once the map reports ready.
func NewSynchronizer(renderer ports.MapRenderer, newEngine ports.ClusterEngineFactory, generator *RiskPointGenerator) *Synchronizer {
	if generator == nil {
		generator = NewRiskPointGenerator()
	}
	return &Synchronizer{
		renderer:  renderer,
		newEngine: newEngine,
		generator: generator,
		logger:    slog.Default(),
	}
}

// WithLogger replaces the logger used for lifecycle events.
func (s *Synchronizer) WithLogger(l *slog.Logger) *Synchronizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
	return s
}

// OnMapReady stores the map handle and binds the clustering engine to it.
// The engine is built at most once; later calls only refresh the handle.
func (s *Synchronizer) OnMapReady(m ports.MapHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapHandle = m
	if s.engine != nil {
		return
	}
	s.engine = s.newEngine(m, RenderBadge)
	s.logger.Debug("cluster engine bound", "map", m.ID())

	// A selection made while the map was loading is drawn now, from the
	// points already derived for it.
	if s.selected != nil {
		s.drawLocked()
	}
}

// SelectCoordinate replaces the selection with c and regenerates every
// derived layer. Selecting the same coordinate again re-randomises the
// risk points. It returns the sequence number of the applied selection.
func (s *Synchronizer) SelectCoordinate(c domain.Coordinate) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.applied = s.seq
	s.applyLocked(c)
	return s.seq
}

// BeginSelection reserves a sequence number for a selection whose coordinate
// is still being resolved. It is superseded only once a later selection has
// actually been applied.
func (s *Synchronizer) BeginSelection() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	return s.seq
}

// SelectCoordinateIfNewest applies c unless a selection started after token
// has already been applied, in which case it returns domain.ErrStaleSelection
// and leaves the current selection untouched. Reserved tokens that never got
// applied do not count.
func (s *Synchronizer) SelectCoordinateIfNewest(token uint64, c domain.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token <= s.applied {
		s.logger.Debug("dropping stale selection", "token", token, "applied", s.applied)
		return domain.ErrStaleSelection
	}
	s.applied = token
	s.applyLocked(c)
	return nil
}

// SetZoom changes the renderer's zoom under the same lock as selections, so
// a re-cluster never interleaves with a reconciliation.
func (s *Synchronizer) SetZoom(zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer.SetZoom(zoom)
}

// View returns the selection state and the drawn map taken together, so both
// describe the same selection.
func (s *Synchronizer) View() (domain.SelectionState, domain.MapSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateViewLocked(), s.renderer.Snapshot()
}

// State reports the lifecycle state and the layers derived from the selection.
func (s *Synchronizer) State() domain.SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateViewLocked()
}

func (s *Synchronizer) stateViewLocked() domain.SelectionState {
	st := domain.SelectionState{
		State:       s.stateLocked(),
		RiskPoints:  len(s.riskPoints),
		LiveMarkers: len(s.markers),
		Sequence:    s.applied,
		Bands:       append([]domain.RadiusBand(nil), s.bands...),
	}
	if s.selected != nil {
		c := *s.selected
		st.Selected = &c
	}
	return st
}

// RiskPoints returns a copy of the current risk point set.
func (s *Synchronizer) RiskPoints() []domain.RiskPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RiskPoint(nil), s.riskPoints...)
}

func (s *Synchronizer) stateLocked() domain.SyncState {
	switch {
	case s.mapHandle == nil:
		return domain.StateUnready
	case s.selected == nil:
		return domain.StateReadyNoSelection
	default:
		return domain.StateReadySelected
	}
}

// applyLocked stores c and derives points and bands from it together, so the
// two can never describe different selections.
func (s *Synchronizer) applyLocked(c domain.Coordinate) {
	s.selected = &c
	s.riskPoints = s.generator.Generate(c)
	s.bands = RadiusBands(c)

	s.logger.Debug("selection applied", "lat", c.Lat, "lng", c.Lng, "seq", s.applied)

	if s.mapHandle == nil {
		return
	}
	s.drawLocked()
}

func (s *Synchronizer) drawLocked() {
	s.renderer.PanTo(*s.selected)
	s.reconcileLocked()
	s.drawBandsLocked()
	s.drawPinLocked()
}

// reconcileLocked swaps the engine's marker set for one built from the
// current risk points. Risk points have no identity across selections, so
// the old set is always cleared and rebuilt rather than diffed.
func (s *Synchronizer) reconcileLocked() {
	if s.engine == nil {
		return
	}

	s.engine.ClearMarkers()
	for _, m := range s.markers {
		m.Remove()
	}
	s.markers = nil

	markers := make([]ports.MarkerHandle, 0, len(s.riskPoints))
	for _, p := range s.riskPoints {
		markers = append(markers, s.renderer.AddMarker(p.Coordinate, RiskMarkerStyle))
	}
	s.markers = markers

	// One batch, one re-cluster.
	s.engine.AddMarkers(markers)
}

func (s *Synchronizer) drawBandsLocked() {
	for _, c := range s.circles {
		c.Remove()
	}
	circles := make([]ports.Overlay, 0, len(s.bands))
	for _, b := range s.bands {
		circles = append(circles, s.renderer.AddCircle(b))
	}
	s.circles = circles
}

func (s *Synchronizer) drawPinLocked() {
	if s.pin != nil {
		s.pin.Remove()
	}
	s.pin = s.renderer.AddMarker(*s.selected, SelectionMarkerStyle)
}
