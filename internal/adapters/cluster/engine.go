// Package cluster groups map markers into count badges. Markers within a
// pixel radius of a seed marker at the current zoom form one cluster; the
// neighbour search runs on an R-tree.
package cluster

import (
	"log/slog"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/pkg/geospatial"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
)

const (
	DefaultRadiusPx  = 60
	DefaultMinPoints = 2
	DefaultMaxZoom   = 16

	minChildren = 25
	maxChildren = 50
	tolerance   = 1e-9
)

// Options tunes the clustering.
type Options struct {
	// RadiusPx is the cluster radius in screen pixels.
	RadiusPx float64
	// MinPoints is the smallest group drawn as a badge.
	MinPoints int
	// MaxZoom is the last zoom level that clusters; above it every marker shows.
	MaxZoom int
}

func (o Options) withDefaults() Options {
	if o.RadiusPx <= 0 {
		o.RadiusPx = DefaultRadiusPx
	}
	if o.MinPoints < 2 {
		o.MinPoints = DefaultMinPoints
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = DefaultMaxZoom
	}
	return o
}

// Engine implements ports.ClusterEngine.
type Engine struct {
	mu sync.Mutex

	opts   Options
	m      ports.MapHandle
	render ports.BadgeRenderer

	markers  []ports.MarkerHandle
	badges   []ports.Overlay
	lastZoom int
}

// NewFactory returns a ports.ClusterEngineFactory producing engines with opts.
func NewFactory(opts Options) ports.ClusterEngineFactory {
	return func(m ports.MapHandle, render ports.BadgeRenderer) ports.ClusterEngine {
		return New(m, render, opts)
	}
}

// New binds an engine to m and subscribes it to viewport changes.
func New(m ports.MapHandle, render ports.BadgeRenderer, opts Options) *Engine {
	e := &Engine{
		opts:     opts.withDefaults(),
		m:        m,
		render:   render,
		lastZoom: m.Viewport().Zoom,
	}
	m.OnViewportChanged(e.onViewportChanged)
	return e
}

// ClearMarkers forgets every registered marker and takes its badges off the map.
func (e *Engine) ClearMarkers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.badges {
		b.Remove()
	}
	e.badges = nil
	e.markers = nil
}

// AddMarkers registers a batch and re-clusters once.
func (e *Engine) AddMarkers(markers []ports.MarkerHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.markers = append(e.markers, markers...)
	e.reclusterLocked(e.m.Viewport().Zoom)
}

// Clusters reports how many badges are currently drawn.
func (e *Engine) Clusters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.badges)
}

// Pans keep the clustering; only a zoom change regroups.
func (e *Engine) onViewportChanged(v domain.Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v.Zoom == e.lastZoom {
		return
	}
	e.reclusterLocked(v.Zoom)
}

type item struct {
	idx  int
	rect rtreego.Rect
}

func (it *item) Bounds() rtreego.Rect { return it.rect }

func (e *Engine) reclusterLocked(zoom int) {
	e.lastZoom = zoom
	metrics.Reclusters.Inc()

	for _, b := range e.badges {
		b.Remove()
	}
	e.badges = nil

	if len(e.markers) == 0 {
		return
	}
	if zoom > e.opts.MaxZoom {
		for _, m := range e.markers {
			m.SetVisible(true)
		}
		return
	}

	positions := make([]domain.Coordinate, len(e.markers))
	tree := rtreego.NewTree(2, minChildren, maxChildren)
	for i, m := range e.markers {
		p := m.Position()
		positions[i] = p
		tree.Insert(&item{idx: i, rect: rtreego.Point{p.Lng, p.Lat}.ToRect(tolerance)})
	}

	radius := e.opts.RadiusPx * geospatial.DegreesPerPixel(zoom)
	assigned := make([]bool, len(e.markers))

	for i := range e.markers {
		if assigned[i] {
			continue
		}
		seed := positions[i]
		box, err := rtreego.NewRect(
			rtreego.Point{seed.Lng - radius, seed.Lat - radius},
			[]float64{2 * radius, 2 * radius},
		)
		if err != nil {
			slog.Warn("cluster search box", "error", err)
			continue
		}

		members := []int{i}
		assigned[i] = true
		for _, hit := range tree.SearchIntersect(box) {
			j := hit.(*item).idx
			if assigned[j] {
				continue
			}
			assigned[j] = true
			members = append(members, j)
		}

		if len(members) < e.opts.MinPoints {
			// too small for a badge: every member is drawn on its own
			for _, j := range members {
				e.markers[j].SetVisible(true)
			}
			continue
		}

		var lat, lng float64
		for _, j := range members {
			e.markers[j].SetVisible(false)
			lat += positions[j].Lat
			lng += positions[j].Lng
		}
		n := float64(len(members))
		center := domain.Coordinate{Lat: lat / n, Lng: lng / n}
		e.badges = append(e.badges, e.m.AddBadge(e.render(len(members), center)))
	}
}
