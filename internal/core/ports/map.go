package ports

import "github.com/samirrijal/riskmap/internal/core/domain"

// Overlay is a primitive drawn on a map that can be taken off again.
type Overlay interface {
	// Remove detaches the overlay from its map. Removing twice is a no-op.
	Remove()
}

// MarkerHandle is a renderer-owned handle for one drawn point.
type MarkerHandle interface {
	Overlay
	ID() string
	Position() domain.Coordinate
	// SetVisible hides or shows the marker without detaching it.
	SetVisible(visible bool)
}

// MapHandle is what a ready map hands to collaborators that draw on it.
type MapHandle interface {
	ID() string
	Viewport() domain.Viewport
	AddBadge(badge domain.ClusterBadge) Overlay
	// OnViewportChanged registers fn to be called after every pan or zoom.
	OnViewportChanged(fn func(domain.Viewport))
}

// MapRenderer draws a base map and overlay primitives.
type MapRenderer interface {
	// OnReady registers fn to run once the map becomes interactive.
	OnReady(fn func(MapHandle))
	PanTo(c domain.Coordinate)
	SetZoom(zoom int)
	AddMarker(pos domain.Coordinate, style domain.MarkerStyle) MarkerHandle
	AddCircle(band domain.RadiusBand) Overlay
	Snapshot() domain.MapSnapshot
}

// BadgeRenderer builds the badge shown for a cluster of count markers.
type BadgeRenderer func(count int, position domain.Coordinate) domain.ClusterBadge

// ClusterEngine groups markers registered with it into badges.
type ClusterEngine interface {
	ClearMarkers()
	// AddMarkers registers a batch and re-clusters once.
	AddMarkers(markers []MarkerHandle)
}

// ClusterEngineFactory binds a new clustering engine to a ready map.
type ClusterEngineFactory func(m MapHandle, render BadgeRenderer) ClusterEngine
