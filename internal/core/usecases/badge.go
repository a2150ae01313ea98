package usecases

import (
	"strconv"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

const (
	// MaxZIndex mirrors the map widget's marker z-index ceiling; badges stack above it.
	MaxZIndex = 1000000

	BadgeHighColor = "#FFC107"
	BadgeLowColor  = "#2196F3"

	badgeHighThreshold = 10
	badgeBaseScale     = 16
	badgeMaxScale      = 30
)

// RiskMarkerStyle is the small red dot drawn for every risk point.
var RiskMarkerStyle = domain.MarkerStyle{
	Kind:        domain.MarkerRisk,
	Scale:       4,
	FillColor:   "#FF5252",
	FillOpacity: 0.8,
	StrokeWidth: 0,
	Clickable:   false,
}

// SelectionMarkerStyle is the default pin drawn on the selected hotspot.
var SelectionMarkerStyle = domain.MarkerStyle{
	Kind:        domain.MarkerSelection,
	Scale:       1,
	FillOpacity: 1,
	Clickable:   false,
}

// RenderBadge builds the cluster badge for count markers at position.
func RenderBadge(count int, position domain.Coordinate) domain.ClusterBadge {
	fill := BadgeLowColor
	if count > badgeHighThreshold {
		fill = BadgeHighColor
	}
	return domain.ClusterBadge{
		Position: position,
		Count:    count,
		Label: domain.BadgeLabel{
			Text:       strconv.Itoa(count),
			Color:      "white",
			FontSize:   "12px",
			FontWeight: "bold",
		},
		FillColor:    fill,
		FillOpacity:  0.9,
		StrokeColor:  "white",
		StrokeWeight: 2,
		Scale:        float64(min(badgeMaxScale, badgeBaseScale+count)),
		ZIndex:       MaxZIndex + count,
	}
}
