package usecases

import "github.com/samirrijal/riskmap/internal/core/domain"

var bandDefaults = domain.CircleStyle{
	StrokeOpacity: 0.5,
	StrokeWeight:  2,
	Clickable:     false,
	Draggable:     false,
	Editable:      false,
	Visible:       true,
}

type bandSpec struct {
	tier        domain.BandTier
	radius      float64
	color       string
	fillOpacity float64
	zIndex      int
}

// Innermost first; z-index strictly decreases outwards.
var bandSpecs = []bandSpec{
	{tier: domain.TierNear, radius: 15000, color: "#8BC34A", fillOpacity: 0.05, zIndex: 3},
	{tier: domain.TierMid, radius: 30000, color: "#FBC02D", fillOpacity: 0.05, zIndex: 2},
	{tier: domain.TierFar, radius: 45000, color: "#FF5252", fillOpacity: 0.08, zIndex: 1},
}

// RadiusBands returns the near, mid and far bands around center.
func RadiusBands(center domain.Coordinate) []domain.RadiusBand {
	bands := make([]domain.RadiusBand, 0, len(bandSpecs))
	for _, spec := range bandSpecs {
		style := bandDefaults
		style.StrokeColor = spec.color
		style.FillColor = spec.color
		style.FillOpacity = spec.fillOpacity
		style.ZIndex = spec.zIndex
		bands = append(bands, domain.RadiusBand{
			Center:       center,
			RadiusMeters: spec.radius,
			Tier:         spec.tier,
			Style:        style,
		})
	}
	return bands
}
