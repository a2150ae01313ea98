// Package geojson exports scenes and checkpoint events as GeoJSON
// FeatureCollections.
package geojson

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/pkg/geospatial"
)

// circleSegments is how many vertices approximate a band outline.
const circleSegments = 64

// Feature "layer" property values.
const (
	LayerBand       = "band"
	LayerBadge      = "cluster"
	LayerRisk       = "risk"
	LayerSelection  = "selection"
	LayerCheckpoint = "checkpoint"
)

func point(c domain.Coordinate) orb.Point { return orb.Point{c.Lng, c.Lat} }

// Scene renders a scene's overlays, outermost band first so polygons stack
// the way the map draws them.
func Scene(s domain.Scene) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	circles := s.Map.Circles
	for i := len(circles) - 1; i >= 0; i-- {
		b := circles[i]
		f := geojson.NewFeature(orb.Polygon{
			geospatial.CircleRing(b.Center.Lat, b.Center.Lng, b.RadiusMeters, circleSegments),
		})
		f.Properties["layer"] = LayerBand
		f.Properties["tier"] = string(b.Tier)
		f.Properties["radius_m"] = b.RadiusMeters
		f.Properties["stroke"] = b.Style.StrokeColor
		f.Properties["stroke-opacity"] = b.Style.StrokeOpacity
		f.Properties["stroke-width"] = b.Style.StrokeWeight
		f.Properties["fill"] = b.Style.FillColor
		f.Properties["fill-opacity"] = b.Style.FillOpacity
		f.Properties["z_index"] = b.Style.ZIndex
		fc.Append(f)
	}

	for _, m := range s.Map.Markers {
		if !m.Visible {
			continue
		}
		f := geojson.NewFeature(point(m.Position))
		f.ID = m.ID
		f.Properties["layer"] = LayerRisk
		f.Properties["marker-color"] = m.Style.FillColor
		fc.Append(f)
	}

	for _, b := range s.Map.Badges {
		f := geojson.NewFeature(point(b.Position))
		f.Properties["layer"] = LayerBadge
		f.Properties["count"] = b.Count
		f.Properties["label"] = b.Label.Text
		f.Properties["marker-color"] = b.FillColor
		f.Properties["scale"] = b.Scale
		f.Properties["z_index"] = b.ZIndex
		fc.Append(f)
	}

	if sel := s.Map.Selection; sel != nil {
		f := geojson.NewFeature(point(sel.Position))
		f.Properties["layer"] = LayerSelection
		fc.Append(f)
	}

	return fc
}

// Checkpoints renders events as points, in the order given.
func Checkpoints(events []domain.CheckpointEvent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range events {
		f := geojson.NewFeature(orb.Point{e.Longitude, e.Latitude})
		f.Properties["layer"] = LayerCheckpoint
		f.Properties["id"] = e.ID
		f.Properties["timestamp"] = e.Timestamp
		f.Properties["checkpoint_id"] = e.CheckpointID
		f.Properties["vehicle_id"] = e.VehicleID
		f.Properties["risk_score"] = e.RiskScore
		f.Properties["probability"] = e.Probability
		f.Properties["is_suspicious"] = e.IsSuspicious
		fc.Append(f)
	}
	return fc
}
