package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Waterloo, ON to Toronto, ON is roughly 94 km.
	d := Haversine(43.4643, -80.5204, 43.6532, -79.3832)
	if d < 90000 || d > 98000 {
		t.Errorf("expected ~94km, got %.0fm", d)
	}
}

func TestHaversine_Zero(t *testing.T) {
	if d := Haversine(43.45, -80.49, 43.45, -80.49); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDestination_RoundTrip(t *testing.T) {
	for _, bearing := range []float64{0, 45, 90, 180, 270} {
		lat, lon := Destination(43.45, -80.49, bearing, 15000)
		d := Haversine(43.45, -80.49, lat, lon)
		if math.Abs(d-15000) > 1 {
			t.Errorf("bearing %.0f: expected 15000m, got %.2fm", bearing, d)
		}
	}
}

func TestDestination_WrapsAntimeridian(t *testing.T) {
	_, lon := Destination(0, 179.9, 90, 50000)
	if lon > -179 || lon < -180 {
		t.Errorf("expected wrap to western hemisphere, got %f", lon)
	}
}

func TestCircleRing_ClosedAndOnRadius(t *testing.T) {
	ring := CircleRing(43.45, -80.49, 30000, 32)
	if len(ring) != 33 {
		t.Fatalf("expected 33 points, got %d", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Error("ring is not closed")
	}
	for i, p := range ring {
		d := Haversine(43.45, -80.49, p[1], p[0])
		if math.Abs(d-30000) > 1 {
			t.Errorf("vertex %d: expected 30000m, got %.2fm", i, d)
		}
	}
}

func TestDegreesPerPixel(t *testing.T) {
	if got := DegreesPerPixel(0); math.Abs(got-360.0/256.0) > 1e-12 {
		t.Errorf("zoom 0: got %f", got)
	}
	if DegreesPerPixel(12) >= DegreesPerPixel(11) {
		t.Error("pixels must cover fewer degrees as zoom increases")
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(43.45, -80.49, 1000)
	if !(minLat < 43.45 && maxLat > 43.45 && minLon < -80.49 && maxLon > -80.49) {
		t.Error("bounding box does not contain its center")
	}
}
