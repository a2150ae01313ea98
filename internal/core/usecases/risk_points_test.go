package usecases_test

import (
	"math"
	"testing"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

func TestRiskPointGenerator_Bounds(t *testing.T) {
	centers := []domain.Coordinate{
		{Lat: 43.45, Lng: -80.49},
		{Lat: 0, Lng: 0},
		{Lat: -33.86, Lng: 151.21},
	}
	gen := usecases.NewRiskPointGenerator()
	for _, c := range centers {
		points := gen.Generate(c)
		if len(points) != usecases.RiskPointCount {
			t.Fatalf("expected %d points, got %d", usecases.RiskPointCount, len(points))
		}
		for _, p := range points {
			if !within(p.Coordinate, c, 0.04) {
				t.Fatalf("point %v outside ±0.04 of %v", p.Coordinate, c)
			}
		}
	}
}

func TestRiskPointGenerator_Extremes(t *testing.T) {
	center := domain.Coordinate{Lat: 10, Lng: 20}

	low := usecases.NewRiskPointGeneratorWithSource(func() float64 { return 0 }).Generate(center)
	if got := low[0].Coordinate; math.Abs(got.Lat-9.96) > 1e-9 || math.Abs(got.Lng-19.96) > 1e-9 {
		t.Errorf("r=0: got %v", got)
	}

	mid := usecases.NewRiskPointGeneratorWithSource(func() float64 { return 0.5 }).Generate(center)
	for _, p := range mid {
		if p.Coordinate != center {
			t.Fatalf("r=0.5 should land on the center, got %v", p.Coordinate)
		}
	}
}

func TestRiskPointGenerator_AxesIndependent(t *testing.T) {
	vals := []float64{0, 1}
	i := 0
	src := func() float64 {
		v := vals[i%2]
		i++
		return v * 0.999
	}
	points := usecases.NewRiskPointGeneratorWithSource(src).Generate(domain.Coordinate{})
	p := points[0].Coordinate
	if p.Lat >= 0 || p.Lng <= 0 {
		t.Errorf("expected lat offset from first draw and lng from second, got %v", p)
	}
}
