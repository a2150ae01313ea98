package usecases

import (
	"math/rand/v2"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

const (
	// RiskPointCount is how many synthetic points surround a selection.
	RiskPointCount = 200
	// RiskPointSpread is the full width, in degrees, of the jitter on each axis.
	RiskPointSpread = 0.08
)

// RiskPointGenerator scatters synthetic risk points around a center.
// Output is deliberately not reproducible: every call re-randomises.
type RiskPointGenerator struct {
	count  int
	spread float64
	rand   func() float64
}

// NewRiskPointGenerator returns a generator backed by the unseeded global source.
func NewRiskPointGenerator() *RiskPointGenerator {
	return NewRiskPointGeneratorWithSource(rand.Float64)
}

// NewRiskPointGeneratorWithSource uses src, which must return values in [0, 1).
func NewRiskPointGeneratorWithSource(src func() float64) *RiskPointGenerator {
	return &RiskPointGenerator{count: RiskPointCount, spread: RiskPointSpread, rand: src}
}

// Generate offsets latitude and longitude independently by (r - 0.5) * spread.
func (g *RiskPointGenerator) Generate(center domain.Coordinate) []domain.RiskPoint {
	points := make([]domain.RiskPoint, 0, g.count)
	for i := 0; i < g.count; i++ {
		latOffset := (g.rand() - 0.5) * g.spread
		lngOffset := (g.rand() - 0.5) * g.spread
		points = append(points, domain.RiskPoint{Coordinate: domain.Coordinate{
			Lat: center.Lat + latOffset,
			Lng: center.Lng + lngOffset,
		}})
	}
	return points
}
