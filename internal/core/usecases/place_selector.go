package usecases

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
	"github.com/samirrijal/riskmap/internal/pkg/telemetry"
)

// PlaceSelector binds free-text place search to a synchronizer. Choosing a
// candidate is a two-stage pipeline: resolve (slow, cancellable) then select
// (synchronous), guarded by the synchronizer's sequence number so a late
// resolution never overwrites a selection applied after it started.
type PlaceSelector struct {
	geocoder ports.Geocoder
	sync     *Synchronizer
}

// NewPlaceSelector returns a selector. With a nil geocoder the selector is
// inert: it offers no candidates and Choose reports ErrSelectorInactive.
func NewPlaceSelector(geocoder ports.Geocoder, sync *Synchronizer) *PlaceSelector {
	return &PlaceSelector{geocoder: geocoder, sync: sync}
}

// Active reports whether place search is available.
func (p *PlaceSelector) Active() bool {
	return p.geocoder != nil
}

// Suggest lists candidates for query. Zero candidates is not an error.
func (p *PlaceSelector) Suggest(ctx context.Context, query string) ([]domain.Candidate, error) {
	if !p.Active() {
		return nil, nil
	}
	return p.geocoder.Suggest(ctx, query)
}

// Choose resolves candidate and selects the resulting coordinate. On failure
// the previous selection stays as it was.
func (p *PlaceSelector) Choose(ctx context.Context, candidate domain.Candidate) (domain.Coordinate, error) {
	if !p.Active() {
		return domain.Coordinate{}, domain.ErrSelectorInactive
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlaceChoose)
	defer span.End()
	span.SetAttributes(attribute.String("description", candidate.Description))

	token := p.sync.BeginSelection()

	c, err := p.geocoder.Resolve(ctx, candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return domain.Coordinate{}, asGeocodingError(err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}

	if err := p.sync.SelectCoordinateIfNewest(token, c); err != nil {
		if errors.Is(err, domain.ErrStaleSelection) {
			metrics.StaleSelections.Inc()
		}
		return domain.Coordinate{}, err
	}

	metrics.Selections.WithLabelValues("place").Inc()
	return c, nil
}
