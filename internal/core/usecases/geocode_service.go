package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
	"github.com/samirrijal/riskmap/internal/pkg/telemetry"
)

const (
	maxQueryLength  = 200
	suggestCacheTTL = 300   // 5 min
	resolveCacheTTL = 86400 // places do not move

	sharedLookupTimeout = 15 * time.Second
)

// GeocodeService fronts a geocoding provider with caching and collapses
// concurrent identical lookups into one provider call.
type GeocodeService struct {
	provider ports.Geocoder
	cache    ports.CacheService
	group    singleflight.Group
}

// NewGeocodeService wraps provider. cache may be nil.
func NewGeocodeService(provider ports.Geocoder, cache ports.CacheService) *GeocodeService {
	return &GeocodeService{provider: provider, cache: cache}
}

// Suggest returns place candidates for query, or none for a blank query.
func (s *GeocodeService) Suggest(ctx context.Context, query string) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if len(query) > maxQueryLength {
		return nil, fmt.Errorf("query too long (max %d characters)", maxQueryLength)
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGeocodeSuggest)
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	cacheKey := "geocode:suggest:" + strings.ToLower(query)
	var cached []domain.Candidate
	if s.cacheGet(ctx, "suggest", cacheKey, &cached) {
		return cached, nil
	}

	v, err := s.shared(ctx, cacheKey, func(ctx context.Context) (any, error) {
		return s.provider.Suggest(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "suggest failed")
		return nil, err
	}
	candidates := v.([]domain.Candidate)

	s.cacheSet(ctx, cacheKey, candidates, suggestCacheTTL)
	return candidates, nil
}

// Resolve turns a candidate into a coordinate. Failures wrap domain.ErrGeocoding.
func (s *GeocodeService) Resolve(ctx context.Context, candidate domain.Candidate) (domain.Coordinate, error) {
	key := candidate.PlaceID
	if key == "" {
		key = strings.TrimSpace(candidate.Description)
	}
	if key == "" {
		return domain.Coordinate{}, fmt.Errorf("%w: %w: candidate has neither place_id nor description",
			domain.ErrGeocoding, domain.ErrMalformedGeocodeHit)
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGeocodeResolve)
	defer span.End()
	span.SetAttributes(attribute.String("place_id", candidate.PlaceID))

	cacheKey := "geocode:place:" + key
	var cached domain.Coordinate
	if s.cacheGet(ctx, "resolve", cacheKey, &cached) {
		return cached, nil
	}

	v, err := s.shared(ctx, cacheKey, func(ctx context.Context) (any, error) {
		return s.provider.Resolve(ctx, candidate)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Coordinate{}, ctxErr
		}
		return domain.Coordinate{}, asGeocodingError(err)
	}
	c := v.(domain.Coordinate)
	if !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("%w: %w: %+v", domain.ErrGeocoding, domain.ErrMalformedGeocodeHit, c)
	}

	s.cacheSet(ctx, cacheKey, c, resolveCacheTTL)
	return c, nil
}

// shared runs fn once for all concurrent callers of key. fn is detached
// from any single caller's cancellation and bounded by sharedLookupTimeout;
// each caller stops waiting when its own ctx ends.
func (s *GeocodeService) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *GeocodeService) cacheGet(ctx context.Context, op, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		slog.WarnContext(ctx, "evicting undecodable cache entry", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return true
}

func (s *GeocodeService) cacheSet(ctx context.Context, key string, v any, ttl int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttl)
	}
}

func asGeocodingError(err error) error {
	if errors.Is(err, domain.ErrGeocoding) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGeocoding, err)
}
