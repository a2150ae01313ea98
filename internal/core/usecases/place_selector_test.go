package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

func TestPlaceSelector_Inactive(t *testing.T) {
	s, _, _ := newReadySync(t)
	sel := usecases.NewPlaceSelector(nil, s)

	if sel.Active() {
		t.Fatal("selector without geocoder should be inactive")
	}
	got, err := sel.Suggest(context.Background(), "waterloo")
	if err != nil || got != nil {
		t.Errorf("expected no candidates and no error, got %v/%v", got, err)
	}
	if _, err := sel.Choose(context.Background(), domain.Candidate{Description: "x"}); !errors.Is(err, domain.ErrSelectorInactive) {
		t.Errorf("expected ErrSelectorInactive, got %v", err)
	}
}

func TestPlaceSelector_ZeroCandidates(t *testing.T) {
	s, _, _ := newReadySync(t)
	geo := &mockGeocoder{
		suggestFn: func(ctx context.Context, q string) ([]domain.Candidate, error) { return nil, nil },
	}
	sel := usecases.NewPlaceSelector(geo, s)

	got, err := sel.Suggest(context.Background(), "nowhere-at-all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
	if s.State().Selected != nil {
		t.Error("an empty suggestion list must not select anything")
	}
}

func TestPlaceSelector_Choose(t *testing.T) {
	s, r, _ := newReadySync(t)
	want := domain.Coordinate{Lat: 43.4643, Lng: -80.5204}
	geo := &mockGeocoder{
		resolveFn: func(ctx context.Context, c domain.Candidate) (domain.Coordinate, error) {
			if c.PlaceID != "pid-1" {
				t.Errorf("unexpected candidate %+v", c)
			}
			return want, nil
		},
	}
	sel := usecases.NewPlaceSelector(geo, s)

	got, err := sel.Choose(context.Background(), domain.Candidate{PlaceID: "pid-1", Description: "Waterloo, ON, Canada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if sel := s.State().Selected; sel == nil || *sel != want {
		t.Errorf("synchronizer not updated: %v", sel)
	}
	if len(r.riskMarkers()) != usecases.RiskPointCount {
		t.Errorf("expected markers around chosen place")
	}
}

func TestPlaceSelector_ResolveFailureKeepsSelection(t *testing.T) {
	s, _, _ := newReadySync(t)
	prev := domain.Coordinate{Lat: 1, Lng: 1}
	s.SelectCoordinate(prev)
	before := s.RiskPoints()

	geo := &mockGeocoder{
		resolveFn: func(ctx context.Context, c domain.Candidate) (domain.Coordinate, error) {
			return domain.Coordinate{}, errors.New("upstream timeout")
		},
	}
	sel := usecases.NewPlaceSelector(geo, s)

	_, err := sel.Choose(context.Background(), domain.Candidate{PlaceID: "p"})
	if !errors.Is(err, domain.ErrGeocoding) {
		t.Fatalf("expected ErrGeocoding, got %v", err)
	}
	if got := *s.State().Selected; got != prev {
		t.Errorf("previous selection lost: %v", got)
	}
	after := s.RiskPoints()
	if len(after) != len(before) || after[0] != before[0] {
		t.Error("risk points changed after a failed resolution")
	}
}

func TestPlaceSelector_StaleResolutionDropped(t *testing.T) {
	s, _, _ := newReadySync(t)
	slow := domain.Coordinate{Lat: 10, Lng: 10}
	fast := domain.Coordinate{Lat: 20, Lng: 20}

	entered := make(chan struct{})
	release := make(chan struct{})
	geo := &mockGeocoder{
		resolveFn: func(ctx context.Context, c domain.Candidate) (domain.Coordinate, error) {
			if c.PlaceID == "slow" {
				close(entered)
				<-release
				return slow, nil
			}
			return fast, nil
		},
	}
	sel := usecases.NewPlaceSelector(geo, s)

	errCh := make(chan error, 1)
	go func() {
		_, err := sel.Choose(context.Background(), domain.Candidate{PlaceID: "slow"})
		errCh <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("slow resolution never started")
	}

	if _, err := sel.Choose(context.Background(), domain.Candidate{PlaceID: "fast"}); err != nil {
		t.Fatalf("fast choose: %v", err)
	}
	close(release)

	if err := <-errCh; !errors.Is(err, domain.ErrStaleSelection) {
		t.Fatalf("expected stale error for the slow choice, got %v", err)
	}
	if got := *s.State().Selected; got != fast {
		t.Errorf("expected the later choice %v to win, got %v", fast, got)
	}
}

func TestPlaceSelector_FailedLaterChoiceKeepsPendingOne(t *testing.T) {
	s, _, _ := newReadySync(t)
	slow := domain.Coordinate{Lat: 10, Lng: 10}

	entered := make(chan struct{})
	release := make(chan struct{})
	geo := &mockGeocoder{
		resolveFn: func(ctx context.Context, c domain.Candidate) (domain.Coordinate, error) {
			if c.PlaceID == "slow" {
				close(entered)
				<-release
				return slow, nil
			}
			return domain.Coordinate{}, errors.New("ZERO_RESULTS")
		},
	}
	sel := usecases.NewPlaceSelector(geo, s)

	errCh := make(chan error, 1)
	go func() {
		_, err := sel.Choose(context.Background(), domain.Candidate{PlaceID: "slow"})
		errCh <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("slow resolution never started")
	}

	if _, err := sel.Choose(context.Background(), domain.Candidate{PlaceID: "broken"}); !errors.Is(err, domain.ErrGeocoding) {
		t.Fatalf("expected ErrGeocoding for the failing choice, got %v", err)
	}
	close(release)

	if err := <-errCh; err != nil {
		t.Fatalf("pending choice should still apply, got %v", err)
	}
	if got := *s.State().Selected; got != slow {
		t.Errorf("expected %v selected, got %v", slow, got)
	}
}

func TestPlaceSelector_CancelledContext(t *testing.T) {
	s, _, _ := newReadySync(t)
	ctx, cancel := context.WithCancel(context.Background())
	geo := &mockGeocoder{
		resolveFn: func(_ context.Context, c domain.Candidate) (domain.Coordinate, error) {
			cancel()
			return domain.Coordinate{Lat: 5, Lng: 5}, nil
		},
	}
	sel := usecases.NewPlaceSelector(geo, s)

	if _, err := sel.Choose(ctx, domain.Candidate{PlaceID: "p"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.State().Selected != nil {
		t.Error("a cancelled choice must not select")
	}
}
