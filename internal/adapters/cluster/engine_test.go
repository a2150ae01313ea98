package cluster_test

import (
	"context"
	"testing"

	"github.com/samirrijal/riskmap/internal/adapters/cluster"
	"github.com/samirrijal/riskmap/internal/adapters/scene"
	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

func loadedScene(t *testing.T, zoom int) *scene.Renderer {
	t.Helper()
	r, err := scene.NewLoaded(context.Background(), scene.Options{
		APIKey: "test-key",
		Center: domain.Coordinate{Lat: 43.45, Lng: -80.49},
		Zoom:   zoom,
	})
	if err != nil {
		t.Fatalf("load scene: %v", err)
	}
	return r
}

func addAt(r *scene.Renderer, c domain.Coordinate, n int) []ports.MarkerHandle {
	out := make([]ports.MarkerHandle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.AddMarker(c, usecases.RiskMarkerStyle))
	}
	return out
}

func TestEngine_GroupsNearbyMarkers(t *testing.T) {
	r := loadedScene(t, 12)
	e := cluster.New(r, usecases.RenderBadge, cluster.Options{})

	near := domain.Coordinate{Lat: 43.45, Lng: -80.49}
	far := domain.Coordinate{Lat: 44.45, Lng: -79.49}

	markers := append(addAt(r, near, 5), addAt(r, far, 1)...)
	e.AddMarkers(markers)

	snap := r.Snapshot()
	if len(snap.Badges) != 1 {
		t.Fatalf("expected 1 badge, got %d", len(snap.Badges))
	}
	b := snap.Badges[0]
	if b.Count != 5 || b.FillColor != usecases.BadgeLowColor || b.Scale != 21 {
		t.Errorf("unexpected badge %+v", b)
	}
	if b.Position != near {
		t.Errorf("badge at %v, want %v", b.Position, near)
	}

	visible := 0
	for _, m := range snap.Markers {
		if m.Visible {
			visible++
			if m.Position != far {
				t.Errorf("clustered marker %v left visible", m.Position)
			}
		}
	}
	if visible != 1 {
		t.Errorf("expected only the lone marker visible, got %d", visible)
	}
}

func TestEngine_HighCountBadge(t *testing.T) {
	r := loadedScene(t, 12)
	e := cluster.New(r, usecases.RenderBadge, cluster.Options{})
	e.AddMarkers(addAt(r, domain.Coordinate{Lat: 1, Lng: 1}, 15))

	badges := r.Snapshot().Badges
	if len(badges) != 1 {
		t.Fatalf("expected 1 badge, got %d", len(badges))
	}
	if badges[0].FillColor != usecases.BadgeHighColor || badges[0].Scale != 30 {
		t.Errorf("unexpected badge %+v", badges[0])
	}
	if badges[0].ZIndex != usecases.MaxZIndex+15 {
		t.Errorf("unexpected z-index %d", badges[0].ZIndex)
	}
}

func TestEngine_ZoomPastMaxShowsEverything(t *testing.T) {
	r := loadedScene(t, 12)
	e := cluster.New(r, usecases.RenderBadge, cluster.Options{MaxZoom: 16})
	e.AddMarkers(addAt(r, domain.Coordinate{Lat: 1, Lng: 1}, 8))

	if e.Clusters() != 1 {
		t.Fatalf("expected a cluster at zoom 12, got %d", e.Clusters())
	}

	r.SetZoom(17)
	snap := r.Snapshot()
	if len(snap.Badges) != 0 {
		t.Errorf("expected no badges above max zoom, got %d", len(snap.Badges))
	}
	for _, m := range snap.Markers {
		if !m.Visible {
			t.Fatal("every marker should show above max zoom")
		}
	}

	r.SetZoom(10)
	if e.Clusters() != 1 {
		t.Errorf("expected re-cluster on zoom out, got %d", e.Clusters())
	}
}

func TestEngine_UndersizedGroupShowsAllMembers(t *testing.T) {
	r := loadedScene(t, 5)
	e := cluster.New(r, usecases.RenderBadge, cluster.Options{MinPoints: 3, MaxZoom: 16})

	pair := domain.Coordinate{Lat: 43.45, Lng: -80.49}
	lone := domain.Coordinate{Lat: 43.54, Lng: -80.49}
	e.AddMarkers(append(addAt(r, pair, 2), addAt(r, lone, 1)...))

	snap := r.Snapshot()
	if len(snap.Badges) != 1 || snap.Badges[0].Count != 3 {
		t.Fatalf("expected one badge of 3 at zoom 5, got %+v", snap.Badges)
	}

	// The pair is now too small for a badge; both members must reappear.
	r.SetZoom(15)
	snap = r.Snapshot()
	if len(snap.Badges) != 0 {
		t.Fatalf("expected no badges at zoom 15, got %+v", snap.Badges)
	}
	visible := 0
	for _, m := range snap.Markers {
		if m.Visible {
			visible++
		}
	}
	if visible != 3 {
		t.Errorf("expected all 3 markers visible, got %d", visible)
	}
}

func TestEngine_ClearMarkersRemovesBadges(t *testing.T) {
	r := loadedScene(t, 12)
	e := cluster.New(r, usecases.RenderBadge, cluster.Options{})
	e.AddMarkers(addAt(r, domain.Coordinate{Lat: 1, Lng: 1}, 4))

	e.ClearMarkers()
	if n := len(r.Snapshot().Badges); n != 0 {
		t.Errorf("expected badges gone, got %d", n)
	}
	e.AddMarkers(nil)
	if e.Clusters() != 0 {
		t.Error("cleared engine must not regroup old markers")
	}
}

func TestEngine_WithSynchronizer(t *testing.T) {
	r := scene.New(scene.Options{APIKey: "k", Zoom: 12})
	sync := usecases.NewSynchronizer(r, cluster.NewFactory(cluster.Options{}), nil)
	r.OnReady(sync.OnMapReady)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	sync.SelectCoordinate(domain.Coordinate{Lat: 43.45, Lng: -80.49})
	sync.SelectCoordinate(domain.Coordinate{Lat: 40.71, Lng: -74.00})

	snap := r.Snapshot()
	if len(snap.Markers) != usecases.RiskPointCount {
		t.Fatalf("expected %d markers, got %d", usecases.RiskPointCount, len(snap.Markers))
	}
	total := 0
	for _, b := range snap.Badges {
		total += b.Count
		if b.Position.Lat < 40.66 || b.Position.Lat > 40.76 {
			t.Errorf("badge %v not around the latest selection", b.Position)
		}
	}
	for _, m := range snap.Markers {
		if m.Visible {
			total++
		}
	}
	if total != usecases.RiskPointCount {
		t.Errorf("badges and visible markers should account for every point, got %d", total)
	}
}
