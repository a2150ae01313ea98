package scene_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/riskmap/internal/adapters/scene"
	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

func TestRenderer_LoadRequiresAPIKey(t *testing.T) {
	r := scene.New(scene.Options{})
	called := false
	r.OnReady(func(ports.MapHandle) { called = true })

	if err := r.Load(context.Background()); !errors.Is(err, domain.ErrMapLoad) {
		t.Fatalf("expected ErrMapLoad, got %v", err)
	}
	if called {
		t.Error("ready hook fired on a failed load")
	}
	if _, err := scene.NewLoaded(context.Background(), scene.Options{}); !errors.Is(err, domain.ErrMapLoad) {
		t.Errorf("expected ErrMapLoad from NewLoaded, got %v", err)
	}
}

func TestRenderer_OnReady(t *testing.T) {
	r := scene.New(scene.Options{APIKey: "k"})
	var calls int
	r.OnReady(func(m ports.MapHandle) {
		calls++
		if m.ID() != r.ID() {
			t.Errorf("unexpected handle %s", m.ID())
		}
	})
	if calls != 0 {
		t.Fatal("hook fired before load")
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	r.OnReady(func(ports.MapHandle) { calls++ })
	if calls != 2 {
		t.Error("hook registered after load should run immediately")
	}
}

func TestRenderer_OverlaysAndSnapshot(t *testing.T) {
	r := scene.New(scene.Options{APIKey: "k", Zoom: 12})
	c := domain.Coordinate{Lat: 43.45, Lng: -80.49}

	m1 := r.AddMarker(c, usecases.RiskMarkerStyle)
	m2 := r.AddMarker(domain.Coordinate{Lat: 43.46, Lng: -80.48}, usecases.RiskMarkerStyle)
	pin := r.AddMarker(c, usecases.SelectionMarkerStyle)
	var circles []ports.Overlay
	for _, b := range usecases.RadiusBands(c) {
		circles = append(circles, r.AddCircle(b))
	}
	badge := r.AddBadge(usecases.RenderBadge(3, c))

	m2.SetVisible(false)
	snap := r.Snapshot()
	if len(snap.Markers) != 2 || snap.Markers[0].ID != m1.ID() {
		t.Fatalf("unexpected markers %+v", snap.Markers)
	}
	if snap.Markers[1].Visible {
		t.Error("hidden marker reported visible")
	}
	if snap.Selection == nil || snap.Selection.ID != pin.ID() {
		t.Errorf("expected selection pin, got %+v", snap.Selection)
	}
	if len(snap.Circles) != 3 || snap.Circles[0].Tier != domain.TierNear {
		t.Errorf("unexpected circles %+v", snap.Circles)
	}
	if len(snap.Badges) != 1 {
		t.Errorf("expected 1 badge, got %d", len(snap.Badges))
	}

	m1.Remove()
	m1.Remove()
	pin.Remove()
	circles[0].Remove()
	badge.Remove()
	snap = r.Snapshot()
	if len(snap.Markers) != 1 || snap.Selection != nil || len(snap.Circles) != 2 || len(snap.Badges) != 0 {
		t.Errorf("removal not reflected: %+v", snap)
	}
}

func TestRenderer_ViewportListeners(t *testing.T) {
	r := scene.New(scene.Options{APIKey: "k", Zoom: 12})
	var seen []domain.Viewport
	r.OnViewportChanged(func(v domain.Viewport) {
		seen = append(seen, v)
		// Listeners may draw back onto the renderer.
		r.AddBadge(domain.ClusterBadge{})
	})

	c := domain.Coordinate{Lat: 1, Lng: 2}
	r.PanTo(c)
	r.SetZoom(14)

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[1].Center != c || seen[1].Zoom != 14 {
		t.Errorf("unexpected viewport %+v", seen[1])
	}
	if v := r.Viewport(); v.Center != c || v.Zoom != 14 {
		t.Errorf("unexpected viewport %+v", v)
	}
}
