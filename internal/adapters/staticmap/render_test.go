package staticmap_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	sm "github.com/flopp/go-staticmaps"
	"github.com/fogleman/gg"

	"github.com/samirrijal/riskmap/internal/adapters/cluster"
	"github.com/samirrijal/riskmap/internal/adapters/scene"
	"github.com/samirrijal/riskmap/internal/adapters/staticmap"
	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

func tileServer(t *testing.T) *sm.TileProvider {
	t.Helper()
	dc := gg.NewContext(256, 256)
	dc.SetColor(color.White)
	dc.Clear()
	var tile bytes.Buffer
	if err := dc.EncodePNG(&tile); err != nil {
		t.Fatalf("encode tile: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(tile.Bytes())
	}))
	t.Cleanup(srv.Close)

	return &sm.TileProvider{
		Name:       "riskmap-test-" + t.Name(),
		TileSize:   256,
		URLPattern: srv.URL + "/%[2]d/%[3]d/%[4]d.png",
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := staticmap.New(staticmap.Options{TileProvider: "no-such-tiles"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := staticmap.New(staticmap.Options{Width: 5000}); err == nil {
		t.Error("expected error for oversized image")
	}
	if _, err := staticmap.New(staticmap.Options{}); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
	if !slices.Contains(staticmap.ProviderNames(), "osm") {
		t.Error("expected osm among providers")
	}
}

func TestRender_Scene(t *testing.T) {
	r, err := scene.NewLoaded(context.Background(), scene.Options{APIKey: "k", Zoom: 10})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	syncer := usecases.NewSynchronizer(r, cluster.NewFactory(cluster.Options{}), nil)
	r.OnReady(syncer.OnMapReady)
	syncer.SelectCoordinate(domain.Coordinate{Lat: 43.45, Lng: -80.49})

	rend, err := staticmap.New(staticmap.Options{Width: 400, Height: 300, Provider: tileServer(t)})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	var buf bytes.Buffer
	if err := rend.WritePNG(&buf, domain.Scene{Map: r.Snapshot()}); err != nil {
		t.Fatalf("write png: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() < 400 || b.Dy() < 300 {
		t.Errorf("unexpected size %v", b)
	}
	if isUniform(img) {
		t.Error("expected overlays drawn over the blank tiles")
	}
}

func isUniform(img image.Image) bool {
	b := img.Bounds()
	first := img.At(b.Min.X, b.Min.Y)
	r0, g0, b0, _ := first.RGBA()
	for y := b.Min.Y; y < b.Max.Y; y += 4 {
		for x := b.Min.X; x < b.Max.X; x += 4 {
			r, g, bb, _ := img.At(x, y).RGBA()
			if r != r0 || g != g0 || bb != b0 {
				return false
			}
		}
	}
	return true
}
