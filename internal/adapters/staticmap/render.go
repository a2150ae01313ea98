// Package staticmap rasterises a scene onto map tiles as a PNG.
package staticmap

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sort"
	"strings"

	sm "github.com/flopp/go-staticmaps"
	"github.com/fogleman/gg"
	"github.com/golang/geo/s2"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 768
	MaxDimension  = 2048

	riskMarkerPx = 2.5
	pinSizePx    = 18
	badgePxScale = 0.8
)

// Options configures a Renderer.
type Options struct {
	Width  int
	Height int
	// TileProvider names one of go-staticmaps' providers, e.g. "osm" or "carto-light".
	TileProvider string
	// Provider overrides TileProvider when set.
	Provider *sm.TileProvider
}

// Renderer draws scenes on top of slippy-map tiles.
type Renderer struct {
	width    int
	height   int
	provider *sm.TileProvider
}

// New validates opts and resolves the tile provider.
func New(opts Options) (*Renderer, error) {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("staticmap: size %dx%d exceeds %d", w, h, MaxDimension)
	}

	provider := opts.Provider
	if provider == nil {
		name := opts.TileProvider
		if name == "" {
			name = "osm"
		}
		p, ok := sm.GetTileProviders()[name]
		if !ok {
			return nil, fmt.Errorf("staticmap: unknown tile provider %q (known: %s)", name, strings.Join(ProviderNames(), ", "))
		}
		provider = p
	}
	return &Renderer{width: w, height: h, provider: provider}, nil
}

// ProviderNames lists the built-in tile providers.
func ProviderNames() []string {
	var names []string
	for name := range sm.GetTileProviders() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithSize returns a copy of r rendering at w x h.
func (r *Renderer) WithSize(w, h int) (*Renderer, error) {
	return New(Options{Width: w, Height: h, Provider: r.provider})
}

// Render draws bands, visible risk markers, cluster badges and the
// selection pin over the scene's viewport.
func (r *Renderer) Render(scene domain.Scene) (image.Image, error) {
	ctx := sm.NewContext()
	ctx.SetSize(r.width, r.height)
	ctx.SetTileProvider(r.provider)
	ctx.SetCenter(latLng(scene.Map.Viewport.Center))
	ctx.SetZoom(scene.Map.Viewport.Zoom)

	circles := scene.Map.Circles
	for i := len(circles) - 1; i >= 0; i-- {
		b := circles[i]
		stroke := withAlpha(parseColor(b.Style.StrokeColor), b.Style.StrokeOpacity)
		fill := withAlpha(parseColor(b.Style.FillColor), b.Style.FillOpacity)
		ctx.AddObject(sm.NewCircle(latLng(b.Center), stroke, fill, b.RadiusMeters, b.Style.StrokeWeight))
	}

	for _, m := range scene.Map.Markers {
		if !m.Visible {
			continue
		}
		col := withAlpha(parseColor(m.Style.FillColor), m.Style.FillOpacity)
		ctx.AddObject(sm.NewMarker(latLng(m.Position), col, riskMarkerPx*m.Style.Scale))
	}

	if sel := scene.Map.Selection; sel != nil {
		ctx.AddObject(sm.NewMarker(latLng(sel.Position), color.RGBA{0xea, 0x43, 0x35, 0xff}, pinSizePx))
	}

	img, tr, err := ctx.RenderWithTransformer()
	if err != nil {
		return nil, fmt.Errorf("staticmap: render: %w", err)
	}

	if len(scene.Map.Badges) == 0 {
		return img, nil
	}
	return drawBadges(img, scene.Map.Badges, tr.LatLngToXY), nil
}

// WritePNG renders scene and encodes it to w.
func (r *Renderer) WritePNG(w io.Writer, scene domain.Scene) error {
	img, err := r.Render(scene)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(w)
}

// drawBadges paints badges lowest z-index first, so larger clusters end on top.
func drawBadges(img image.Image, badges []domain.ClusterBadge, project func(s2.LatLng) (float64, float64)) image.Image {
	sorted := append([]domain.ClusterBadge(nil), badges...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZIndex < sorted[j].ZIndex })

	dc := gg.NewContextForImage(img)
	for _, b := range sorted {
		x, y := project(latLng(b.Position))
		radius := b.Scale * badgePxScale

		dc.DrawCircle(x, y, radius)
		dc.SetColor(withAlpha(parseColor(b.FillColor), b.FillOpacity))
		dc.FillPreserve()
		dc.SetColor(parseColor(b.StrokeColor))
		dc.SetLineWidth(b.StrokeWeight)
		dc.Stroke()

		dc.SetColor(parseColor(b.Label.Color))
		dc.DrawStringAnchored(b.Label.Text, x, y, 0.5, 0.5)
	}
	return dc.Image()
}

func latLng(c domain.Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// parseColor accepts "#RRGGBB" and the basic colour names; anything else is black.
func parseColor(s string) color.Color {
	c, err := sm.ParseColorString(s)
	if err != nil {
		return color.Black
	}
	return c
}

func withAlpha(c color.Color, opacity float64) color.NRGBA {
	opacity = max(0, min(1, opacity))
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(opacity * 255)}
}
