package usecases_test

import (
	"testing"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

func TestRenderBadge(t *testing.T) {
	pos := domain.Coordinate{Lat: 1, Lng: 2}
	tests := []struct {
		count int
		color string
		scale float64
	}{
		{2, usecases.BadgeLowColor, 18},
		{5, usecases.BadgeLowColor, 21},
		{10, usecases.BadgeLowColor, 26},
		{11, usecases.BadgeHighColor, 27},
		{14, usecases.BadgeHighColor, 30},
		{15, usecases.BadgeHighColor, 30},
		{200, usecases.BadgeHighColor, 30},
	}
	for _, tt := range tests {
		b := usecases.RenderBadge(tt.count, pos)
		if b.FillColor != tt.color {
			t.Errorf("count %d: color %s, want %s", tt.count, b.FillColor, tt.color)
		}
		if b.Scale != tt.scale {
			t.Errorf("count %d: scale %v, want %v", tt.count, b.Scale, tt.scale)
		}
		if b.ZIndex != usecases.MaxZIndex+tt.count {
			t.Errorf("count %d: zIndex %d", tt.count, b.ZIndex)
		}
		if b.Position != pos || b.Count != tt.count {
			t.Errorf("count %d: got %+v", tt.count, b)
		}
	}
}

func TestRenderBadge_Label(t *testing.T) {
	b := usecases.RenderBadge(42, domain.Coordinate{})
	if b.Label.Text != "42" || b.Label.Color != "white" || b.Label.FontSize != "12px" || b.Label.FontWeight != "bold" {
		t.Errorf("unexpected label %+v", b.Label)
	}
	if b.FillOpacity != 0.9 || b.StrokeColor != "white" || b.StrokeWeight != 2 {
		t.Errorf("unexpected badge style %+v", b)
	}
}
