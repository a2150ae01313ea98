package scene

import (
	"strconv"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

type marker struct {
	r       *Renderer
	key     int
	pos     domain.Coordinate
	style   domain.MarkerStyle
	visible bool
}

func (m *marker) ID() string                  { return "m-" + strconv.Itoa(m.key) }
func (m *marker) Position() domain.Coordinate { return m.pos }

func (m *marker) SetVisible(v bool) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.visible = v
}

func (m *marker) Remove() {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	delete(m.r.markers, m.key)
}

func (m *marker) viewLocked() domain.MarkerView {
	return domain.MarkerView{ID: m.ID(), Position: m.pos, Style: m.style, Visible: m.visible}
}

type circle struct {
	r    *Renderer
	key  int
	band domain.RadiusBand
}

func (c *circle) Remove() {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	delete(c.r.circles, c.key)
}

type badge struct {
	r     *Renderer
	key   int
	badge domain.ClusterBadge
}

func (b *badge) Remove() {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()
	delete(b.r.badges, b.key)
}
