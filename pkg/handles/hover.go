package handles

import (
	"math"

	"github.com/chazu/luxframe/pkg/geom"
)

// Zoom range for orthographic cameras and the handle scale at each end.
const (
	minZoom  = 10.0
	maxZoom  = 100.0
	minScale = 0.1
	maxScale = 2.0

	pulseStep   = 0.05
	pulseAmount = 0.1
)

// Hover tests ray against every visible handle, enabled or not, and
// remembers the nearest hit for Pick. Hidden managers never hit.
func (m *Manager) Hover(ray geom.Ray) (Hit, bool) {
	m.hover = nil
	if !m.visible {
		return Hit{}, false
	}

	var best Hit
	found := false
	for i, h := range m.handles {
		if !h.Visible {
			continue
		}
		d, ok := m.intersect(ray, h)
		if !ok || (found && d >= best.Distance) {
			continue
		}
		best = Hit{Handle: i, Point: ray.At(d), Distance: d}
		found = true
	}

	for i := range m.handles {
		h := &m.handles[i]
		if h.Kind == KindPoint && h.Enabled {
			h.Color = ColorEnabled
		}
	}
	if !found {
		return Hit{}, false
	}
	if h := &m.handles[best.Handle]; h.Kind == KindPoint && h.Enabled {
		h.Color = ColorHover
	}
	m.hover = &best
	return best, true
}

// Hovered returns the remembered hover hit.
func (m *Manager) Hovered() (Hit, bool) {
	if m.hover == nil {
		return Hit{}, false
	}
	return *m.hover, true
}

func (m *Manager) intersect(ray geom.Ray, h Handle) (float64, bool) {
	if h.Kind == KindPoint {
		return ray.IntersectSphere(h.Position, HandleRadius*h.Scale)
	}
	best, found := 0.0, false
	for i := 1; i < len(h.Path); i++ {
		d, ok := ray.IntersectCapsule(h.Path[i-1], h.Path[i], CurveRadius)
		if ok && (!found || d < best) {
			best, found = d, true
		}
	}
	return best, found
}

// ZoomScale maps an orthographic camera zoom to a handle scale: large at
// low zoom, small when zoomed in. A zoom of zero or less means a
// perspective camera and yields 1.
func ZoomScale(zoom float64) float64 {
	if zoom <= 0 {
		return 1
	}
	z := math.Max(minZoom, math.Min(maxZoom, zoom))
	return (minScale*(minZoom-z) + maxScale*(z-maxZoom)) / (minZoom - maxZoom)
}

// Tick advances the presentation by one frame. Point handles follow the
// camera zoom; rotating connector handles also pulse while visible.
func (m *Manager) Tick(zoom float64) {
	m.zoomScale = ZoomScale(zoom)
	if m.visible {
		m.time += pulseStep
	}
	pulse := 1 + pulseAmount*math.Sin(m.time)
	for i := range m.handles {
		h := &m.handles[i]
		switch {
		case h.Kind != KindPoint:
		case h.Rotating:
			h.Scale = RotatingScale * m.zoomScale * pulse
		default:
			h.Scale = m.zoomScale
		}
	}
}
