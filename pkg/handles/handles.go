// Package handles builds the clickable attachment targets shown while the
// user is placing a part.
//
// A Manager is rebuilt with SelectObject every time a part is picked from
// the catalog. It scans every placed object in the session: free point
// junctions and every curve become handles, enabled when the resolver
// accepts the pair and disabled (with the rejection reason) otherwise.
// Hover, Pick and Click turn a pointer ray into an attachment; Tick
// animates presentation only and never touches the session.
//
// A Manager is not safe for concurrent use; callers serialize access the
// same way they serialize access to the session.
package handles

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/resolver"
	"github.com/chazu/luxframe/pkg/scene"
)

// Handle geometry and colors.
const (
	HandleRadius  = 0.3
	CurveRadius   = 0.1
	CurveSegments = 64

	ColorEnabled  uint32 = 0xFECA0A
	ColorDisabled uint32 = 0xFF0000
	ColorHover    uint32 = 0xE0B000
	ColorArrow    uint32 = 0x333333

	// RotatingScale is the base scale of handles on rotating connectors.
	RotatingScale = 1.2
	// ArrowLength is the length of the rotation cue arrow.
	ArrowLength = 3.0
	// arrowOffset is the angle, in degrees, between a junction and the
	// rotation cue drawn next to it.
	arrowOffset = 30.0
)

// ErrNoHover is returned by Pick and Click when the pointer is not over a
// handle.
var ErrNoHover = errors.New("handles: no handle under the pointer")

// Kind distinguishes point handles from curve handles.
type Kind int

const (
	KindPoint Kind = iota
	KindCurve
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindCurve:
		return "curve"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Handle is one attachment target.
type Handle struct {
	Kind Kind
	// Host is the placed object offering the target.
	Host scene.ObjectID
	// Slot is the host junction (KindPoint) or curve (KindCurve).
	Slot int
	// ChildSlot is the junction of the selected part that would be used,
	// or -1 when the handle is disabled.
	ChildSlot int
	Enabled   bool
	Reason    string

	// Position is the sphere centre of a point handle.
	Position geom.Vec
	// Path is the centre line of a curve handle, CurveSegments+1 points.
	Path []geom.Vec

	Color   uint32
	Scale   float64
	Visible bool
	// Rotating marks handles on rotating connectors, which pulse.
	Rotating bool
}

// Arrow is the rotation cue drawn next to a rotating connector handle.
type Arrow struct {
	Handle int
	Origin geom.Vec
	Dir    geom.Vec
	Length float64
	Color  uint32
}

// Hit is the result of a hover test.
type Hit struct {
	Handle   int
	Point    geom.Vec
	Distance float64
}

// RejectedError is returned when a disabled handle is picked.
type RejectedError struct {
	Code   string
	Host   string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s cannot attach to %s: %s", e.Code, e.Host, e.Reason)
}

// Manager owns the handles for the part being placed.
type Manager struct {
	session  *scene.Session
	selected *catalog.Entry

	handles []Handle
	arrows  []Arrow
	visible bool
	hover   *Hit

	time      float64
	zoomScale float64
}

// New returns a manager over the session with no handles.
func New(s *scene.Session) *Manager {
	return &Manager{session: s, zoomScale: 1}
}

// Selected returns the code being placed, or "".
func (m *Manager) Selected() string {
	if m.selected == nil {
		return ""
	}
	return m.selected.Code
}

// Handles returns the current handles.
func (m *Manager) Handles() []Handle {
	return append([]Handle(nil), m.handles...)
}

// Arrows returns the current rotation cues.
func (m *Manager) Arrows() []Arrow {
	return append([]Arrow(nil), m.arrows...)
}

// Visible reports whether handles are shown.
func (m *Manager) Visible() bool { return m.visible }

// Clear drops every handle and the current selection.
func (m *Manager) Clear() {
	m.handles = nil
	m.arrows = nil
	m.hover = nil
	m.selected = nil
	m.time = 0
}

// SelectObject rebuilds the handles for placing code.
func (m *Manager) SelectObject(code string) error {
	m.Clear()
	sel, ok := m.session.Catalog().Entry(code)
	if !ok {
		return fmt.Errorf("%w: %q", scene.ErrUnknownCode, code)
	}
	m.selected = sel

	for _, other := range m.session.Objects() {
		if !other.Placed() {
			continue
		}
		host := other.Entry()
		for i, occupant := range other.Junctions() {
			if occupant != "" {
				continue
			}
			v := resolver.PointVerdict(sel, host, i)
			m.addPoint(other, i, v)
		}
		for c := range host.LineJuncts {
			v := resolver.CurveVerdict(sel, host, c)
			m.addCurve(other, c, v)
		}
	}
	return nil
}

func (m *Manager) addPoint(other *scene.Object, slot int, v resolver.Verdict) {
	h := Handle{
		Kind:      KindPoint,
		Host:      other.ID,
		Slot:      slot,
		ChildSlot: v.Index,
		Enabled:   v.OK(),
		Reason:    v.Reason,
		Position:  other.JunctionWorld(slot),
		Color:     ColorDisabled,
		Scale:     1,
		Visible:   m.visible,
	}
	if !h.Enabled {
		m.handles = append(m.handles, h)
		return
	}
	h.Color = ColorEnabled
	if !catalog.IsRotatingConnector(other.Code()) {
		m.handles = append(m.handles, h)
		return
	}

	a := geom.Rad(other.JunctionAngle(slot) + arrowOffset)
	dir := geom.V(-math.Sin(a), 0, math.Cos(a))
	m.arrows = append(m.arrows, Arrow{
		Handle: len(m.handles),
		Origin: h.Position,
		Dir:    dir,
		Length: ArrowLength,
		Color:  ColorArrow,
	})
	h.Position = h.Position.Add(dir)
	h.Scale = RotatingScale
	h.Rotating = true
	m.handles = append(m.handles, h)
}

func (m *Manager) addCurve(other *scene.Object, c int, v resolver.Verdict) {
	color := ColorDisabled
	if v.OK() {
		color = ColorEnabled
	}
	m.handles = append(m.handles, Handle{
		Kind:      KindCurve,
		Host:      other.ID,
		Slot:      c,
		ChildSlot: v.Index,
		Enabled:   v.OK(),
		Reason:    v.Reason,
		Path:      other.CurveWorld(c).SpacedPoints(CurveSegments),
		Color:     color,
		Scale:     1,
		Visible:   m.visible,
	})
}

// SetVisible shows or hides every handle. Hiding also drops the rotation
// cues; they come back with the next SelectObject.
func (m *Manager) SetVisible(visible bool) {
	m.visible = visible
	for i := range m.handles {
		m.handles[i].Visible = visible
	}
	if !visible {
		m.arrows = nil
		m.hover = nil
	}
}

// HideCurve hides the curve handle for curve c of id.
func (m *Manager) HideCurve(id scene.ObjectID, c int) {
	for i := range m.handles {
		h := &m.handles[i]
		if h.Kind == KindCurve && h.Host == id && h.Slot == c {
			h.Visible = false
			if m.hover != nil && m.hover.Handle == i {
				m.hover = nil
			}
		}
	}
}

// Pick converts the hovered handle into an attachment reference. Disabled
// handles yield a *RejectedError.
func (m *Manager) Pick() (scene.Reference, error) {
	if m.hover == nil {
		return scene.Reference{}, ErrNoHover
	}
	h := m.handles[m.hover.Handle]
	if !h.Enabled {
		host := h.Host.Short()
		if o, ok := m.session.Object(h.Host); ok {
			host = o.Code()
		}
		return scene.Reference{}, &RejectedError{Code: m.Selected(), Host: host, Reason: h.Reason}
	}
	if h.Kind == KindCurve {
		return scene.Reference{
			Kind:      scene.RefCurve,
			Host:      h.Host,
			Curve:     h.Slot,
			ChildSlot: h.ChildSlot,
			Point:     m.hover.Point,
		}, nil
	}
	return scene.Reference{
		Kind:      scene.RefPoint,
		Host:      h.Host,
		HostSlot:  h.Slot,
		ChildSlot: h.ChildSlot,
	}, nil
}

// Click attaches child at the hovered handle and returns the shared group.
// The handles describe the scene before the attachment, so they are
// cleared on success.
func (m *Manager) Click(child scene.ObjectID) (string, error) {
	ref, err := m.Pick()
	if err != nil {
		return "", err
	}
	if o, ok := m.session.Object(child); ok && m.selected != nil && o.Code() != m.selected.Code {
		return "", fmt.Errorf("handles: %s is not the selected part %s", o.Code(), m.selected.Code)
	}
	group, err := m.session.Apply(ref, child)
	if err != nil {
		return "", err
	}
	m.Clear()
	return group, nil
}
