package handles_test

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"github.com/chazu/luxframe/pkg/assets"
	"github.com/chazu/luxframe/pkg/catalog/catalogtest"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/handles"
	"github.com/chazu/luxframe/pkg/resolver"
	"github.com/chazu/luxframe/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *scene.Session {
	t.Helper()
	zero := geom.Box{}
	return scene.New(catalogtest.New(t), assets.Static{Default: &zero},
		scene.WithLogger(log.New(io.Discard, "", 0)))
}

func add(t *testing.T, s *scene.Session, code string) scene.ObjectID {
	t.Helper()
	id, err := s.AddObject(context.Background(), code)
	require.NoError(t, err)
	return id
}

func near(t *testing.T, want, got geom.Vec) {
	t.Helper()
	if !geom.Near(want, got, 1e-6) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func down(x, z float64) geom.Ray {
	return geom.NewRay(geom.V(x, 5, z), geom.V(0, -1, 0))
}

func TestSelectObjectScenario(t *testing.T) {
	s := newSession(t)
	p1 := add(t, s, "P1")
	m := handles.New(s)
	m.SetVisible(true)

	require.NoError(t, m.SelectObject("P2"))
	hs := m.Handles()
	require.Len(t, hs, 1)
	h := hs[0]
	assert.Equal(t, handles.KindPoint, h.Kind)
	assert.True(t, h.Enabled)
	assert.Equal(t, p1, h.Host)
	assert.Equal(t, 0, h.Slot)
	assert.Equal(t, 0, h.ChildSlot)
	near(t, geom.V(0, 0, 0), h.Position)
	assert.Equal(t, handles.ColorEnabled, h.Color)

	p2 := add(t, s, "P2")
	require.NoError(t, m.SelectObject("P2"))
	_, ok := m.Hover(down(0, 0))
	require.True(t, ok)
	group, err := m.Click(p2)
	require.NoError(t, err)
	assert.Equal(t, "A", group)
	assert.Empty(t, m.Handles(), "handles are stale after an attach")

	// P2's free B junction is offered next; P1 is full.
	require.NoError(t, m.SelectObject("P3"))
	hs = m.Handles()
	require.Len(t, hs, 1)
	assert.Equal(t, p2, hs[0].Host)
	assert.Equal(t, 1, hs[0].Slot)
	assert.True(t, hs[0].Enabled)
	near(t, geom.V(1, 0, 0), hs[0].Position)
}

func TestDisabledHandleRejects(t *testing.T) {
	s := newSession(t)
	add(t, s, "P1")
	p3 := add(t, s, "P3")
	m := handles.New(s)
	m.SetVisible(true)

	require.NoError(t, m.SelectObject("P3"))
	var disabled []handles.Handle
	for _, h := range m.Handles() {
		if !h.Enabled {
			disabled = append(disabled, h)
		}
	}
	require.Len(t, disabled, 1)
	assert.Equal(t, resolver.ReasonNoGroup, disabled[0].Reason)
	assert.Equal(t, -1, disabled[0].ChildSlot)
	assert.Equal(t, handles.ColorDisabled, disabled[0].Color)

	before := s.Snapshot()
	_, ok := m.Hover(down(0, 0))
	require.True(t, ok)
	_, err := m.Click(p3)
	var rej *handles.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "P3", rej.Code)
	assert.Equal(t, "P1", rej.Host)
	assert.Contains(t, rej.Error(), resolver.ReasonNoGroup)
	assert.Equal(t, before, s.Snapshot())
}

func TestCurveHandles(t *testing.T) {
	s := newSession(t)
	host := add(t, s, "XNP100")
	m := handles.New(s)
	m.SetVisible(true)

	require.NoError(t, m.SelectObject("XNRS01"))
	var curves, points int
	for _, h := range m.Handles() {
		switch h.Kind {
		case handles.KindCurve:
			curves++
			assert.True(t, h.Enabled)
			assert.Len(t, h.Path, handles.CurveSegments+1)
			near(t, geom.V(0, 0, 0), h.Path[0])
			near(t, geom.V(1, 0, 0), h.Path[handles.CurveSegments])
		case handles.KindPoint:
			points++
			assert.False(t, h.Enabled, "lights do not fit the XN junctions")
		}
	}
	assert.Equal(t, 1, curves)
	assert.Equal(t, 2, points)

	hit, ok := m.Hover(down(0.5, 0))
	require.True(t, ok)
	near(t, geom.V(0.5, 0, 0), hit.Point)
	ref, err := m.Pick()
	require.NoError(t, err)
	assert.Equal(t, scene.RefCurve, ref.Kind)
	assert.Equal(t, host, ref.Host)

	light := add(t, s, "XNRS01")
	require.NoError(t, m.SelectObject("XNRS01"))
	_, ok = m.Hover(down(0.5, 0))
	require.True(t, ok)
	group, err := m.Click(light)
	require.NoError(t, err)
	assert.Equal(t, "XNL", group)
	o, _ := s.Object(light)
	assert.InDelta(t, 0.5, o.CurvePosition(), 1e-9)

	// An occupied curve still offers a handle.
	require.NoError(t, m.SelectObject("XNRS01"))
	var enabled int
	for _, h := range m.Handles() {
		if h.Kind == handles.KindCurve && h.Enabled {
			enabled++
		}
	}
	assert.Equal(t, 1, enabled)
}

func TestVerticalCurveDisabledForVetoedLight(t *testing.T) {
	s := newSession(t)
	add(t, s, "XNPV100")
	m := handles.New(s)

	require.NoError(t, m.SelectObject("XNRS14"))
	for _, h := range m.Handles() {
		if h.Kind == handles.KindCurve {
			assert.False(t, h.Enabled)
			assert.Equal(t, resolver.ReasonVertical, h.Reason)
		}
	}

	require.NoError(t, m.SelectObject("XNRS01"))
	for _, h := range m.Handles() {
		if h.Kind == handles.KindCurve {
			assert.True(t, h.Enabled)
		}
	}
}

func TestRotatingConnectorCue(t *testing.T) {
	s := newSession(t)
	add(t, s, "XNS01SRC")
	m := handles.New(s)
	m.SetVisible(true)

	require.NoError(t, m.SelectObject("XNP100"))
	hs := m.Handles()
	require.Len(t, hs, 3)
	arrows := m.Arrows()
	require.Len(t, arrows, 3)

	// Junction 0 faces 270 degrees; the cue points 30 degrees further.
	a := geom.Rad(300)
	dir := geom.V(-math.Sin(a), 0, math.Cos(a))
	near(t, dir, arrows[0].Dir)
	near(t, geom.V(0, 0, 0), arrows[0].Origin)
	near(t, dir, hs[0].Position)
	assert.Equal(t, handles.ArrowLength, arrows[0].Length)
	for _, h := range hs {
		assert.True(t, h.Rotating)
		assert.Equal(t, handles.RotatingScale, h.Scale)
		assert.Equal(t, handles.ColorEnabled, h.Color)
	}

	m.SetVisible(false)
	assert.Empty(t, m.Arrows())
}

func TestHoverNearest(t *testing.T) {
	s := newSession(t)
	add(t, s, "XNP100")
	m := handles.New(s)
	require.NoError(t, m.SelectObject("XNP100"))

	ray := geom.NewRay(geom.V(-5, 0, 0), geom.V(1, 0, 0))
	_, ok := m.Hover(ray)
	assert.False(t, ok, "hidden handles are not hit")

	m.SetVisible(true)
	hit, ok := m.Hover(ray)
	require.True(t, ok)
	h := m.Handles()[hit.Handle]
	assert.Equal(t, handles.KindPoint, h.Kind)
	assert.Equal(t, 0, h.Slot)
	assert.InDelta(t, 4.7, hit.Distance, 1e-9)
	assert.Equal(t, handles.ColorHover, h.Color)

	_, ok = m.Hover(geom.NewRay(geom.V(0, 5, 5), geom.V(0, 0, 1)))
	assert.False(t, ok)
	_, err := m.Pick()
	assert.ErrorIs(t, err, handles.ErrNoHover)
	assert.Equal(t, handles.ColorEnabled, m.Handles()[hit.Handle].Color)
}

func TestHideCurve(t *testing.T) {
	s := newSession(t)
	host := add(t, s, "XNP100")
	m := handles.New(s)
	m.SetVisible(true)
	require.NoError(t, m.SelectObject("XNRS01"))

	m.HideCurve(host, 0)
	_, ok := m.Hover(down(0.5, 0))
	assert.False(t, ok)
}

func TestSelectObjectSkipsUnplacedAndUnknown(t *testing.T) {
	s := newSession(t)
	_, err := s.Reserve("P1")
	require.NoError(t, err)
	m := handles.New(s)

	require.NoError(t, m.SelectObject("P2"))
	assert.Empty(t, m.Handles())
	assert.Equal(t, "P2", m.Selected())

	err = m.SelectObject("NOPE")
	assert.ErrorIs(t, err, scene.ErrUnknownCode)
	assert.Equal(t, "", m.Selected())

	m.Clear()
	assert.Empty(t, m.Handles())
}

func TestClickWrongChild(t *testing.T) {
	s := newSession(t)
	add(t, s, "P1")
	p3 := add(t, s, "P3")
	m := handles.New(s)
	m.SetVisible(true)
	require.NoError(t, m.SelectObject("P2"))
	_, ok := m.Hover(down(0, 0))
	require.True(t, ok)

	_, err := m.Click(p3)
	assert.Error(t, err)
	assert.NotEmpty(t, m.Handles())
}

func TestZoomScale(t *testing.T) {
	tests := []struct {
		zoom float64
		want float64
	}{
		{0, 1},
		{-3, 1},
		{5, 2},
		{10, 2},
		{55, 1.05},
		{100, 0.1},
		{500, 0.1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, handles.ZoomScale(tt.zoom), 1e-9, "zoom %v", tt.zoom)
	}
}

func TestTickIsPresentationOnly(t *testing.T) {
	s := newSession(t)
	add(t, s, "XNS01SRC")
	add(t, s, "XNP100")
	m := handles.New(s)
	m.SetVisible(true)
	require.NoError(t, m.SelectObject("XNP100"))
	before := s.Snapshot()

	m.Tick(0)
	for _, h := range m.Handles() {
		switch {
		case h.Kind == handles.KindCurve:
			assert.Equal(t, 1.0, h.Scale)
		case h.Rotating:
			assert.InDelta(t, handles.RotatingScale*(1+0.1*math.Sin(0.05)), h.Scale, 1e-12)
		default:
			assert.Equal(t, 1.0, h.Scale)
		}
	}

	m.Tick(10)
	for _, h := range m.Handles() {
		if h.Kind == handles.KindPoint && !h.Rotating {
			assert.Equal(t, 2.0, h.Scale)
		}
	}
	assert.Equal(t, before, s.Snapshot())
}
