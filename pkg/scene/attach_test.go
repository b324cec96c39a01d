package scene

import (
	"testing"

	"github.com/chazu/luxframe/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMated checks the two junctions coincide, face each other and hold
// each other.
func assertMated(t *testing.T, s *Session, host ObjectID, hi int, other ObjectID, oi int) {
	t.Helper()
	h, o := obj(t, s, host), obj(t, s, other)
	assertNear(t, h.JunctionWorld(hi), o.JunctionWorld(oi), "junction points")
	assert.InDelta(t, 180, geom.AngleDiff(h.JunctionAngle(hi), o.JunctionAngle(oi)), tol, "junction angles")
	assert.Equal(t, other, h.Junctions()[hi])
	assert.Equal(t, host, o.Junctions()[oi])
}

func TestAttachScenarioP1P2(t *testing.T) {
	s := newTestSession(t)
	p1 := add(t, s, "P1")
	p2 := add(t, s, "P2")

	group, err := s.Attach(p1, p2, AttachOptions{})
	require.NoError(t, err)
	assert.Equal(t, "A", group)
	assertMated(t, s, p1, 0, p2, 0)

	o := obj(t, s, p2)
	assertNear(t, geom.V(0, 0, 0), o.JunctionWorld(0))
	assertNear(t, geom.V(1, 0, 0), o.JunctionWorld(1))
	assert.Equal(t, []int{1}, o.freeJunctions(), "group B junction stays available")
	assert.Equal(t, StateAttached, o.State())
}

func TestAttachRotatesAndTranslates(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "XNP100")
	b := add(t, s, "XNP100")
	c := add(t, s, "XNP100")

	_, err := s.Attach(a, b, AttachOptions{})
	require.NoError(t, err)
	assertMated(t, s, a, 0, b, 0)
	ob := obj(t, s, b)
	assert.InDelta(t, 180, ob.Angle(), tol)
	assertNear(t, geom.V(-1, 0, 0), ob.JunctionWorld(1), "b extends away from a")

	// Chain onto the rotated profile.
	_, err = s.Attach(b, c, AttachOptions{})
	require.NoError(t, err)
	assertMated(t, s, b, 1, c, 0)
	assertNear(t, geom.V(-2, 0, 0), obj(t, s, c).JunctionWorld(1))
	assert.Empty(t, s.Validate())
}

func TestAttachExplicitSlot(t *testing.T) {
	tests := []struct {
		name string
		slot int
		want int
	}{
		{"first", 0, 0},
		{"second", 1, 1},
		{"wraps", 3, 1},
		{"negative wraps", -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			a := add(t, s, "XNP100")
			b := add(t, s, "XNP100")
			_, err := s.Attach(a, b, AttachOptions{OtherSlot: Slot(tt.slot)})
			require.NoError(t, err)
			assertMated(t, s, a, 0, b, tt.want)
		})
	}
}

func TestAttachCurvedChain(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "XNP090C")
	b := add(t, s, "XNP100")

	_, err := s.Attach(a, b, AttachOptions{HostSlot: Slot(1)})
	require.NoError(t, err)
	assertMated(t, s, a, 1, b, 0)
	// The curve ends heading +Z, so the straight piece continues along +Z.
	assertNear(t, geom.V(1, 0, 2), obj(t, s, b).JunctionWorld(1))
}

func TestAttachRejections(t *testing.T) {
	s := newTestSession(t)
	p1 := add(t, s, "P1")
	p2 := add(t, s, "P2")
	p3 := add(t, s, "P3")
	extra := add(t, s, "P2")
	_, err := s.Attach(p1, p2, AttachOptions{})
	require.NoError(t, err)

	before := s.Snapshot()

	_, err = s.Attach(p3, p2, AttachOptions{})
	assert.ErrorIs(t, err, ErrAlreadyAttached, "other already attached")

	_, err = s.Attach(p1, extra, AttachOptions{HostSlot: Slot(0)})
	assert.ErrorIs(t, err, ErrSlotOccupied, "host slot occupied")

	_, err = s.Attach(p1, extra, AttachOptions{})
	assert.ErrorIs(t, err, ErrNoCompatibleJunction, "host has no free junction")
	assert.Equal(t, FailureIncompatible, Classify(err))

	_, err = s.Attach(p3, p1, AttachOptions{})
	assert.ErrorIs(t, err, ErrAlreadyAttached, "host side is attached as a child")

	_, err = s.Attach(p2, p2, AttachOptions{})
	assert.ErrorIs(t, err, ErrSelfAttach)

	_, err = s.Attach(p1, "missing", AttachOptions{})
	assert.ErrorIs(t, err, ErrUnknownObject)

	assert.Equal(t, before, s.Snapshot(), "rejections leave state unchanged")
}

func TestAttachIncompatibleGroups(t *testing.T) {
	s := newTestSession(t)
	p1 := add(t, s, "P1")
	p3 := add(t, s, "P3")
	_, err := s.Attach(p1, p3, AttachOptions{})
	assert.ErrorIs(t, err, ErrNoCompatibleJunction)
	assert.Equal(t, StateFree, obj(t, s, p3).State())
}

func TestAttachIncompatibleFamilies(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "PS10")
	b := add(t, s, "PS35")
	_, err := s.Attach(a, b, AttachOptions{})
	assert.ErrorIs(t, err, ErrNoCompatibleJunction)

	c := add(t, s, "PS10")
	_, err = s.Attach(a, c, AttachOptions{})
	assert.NoError(t, err)
}

func TestDetachIdempotent(t *testing.T) {
	s := newTestSession(t)
	p1 := add(t, s, "P1")
	p2 := add(t, s, "P2")
	_, err := s.Attach(p1, p2, AttachOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Detach(p1, p2))
	after := s.Snapshot()
	require.NoError(t, s.Detach(p1, p2))
	require.NoError(t, s.Detach(p2, p1))
	assert.Equal(t, after, s.Snapshot())
	assert.Equal(t, StateFree, obj(t, s, p1).State())
	assert.Equal(t, StateFree, obj(t, s, p2).State())

	assert.ErrorIs(t, s.Detach(p1, "missing"), ErrUnknownObject)
}

func TestDetachAll(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "XNP100")
	b := add(t, s, "XNP100")
	c := add(t, s, "XNP100")
	l := add(t, s, "XNRS01")
	_, err := s.Attach(a, b, AttachOptions{})
	require.NoError(t, err)
	_, err = s.Attach(a, c, AttachOptions{})
	require.NoError(t, err)
	_, err = s.AttachLine(a, l, geom.V(0.5, 0, 0), LineOptions{})
	require.NoError(t, err)

	require.NoError(t, s.DetachAll(a))
	for _, id := range []ObjectID{a, b, c, l} {
		assert.Equal(t, StateFree, obj(t, s, id).State(), id)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "XNP100")
	b := add(t, s, "XNP100")

	_, err := s.Attach(a, b, AttachOptions{})
	require.NoError(t, err)
	first := obj(t, s, b).Transform()
	firstAngle := obj(t, s, b).Angle()

	require.NoError(t, s.Detach(a, b))
	_, err = s.Attach(a, b, AttachOptions{OtherSlot: Slot(0), HostSlot: Slot(0)})
	require.NoError(t, err)

	o := obj(t, s, b)
	assertNear(t, first.Position, o.Transform().Position)
	assertNear(t, first.Apply(geom.V(1, 0, 0)), o.Transform().Apply(geom.V(1, 0, 0)))
	assert.InDelta(t, firstAngle, o.Angle(), tol)
}

func TestRotateCyclesSlots(t *testing.T) {
	s := newTestSession(t)
	host := add(t, s, "XNP100")
	conn := add(t, s, "XNS01SRC")
	_, err := s.Attach(host, conn, AttachOptions{})
	require.NoError(t, err)
	shared := obj(t, s, host).JunctionWorld(0)

	for _, want := range []int{1, 2, 0, 1} {
		require.NoError(t, s.Rotate(conn))
		o := obj(t, s, conn)
		assert.Equal(t, host, o.Junctions()[want], "slot %d", want)
		assert.Equal(t, 1, o.Occupied())
		assertMated(t, s, host, 0, conn, want)
		assertNear(t, shared, o.JunctionWorld(want))
	}
	assert.Empty(t, s.Validate())
}

func TestRotatePreconditions(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "XNP100")
	b := add(t, s, "XNP100")
	c := add(t, s, "XNP100")
	l := add(t, s, "XNRS01")

	err := s.Rotate(a)
	assert.ErrorIs(t, err, ErrNotSingleConnection)

	_, err = s.Attach(a, b, AttachOptions{})
	require.NoError(t, err)
	_, err = s.Attach(b, c, AttachOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Rotate(b), ErrNotSingleConnection, "two connections")

	_, err = s.AttachLine(a, l, geom.V(0.5, 0, 0), LineOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Rotate(l), ErrOnCurve)
}

func TestRotateRestoresOnFailure(t *testing.T) {
	s := newTestSession(t)
	p1 := add(t, s, "P1")
	p2 := add(t, s, "P2")
	_, err := s.Attach(p1, p2, AttachOptions{})
	require.NoError(t, err)
	before := s.Snapshot()

	// The next slot of P2 is group B, which P1 does not offer.
	err = s.Rotate(p2)
	assert.ErrorIs(t, err, ErrNoCompatibleJunction)
	assert.Equal(t, before, s.Snapshot())
}

func TestApplyReference(t *testing.T) {
	s := newTestSession(t)
	a := add(t, s, "XNP100")
	b := add(t, s, "XNP100")
	l := add(t, s, "XNRS01")

	group, err := s.Apply(Reference{Kind: RefPoint, Host: a, HostSlot: 1, ChildSlot: 0}, b)
	require.NoError(t, err)
	assert.Equal(t, "XN", group)
	assertMated(t, s, a, 1, b, 0)

	group, err = s.Apply(Reference{Kind: RefCurve, Host: a, Curve: 0, Point: geom.V(0.25, 0, 0)}, l)
	require.NoError(t, err)
	assert.Equal(t, "XNL", group)
	assert.InDelta(t, 0.25, obj(t, s, l).CurvePosition(), 1e-9)
	assert.Equal(t, "curve", RefCurve.String())
}
