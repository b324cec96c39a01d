package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/resolver"
)

// Curve position windows. Attaching keeps clear of the ends by a wider
// margin than moving.
const (
	AttachMin = 0.02
	AttachMax = 0.98
	MoveMin   = 0.01
	MoveMax   = 0.99

	// CurveSamples is the number of arc-length divisions searched for the
	// point nearest to a target.
	CurveSamples = 200

	spacingTolerance = 1e-9
)

// LineOptions tune AttachLine.
type LineOptions struct {
	// Curve selects the host curve.
	Curve int
	// Force skips the already-attached precondition; the object is detached
	// from everything before it is mounted.
	Force bool
}

// AttachLine mounts other on curve opts.Curve of host at the sampled
// position nearest to target. Lights keep their minimum spacing from every
// light already on the curve, moving to the nearest feasible position when
// the requested one is too close. It returns the curve group.
func (s *Session) AttachLine(host, other ObjectID, target geom.Vec, opts LineOptions) (string, error) {
	h, o, err := s.pair(host, other)
	if err != nil {
		return "", err
	}
	if !opts.Force && o.attached() {
		return "", fmt.Errorf("%w: %s", ErrAlreadyAttached, o.Code())
	}
	c := opts.Curve
	if c < 0 || c >= len(h.entry.LineJuncts) {
		return "", fmt.Errorf("%w: %s has no curve %d", ErrNoCurve, h.Code(), c)
	}

	v := resolver.CurveVerdict(o.entry, h.entry, c)
	if !v.OK() {
		return "", fmt.Errorf("%w: %s on %s: %s", ErrNoCompatibleJunction, o.Code(), h.Code(), v.Reason)
	}
	group := h.entry.LineJuncts[c].Group
	slot := -1
	for i, j := range o.entry.Juncts {
		if j.Group == group && (opts.Force || o.junctions[i] == "") {
			slot = i
			break
		}
	}
	if slot < 0 {
		return "", fmt.Errorf("%w: %s has no free %s junction", ErrNoCompatibleJunction, o.Code(), group)
	}

	u, ok := h.CurveWorld(c).Nearest(target, CurveSamples, AttachMin, AttachMax)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInsufficientSpace, h.Code())
	}
	if o.entry.IsLight() {
		u, ok = nearestFeasible(u, o.entry.MinSpacing, s.spacedOn(h, c, o), AttachMin, AttachMax)
		if !ok {
			return "", fmt.Errorf("%w (%s on %s)", ErrInsufficientSpace, o.Code(), h.Code())
		}
	}

	if opts.Force {
		s.detachAll(o)
	}
	h.lineJunctions[c] = append(h.lineJunctions[c], o.ID)
	o.junctions[slot] = h.ID
	o.curvePosition = u
	mount(h, c, o, slot)

	s.Frame(o.ID)
	return group, nil
}

// mount orients o on curve c of h at o.curvePosition and translates it so
// junction slot lands on the curve. Only lights are turned.
func mount(h *Object, c int, o *Object, slot int) {
	curve := h.CurveWorld(c)
	p := curve.PointAt(o.curvePosition)
	j := o.entry.Juncts[slot]

	if o.entry.IsLight() {
		o.tr.ResetRotation()
		lj := h.entry.LineJuncts[c]
		dir := geom.Normalize(lj.Point2.Sub(lj.Point1))
		if geom.IsVertical(dir) {
			z := math.Pi / 2
			if dir.Y < 0 {
				z = -z
			}
			y := 3 * math.Pi / 2
			if math.Abs(dir.X) > 0.01 || math.Abs(dir.Z) > 0.01 {
				y += math.Atan2(dir.X, dir.Z)
			}
			o.tr.SetEuler(0, y, z)
		} else {
			tan := curve.TangentAt(o.curvePosition)
			yaw := math.Atan2(tan.X, tan.Z) + math.Pi/2
			if catalog.TurnsMountedLights(h.entry.Code) {
				yaw = math.Atan2(tan.X, tan.Z) + math.Pi
			}
			o.tr.SetEuler(0, yaw, 0)
		}
		o.tr.RotateY(geom.Rad(j.Angle))
	}

	o.tr.Translate(p.Sub(o.tr.Apply(j.Offset)))
}

// spaced is a light already on a curve.
type spaced struct {
	pos float64
	gap float64
}

// spacedOn lists the lights on curve c of h, other than self.
func (s *Session) spacedOn(h *Object, c int, self *Object) []spaced {
	var out []spaced
	for _, id := range h.lineJunctions[c] {
		n, ok := s.objects[id]
		if !ok || n == self || !n.entry.IsLight() {
			continue
		}
		out = append(out, spaced{pos: n.curvePosition, gap: n.entry.MinSpacing})
	}
	return out
}

func feasible(p, gap float64, others []spaced, lo, hi float64) bool {
	if p < lo-spacingTolerance || p > hi+spacingTolerance {
		return false
	}
	for _, n := range others {
		if math.Abs(p-n.pos) < math.Max(gap, n.gap)-spacingTolerance {
			return false
		}
	}
	return true
}

// nearestFeasible returns want when it keeps spacing; otherwise the feasible
// position in [lo, hi] nearest to want, preferring the larger one on ties.
// The feasible set is bounded by positions exactly one required gap away
// from a neighbour, so only those are candidates.
func nearestFeasible(want, gap float64, others []spaced, lo, hi float64) (float64, bool) {
	if feasible(want, gap, others, lo, hi) {
		return want, true
	}
	best, bestDist, found := 0.0, 0.0, false
	for _, n := range others {
		req := math.Max(gap, n.gap)
		for _, cand := range []float64{n.pos + req, n.pos - req} {
			if !feasible(cand, gap, others, lo, hi) {
				continue
			}
			d := math.Abs(cand - want)
			if !found || d < bestDist-spacingTolerance ||
				(math.Abs(d-bestDist) <= spacingTolerance && cand > best) {
				best, bestDist, found = cand, d, true
			}
		}
	}
	return best, found
}

// parentCurve walks o's occupied junctions to the partner listing o on one
// of its curves.
func (s *Session) parentCurve(o *Object) (host *Object, curve, slot int, ok bool) {
	for i, id := range o.junctions {
		if id == "" {
			continue
		}
		p, exists := s.objects[id]
		if !exists {
			continue
		}
		if c := onCurve(p, o.ID); c >= 0 {
			return p, c, i, true
		}
	}
	return nil, -1, -1, false
}

// MoveLight slides a mounted light along its parent curve. The position is
// clamped to [MoveMin, MoveMax] and moved to the nearest position that
// keeps spacing. It returns the curve group, or ErrNoParentCurve when the
// light is not on a curve.
func (s *Session) MoveLight(id ObjectID, position float64) (string, error) {
	o, err := s.placed(id)
	if err != nil {
		return "", err
	}
	if !o.entry.IsLight() {
		return "", fmt.Errorf("%w: %s", ErrNotLight, o.Code())
	}
	h, c, slot, ok := s.parentCurve(o)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoParentCurve, o.Code())
	}

	position = math.Max(MoveMin, math.Min(MoveMax, position))
	u, ok := nearestFeasible(position, o.entry.MinSpacing, s.spacedOn(h, c, o), MoveMin, MoveMax)
	if !ok {
		return "", fmt.Errorf("%w (%s on %s)", ErrInsufficientSpace, o.Code(), h.Code())
	}
	o.curvePosition = u
	mount(h, c, o, slot)
	return h.entry.LineJuncts[c].Group, nil
}

// RelocateLight is MoveLight with a fallback for lights that lost their
// curve: the light is mounted at the middle of the first other profile with
// a compatible curve, then moved.
func (s *Session) RelocateLight(id ObjectID, position float64) (string, error) {
	group, err := s.MoveLight(id, position)
	if err == nil || !errors.Is(err, ErrNoParentCurve) {
		return group, err
	}
	o := s.objects[id]
	s.logger.Printf("scene: light %s (%s) has no parent curve, relocating", o.Code(), id.Short())

	for _, pid := range s.order {
		p := s.objects[pid]
		if p == o || !p.placed || !p.HasCurve() {
			continue
		}
		for c, lj := range p.entry.LineJuncts {
			if resolver.CurveCompatible(o.entry, p.entry, c) < 0 {
				continue
			}
			restore := s.checkpoint()
			mid := p.tr.Apply(geom.Lerp(lj.Point1, lj.Point2, 0.5))
			if _, err := s.AttachLine(pid, id, mid, LineOptions{Curve: c, Force: true}); err != nil {
				restore()
				continue
			}
			group, err := s.MoveLight(id, position)
			if err != nil {
				restore()
				return "", err
			}
			return group, nil
		}
	}
	return "", fmt.Errorf("%w: no profile available for %s", ErrNoParentCurve, o.Code())
}

// Lights returns the lights in the session, in insertion order.
func (s *Session) Lights() []*Object {
	var out []*Object
	for _, id := range s.order {
		if o := s.objects[id]; o.entry.IsLight() {
			out = append(out, o)
		}
	}
	return out
}

// LightPositionValid reports whether a mounted light could sit at position
// on its current curve without violating spacing.
func (s *Session) LightPositionValid(id ObjectID, position float64) bool {
	o, ok := s.objects[id]
	if !ok || !o.entry.IsLight() {
		return false
	}
	h, c, _, ok := s.parentCurve(o)
	if !ok {
		return false
	}
	return feasible(position, o.entry.MinSpacing, s.spacedOn(h, c, o), MoveMin, MoveMax)
}

// NearestLightPosition returns the position MoveLight would settle on.
func (s *Session) NearestLightPosition(id ObjectID, position float64) (float64, error) {
	o, err := s.placed(id)
	if err != nil {
		return 0, err
	}
	if !o.entry.IsLight() {
		return 0, fmt.Errorf("%w: %s", ErrNotLight, o.Code())
	}
	h, c, _, ok := s.parentCurve(o)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoParentCurve, o.Code())
	}
	position = math.Max(MoveMin, math.Min(MoveMax, position))
	u, ok := nearestFeasible(position, o.entry.MinSpacing, s.spacedOn(h, c, o), MoveMin, MoveMax)
	if !ok {
		return 0, fmt.Errorf("%w (%s on %s)", ErrInsufficientSpace, o.Code(), h.Code())
	}
	return u, nil
}
