package scene

import (
	"fmt"

	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/resolver"
)

// AttachOptions tune Attach.
type AttachOptions struct {
	// OtherSlot restricts the candidate junctions of the attached object to
	// one slot. It wraps modulo the junction count.
	OtherSlot *int
	// HostSlot restricts the host side to one slot.
	HostSlot *int
	// NoFrame suppresses camera framing.
	NoFrame bool
}

// Slot is a helper for building AttachOptions.
func Slot(i int) *int { return &i }

// Attach connects other to a free point junction of host and moves other so
// the two junctions coincide, facing each other. Host slots are scanned in
// catalog order, other's slots inside that loop; the first pair with equal
// groups wins. It returns the shared group.
func (s *Session) Attach(host, other ObjectID, opts AttachOptions) (string, error) {
	h, o, err := s.pair(host, other)
	if err != nil {
		return "", err
	}
	if o.attached() {
		return "", fmt.Errorf("%w: %s", ErrAlreadyAttached, o.Code())
	}

	otherCandidates := o.freeJunctions()
	if opts.OtherSlot != nil {
		n := len(o.junctions)
		if n == 0 {
			return "", fmt.Errorf("%w: %s has no junctions", ErrNoCompatibleJunction, o.Code())
		}
		slot := ((*opts.OtherSlot % n) + n) % n
		if o.junctions[slot] != "" {
			return "", fmt.Errorf("%w: %s slot %d", ErrSlotOccupied, o.Code(), slot)
		}
		otherCandidates = []int{slot}
	}

	hostCandidates := h.freeJunctions()
	if opts.HostSlot != nil {
		slot := *opts.HostSlot
		if slot < 0 || slot >= len(h.junctions) {
			return "", fmt.Errorf("%w: %s has no slot %d", ErrNoCompatibleJunction, h.Code(), slot)
		}
		if h.junctions[slot] != "" {
			return "", fmt.Errorf("%w: %s slot %d", ErrSlotOccupied, h.Code(), slot)
		}
		hostCandidates = []int{slot}
	}

	if !resolver.FamiliesConnect(h.entry, o.entry) {
		return "", fmt.Errorf("%w: %s and %s: %s", ErrNoCompatibleJunction, h.Code(), o.Code(), resolver.ReasonFamilies)
	}

	hi, oi := -1, -1
search:
	for _, hc := range hostCandidates {
		for _, oc := range otherCandidates {
			if h.entry.Juncts[hc].Group == o.entry.Juncts[oc].Group {
				hi, oi = hc, oc
				break search
			}
		}
	}
	if hi < 0 {
		return "", fmt.Errorf("%w: %s and %s", ErrNoCompatibleJunction, h.Code(), o.Code())
	}

	h.junctions[hi] = o.ID
	o.junctions[oi] = h.ID
	mate(h, hi, o, oi)

	if !opts.NoFrame && h.Occupied() <= 1 {
		s.Frame(o.ID)
	}
	return h.entry.Juncts[hi].Group, nil
}

// mate turns o about Y so junction oi faces junction hi of h, then
// translates o so the two junction points coincide.
func mate(h *Object, hi int, o *Object, oi int) {
	j1 := h.entry.Juncts[hi]
	j2 := o.entry.Juncts[oi]
	target := h.tr.Apply(j1.Offset)

	rotate := geom.Canon(j2.Angle+o.angle+180) - geom.Canon(j1.Angle+h.angle)
	o.tr.RotateY(geom.Rad(rotate))
	o.angle = geom.Canon(o.angle - rotate)

	o.tr.Translate(target.Sub(o.tr.Apply(j2.Offset)))
}

func (s *Session) pair(host, other ObjectID) (*Object, *Object, error) {
	if host == other {
		return nil, nil, fmt.Errorf("%w: %s", ErrSelfAttach, host.Short())
	}
	h, err := s.placed(host)
	if err != nil {
		return nil, nil, err
	}
	o, err := s.placed(other)
	if err != nil {
		return nil, nil, err
	}
	return h, o, nil
}

// Detach removes every point and curve connection between a and b in both
// directions. Detaching objects that are not connected is a no-op.
func (s *Session) Detach(a, b ObjectID) error {
	oa, err := s.get(a)
	if err != nil {
		return err
	}
	ob, err := s.get(b)
	if err != nil {
		return err
	}
	detach(oa, ob)
	return nil
}

func detach(a, b *Object) {
	for i, id := range a.junctions {
		if id == b.ID {
			a.junctions[i] = ""
		}
	}
	for i, id := range b.junctions {
		if id == a.ID {
			b.junctions[i] = ""
		}
	}
	for c := range a.lineJunctions {
		a.lineJunctions[c] = removeID(a.lineJunctions[c], b.ID)
	}
	for c := range b.lineJunctions {
		b.lineJunctions[c] = removeID(b.lineJunctions[c], a.ID)
	}
}

// DetachAll detaches id from every neighbour.
func (s *Session) DetachAll(id ObjectID) error {
	o, err := s.get(id)
	if err != nil {
		return err
	}
	s.detachAll(o)
	return nil
}

func (s *Session) detachAll(o *Object) {
	for _, n := range s.neighbours(o) {
		detach(o, n)
	}
}

// neighbours returns every object o is connected to, from either side.
func (s *Session) neighbours(o *Object) []*Object {
	seen := make(map[ObjectID]bool)
	var out []*Object
	visit := func(id ObjectID) {
		if id == "" || id == o.ID || seen[id] {
			return
		}
		seen[id] = true
		if n, ok := s.objects[id]; ok {
			out = append(out, n)
		}
	}
	for _, id := range o.junctions {
		visit(id)
	}
	for _, occ := range o.lineJunctions {
		for _, id := range occ {
			visit(id)
		}
	}
	for _, id := range s.order {
		n := s.objects[id]
		if n == o || seen[id] {
			continue
		}
		for _, x := range n.junctions {
			if x == o.ID {
				visit(id)
			}
		}
		if onCurve(n, o.ID) >= 0 {
			visit(id)
		}
	}
	return out
}

// Rotate moves an object that hangs off exactly one point junction to its
// next junction slot, keeping the host junction. The camera does not move.
// On failure the previous attachment is restored.
func (s *Session) Rotate(id ObjectID) error {
	o, err := s.placed(id)
	if err != nil {
		return err
	}
	if o.Occupied() != 1 {
		return fmt.Errorf("%w: %s has %d connections", ErrNotSingleConnection, o.Code(), o.Occupied())
	}

	slot := -1
	for i, x := range o.junctions {
		if x != "" {
			slot = i
			break
		}
	}
	host, err := s.placed(o.junctions[slot])
	if err != nil {
		return err
	}
	hostSlot := -1
	for i, x := range host.junctions {
		if x == o.ID {
			hostSlot = i
			break
		}
	}
	if hostSlot < 0 {
		return fmt.Errorf("%w: %s", ErrOnCurve, o.Code())
	}

	restore := s.checkpoint()
	detach(host, o)
	next := (slot + 1) % len(o.junctions)
	if _, err := s.Attach(host.ID, o.ID, AttachOptions{OtherSlot: &next, HostSlot: &hostSlot, NoFrame: true}); err != nil {
		restore()
		return fmt.Errorf("scene: rotate %s: %w", o.Code(), err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

// ReferenceKind distinguishes point and curve attachment targets.
type ReferenceKind int

const (
	RefPoint ReferenceKind = iota
	RefCurve
)

func (k ReferenceKind) String() string {
	if k == RefCurve {
		return "curve"
	}
	return "point"
}

// Reference is a recorded attachment target: a host point junction paired
// with a child slot, or a position on a host curve.
type Reference struct {
	Kind      ReferenceKind `json:"kind"`
	Host      ObjectID      `json:"host"`
	HostSlot  int           `json:"hostSlot"`
	ChildSlot int           `json:"childSlot"`
	Curve     int           `json:"curve"`
	Point     geom.Vec      `json:"point"`
}

// Apply attaches child at ref and returns the shared group.
func (s *Session) Apply(ref Reference, child ObjectID) (string, error) {
	switch ref.Kind {
	case RefCurve:
		return s.AttachLine(ref.Host, child, ref.Point, LineOptions{Curve: ref.Curve})
	default:
		return s.Attach(ref.Host, child, AttachOptions{
			OtherSlot: Slot(ref.ChildSlot),
			HostSlot:  Slot(ref.HostSlot),
		})
	}
}
