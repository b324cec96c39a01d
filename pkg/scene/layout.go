package scene

import (
	"fmt"

	"github.com/chazu/luxframe/pkg/geom"
)

// Configuration returns the connected component containing id, in session
// order.
func (s *Session) Configuration(id ObjectID) ([]ObjectID, error) {
	start, err := s.get(id)
	if err != nil {
		return nil, err
	}
	seen := map[ObjectID]bool{start.ID: true}
	queue := []*Object{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range s.neighbours(cur) {
			if !seen[n.ID] {
				seen[n.ID] = true
				queue = append(queue, n)
			}
		}
	}
	var out []ObjectID
	for _, oid := range s.order {
		if seen[oid] {
			out = append(out, oid)
		}
	}
	return out, nil
}

// MoveConfiguration translates every placed object in ids by delta.
func (s *Session) MoveConfiguration(ids []ObjectID, delta geom.Vec) error {
	objs, err := s.lookup(ids)
	if err != nil {
		return err
	}
	for _, o := range objs {
		if o.placed {
			o.tr.Translate(delta)
		}
	}
	return nil
}

// CenterConfiguration moves ids horizontally so their centre sits at the
// room origin. The centre is the barycentre of the curve end points of the
// profiles in the set, or the centre of all bounds when it has none.
func (s *Session) CenterConfiguration(ids []ObjectID) error {
	objs, err := s.lookup(ids)
	if err != nil {
		return err
	}
	center, ok := configurationCenter(objs)
	if !ok {
		return nil
	}
	offset := center.MulScalar(-1)
	offset.Y = 0
	for _, o := range objs {
		if o.placed {
			o.tr.Translate(offset)
		}
	}
	return nil
}

func configurationCenter(objs []*Object) (geom.Vec, bool) {
	var sum geom.Vec
	n := 0
	for _, o := range objs {
		if !o.placed || !o.HasCurve() {
			continue
		}
		lj := o.entry.LineJuncts[0]
		sum = sum.Add(o.tr.Apply(lj.Point1)).Add(o.tr.Apply(lj.Point2))
		n += 2
	}
	if n > 0 {
		return sum.MulScalar(1 / float64(n)), true
	}

	box := geom.Box{Min: geom.V(1, 1, 1), Max: geom.V(-1, -1, -1)}
	for _, o := range objs {
		if o.placed {
			box = box.Union(o.WorldBounds())
		}
	}
	if box.Empty() {
		return geom.Vec{}, false
	}
	return box.Center(), true
}

// MoveAll translates every placed object and records the offset so
// ResetPositions can undo it.
func (s *Session) MoveAll(delta geom.Vec) {
	s.offset = s.offset.Add(delta)
	for _, o := range s.objects {
		if o.placed {
			o.tr.Translate(delta)
		}
	}
}

// CenterAll centres the whole scene in the room.
func (s *Session) CenterAll() {
	_ = s.CenterConfiguration(s.order)
}

// ResetPositions returns every object to where it was first placed.
// Objects without a recorded origin lose the MoveAll offset instead.
func (s *Session) ResetPositions() {
	for id, o := range s.objects {
		if !o.placed {
			continue
		}
		if p, ok := s.origins[id]; ok {
			o.tr.Position = p
		} else {
			o.tr.Position = o.tr.Position.Sub(s.offset)
		}
	}
	s.offset = geom.Vec{}
}

func (s *Session) lookup(ids []ObjectID) ([]*Object, error) {
	out := make([]*Object, 0, len(ids))
	for _, id := range ids {
		o, ok := s.objects[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObject, id.Short())
		}
		out = append(out, o)
	}
	return out, nil
}
