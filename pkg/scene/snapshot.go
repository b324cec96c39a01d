package scene

import (
	"context"
	"fmt"

	"github.com/chazu/luxframe/pkg/geom"
)

// ObjectState is the serializable form of one object.
type ObjectState struct {
	ID            ObjectID     `json:"id"`
	Code          string       `json:"code"`
	Placed        bool         `json:"placed"`
	Position      geom.Vec     `json:"position"`
	Rotation      geom.Vec     `json:"rotation"` // XYZ Euler angles, radians
	Scale         geom.Vec     `json:"scale"`
	Angle         float64      `json:"angle"`
	Junctions     []ObjectID   `json:"junctions"`
	LineJunctions [][]ObjectID `json:"lineJunctions"`
	CurvePosition float64      `json:"curvePosition"`
	Extruded      bool         `json:"extruded,omitempty"`
	Length        float64      `json:"length,omitempty"`
	Bounds        *geom.Box    `json:"bounds,omitempty"`
	Origin        *geom.Vec    `json:"origin,omitempty"`
}

// Snapshot is the serializable state of a session.
type Snapshot struct {
	Objects []ObjectState `json:"objects"`
	Camera  Camera        `json:"camera"`
	Room    Room          `json:"room"`
	Offset  geom.Vec      `json:"offset"`
}

// Snapshot captures every object in insertion order.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{Camera: s.camera, Room: s.room, Offset: s.offset}
	for _, o := range s.Objects() {
		st := ObjectState{
			ID:            o.ID,
			Code:          o.Code(),
			Placed:        o.placed,
			Position:      o.tr.Position,
			Rotation:      o.tr.Euler(),
			Scale:         o.tr.Scale,
			Angle:         o.angle,
			Junctions:     o.Junctions(),
			LineJunctions: o.LineJunctions(),
			CurvePosition: o.curvePosition,
			Extruded:      o.extruded,
			Length:        o.length,
		}
		if o.placed {
			b := o.bounds
			st.Bounds = &b
		}
		if p, ok := s.origins[o.ID]; ok {
			st.Origin = &p
		}
		snap.Objects = append(snap.Objects, st)
	}
	return snap
}

// Restore replaces the session contents with a snapshot. Placed objects
// without stored bounds are reloaded through the asset loader. The session
// is left untouched when the snapshot is inconsistent.
func (s *Session) Restore(ctx context.Context, snap Snapshot) error {
	objects := make(map[ObjectID]*Object, len(snap.Objects))
	origins := make(map[ObjectID]geom.Vec)
	order := make([]ObjectID, 0, len(snap.Objects))

	for _, st := range snap.Objects {
		if _, dup := objects[st.ID]; dup || st.ID == "" {
			return fmt.Errorf("scene: restore: bad object id %q", st.ID)
		}
		o, err := s.restoreObject(ctx, st)
		if err != nil {
			return fmt.Errorf("scene: restore %s: %w", st.ID.Short(), err)
		}
		objects[o.ID] = o
		order = append(order, o.ID)
		if st.Origin != nil {
			origins[o.ID] = *st.Origin
		}
	}

	next := &Session{
		cat:     s.cat,
		objects: objects,
		order:   order,
	}
	for _, v := range next.Validate() {
		if v.Severity == SeverityError {
			return fmt.Errorf("scene: restore: %w", v)
		}
	}

	s.objects = objects
	s.order = order
	s.origins = origins
	s.camera = snap.Camera
	s.offset = snap.Offset
	if snap.Room != (Room{}) {
		s.room = snap.Room
	}
	return nil
}

func (s *Session) restoreObject(ctx context.Context, st ObjectState) (*Object, error) {
	e, ok := s.cat.Entry(st.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCode, st.Code)
	}
	if st.Extruded {
		ext, err := extrudedEntry(e, st.Length)
		if err != nil {
			return nil, err
		}
		e = ext
	}
	if len(st.Junctions) != len(e.Juncts) || len(st.LineJunctions) != len(e.LineJuncts) {
		return nil, fmt.Errorf("scene: occupancy of %s does not match the catalog", st.Code)
	}

	o := newObject(st.ID, e)
	o.placed = st.Placed
	o.angle = st.Angle
	o.curvePosition = st.CurvePosition
	o.junctions = append([]ObjectID(nil), st.Junctions...)
	for i, occ := range st.LineJunctions {
		o.lineJunctions[i] = append([]ObjectID(nil), occ...)
	}
	o.extruded = st.Extruded
	o.length = st.Length

	if !st.Placed {
		return o, nil
	}
	o.tr.Position = st.Position
	o.tr.Scale = st.Scale
	if o.tr.Scale == (geom.Vec{}) {
		o.tr.Scale = geom.V(1, 1, 1)
	}
	o.tr.SetEuler(st.Rotation.X, st.Rotation.Y, st.Rotation.Z)

	switch {
	case st.Extruded:
		o.solid, o.bounds = s.extrude(st.Length)
	case st.Bounds != nil:
		o.bounds = *st.Bounds
	default:
		m, err := s.loader.Load(ctx, st.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoad, st.Code, err)
		}
		o.bounds = m.Bounds
	}
	return o, nil
}

// Clone returns an independent session with the same catalog, loader,
// kernel, logger and contents.
func (s *Session) Clone(ctx context.Context) (*Session, error) {
	c := New(s.cat, s.loader, WithKernel(s.kernel), WithLogger(s.logger), WithRoom(s.room))
	if err := c.Restore(ctx, s.Snapshot()); err != nil {
		return nil, err
	}
	return c, nil
}
