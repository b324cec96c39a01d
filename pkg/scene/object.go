package scene

import (
	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/kernel"
	"github.com/google/uuid"
)

// ObjectID identifies a placed object for the lifetime of a session.
type ObjectID string

// NewObjectID returns a fresh random ID.
func NewObjectID() ObjectID {
	return ObjectID(uuid.NewString())
}

// Short returns the first 8 characters of the ID for log messages.
func (id ObjectID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// State is the lifecycle stage of an object.
type State int

const (
	StateUnplaced State = iota // reserved, mesh not loaded yet
	StateFree                  // placed, no connections
	StateAttached              // placed with at least one connection
)

func (s State) String() string {
	switch s {
	case StateUnplaced:
		return "unplaced"
	case StateFree:
		return "free"
	case StateAttached:
		return "attached"
	default:
		return "unknown"
	}
}

// Object is one catalog part placed in the scene.
//
// junctions is parallel to entry.Juncts and holds the partner on each
// point junction ("" = free). lineJunctions is parallel to
// entry.LineJuncts and lists every object riding that curve, in attach
// order.
type Object struct {
	ID ObjectID

	entry  *catalog.Entry
	placed bool
	bounds geom.Box // local mesh bounds
	tr     geom.Transform
	angle  float64 // cumulative yaw bookkeeping, degrees in [0, 360)

	junctions     []ObjectID
	lineJunctions [][]ObjectID
	curvePosition float64

	extruded bool
	length   float64
	solid    kernel.Solid
}

func newObject(id ObjectID, e *catalog.Entry) *Object {
	return &Object{
		ID:            id,
		entry:         e,
		tr:            geom.Identity(),
		junctions:     make([]ObjectID, len(e.Juncts)),
		lineJunctions: make([][]ObjectID, len(e.LineJuncts)),
		curvePosition: 0.5,
	}
}

// Code returns the catalog code.
func (o *Object) Code() string { return o.entry.Code }

// Entry returns the catalog entry. Extruded objects carry their own copy
// with junctions sized to their length.
func (o *Object) Entry() *catalog.Entry { return o.entry }

// Placed reports whether the object has a mesh and transform.
func (o *Object) Placed() bool { return o.placed }

// Transform returns the object's world transform.
func (o *Object) Transform() geom.Transform { return o.tr }

// Angle returns the cumulative yaw bookkeeping angle in degrees.
func (o *Object) Angle() float64 { return o.angle }

// CurvePosition returns the normalized position along the parent curve.
func (o *Object) CurvePosition() float64 { return o.curvePosition }

// Extruded reports whether the object was generated at a custom length.
func (o *Object) Extruded() bool { return o.extruded }

// Length returns the generated length of an extruded object.
func (o *Object) Length() float64 { return o.length }

// Solid returns the kernel solid of an extruded object, or nil.
func (o *Object) Solid() kernel.Solid { return o.solid }

// Bounds returns the local mesh bounds.
func (o *Object) Bounds() geom.Box { return o.bounds }

// WorldBounds returns the axis-aligned world box of the mesh.
func (o *Object) WorldBounds() geom.Box { return o.bounds.Transform(o.tr) }

// Junctions returns a copy of the point junction occupants.
func (o *Object) Junctions() []ObjectID {
	return append([]ObjectID(nil), o.junctions...)
}

// LineJunctions returns a copy of the curve occupants.
func (o *Object) LineJunctions() [][]ObjectID {
	out := make([][]ObjectID, len(o.lineJunctions))
	for i, occ := range o.lineJunctions {
		out[i] = append([]ObjectID(nil), occ...)
	}
	return out
}

// State returns the lifecycle stage.
func (o *Object) State() State {
	switch {
	case !o.placed:
		return StateUnplaced
	case o.attached():
		return StateAttached
	default:
		return StateFree
	}
}

// Occupied returns the number of occupied point junctions.
func (o *Object) Occupied() int {
	n := 0
	for _, id := range o.junctions {
		if id != "" {
			n++
		}
	}
	return n
}

// JunctionWorld returns the world position of point junction i.
func (o *Object) JunctionWorld(i int) geom.Vec {
	return o.tr.Apply(o.entry.Juncts[i].Offset)
}

// JunctionAngle returns the world facing of point junction i in degrees.
// Two mated junctions differ by 180.
func (o *Object) JunctionAngle(i int) float64 {
	return geom.Canon(o.entry.Juncts[i].Angle + o.angle)
}

// CurveWorld returns curve c in world space.
func (o *Object) CurveWorld(c int) *geom.Bezier {
	lj := o.entry.LineJuncts[c]
	return geom.NewBezier(o.tr.Apply(lj.Point1), o.tr.Apply(lj.PointC), o.tr.Apply(lj.Point2))
}

// HasCurve reports whether the entry defines at least one curve.
func (o *Object) HasCurve() bool {
	return len(o.entry.LineJuncts) > 0
}

func (o *Object) attached() bool {
	if o.Occupied() > 0 {
		return true
	}
	for _, occ := range o.lineJunctions {
		if len(occ) > 0 {
			return true
		}
	}
	return false
}

func (o *Object) freeJunctions() []int {
	var free []int
	for i, id := range o.junctions {
		if id == "" {
			free = append(free, i)
		}
	}
	return free
}

// onCurve returns the curve index of host that lists o, or -1.
func onCurve(host *Object, id ObjectID) int {
	for c, occ := range host.lineJunctions {
		for _, other := range occ {
			if other == id {
				return c
			}
		}
	}
	return -1
}

func removeID(ids []ObjectID, id ObjectID) []ObjectID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// objectState is the mutable part of an object, captured for rollback.
type objectState struct {
	tr            geom.Transform
	angle         float64
	junctions     []ObjectID
	lineJunctions [][]ObjectID
	curvePosition float64
}

func (o *Object) save() objectState {
	return objectState{
		tr:            o.tr,
		angle:         o.angle,
		junctions:     o.Junctions(),
		lineJunctions: o.LineJunctions(),
		curvePosition: o.curvePosition,
	}
}

func (o *Object) load(st objectState) {
	o.tr = st.tr
	o.angle = st.angle
	o.junctions = st.junctions
	o.lineJunctions = st.lineJunctions
	o.curvePosition = st.curvePosition
}
