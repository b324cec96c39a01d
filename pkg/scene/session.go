package scene

import (
	"context"
	"fmt"
	"log"

	"github.com/chazu/luxframe/pkg/assets"
	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/kernel"
	"github.com/chazu/luxframe/pkg/kernel/sdfx"
)

// RoomScale converts room dimensions in meters to scene units.
const RoomScale = 25

// Room is the virtual room the configuration is shown in, in meters.
type Room struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// DefaultRoom is a 3 m cube.
var DefaultRoom = Room{Width: 3, Height: 3, Depth: 3}

// Session is the arena of placed objects for one editing session.
type Session struct {
	cat    *catalog.Catalog
	loader assets.Loader
	kernel kernel.Kernel
	logger *log.Logger
	room   Room

	objects map[ObjectID]*Object
	order   []ObjectID
	camera  Camera

	// origins records where each object was first placed, for
	// ResetPositions. offset is the accumulated MoveAll delta.
	origins map[ObjectID]geom.Vec
	offset  geom.Vec
}

// Option configures a Session.
type Option func(*Session)

// WithKernel sets the geometry kernel used for extruded profiles.
func WithKernel(k kernel.Kernel) Option {
	return func(s *Session) { s.kernel = k }
}

// WithLogger sets the logger for recovered anomalies.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRoom sets the room dimensions.
func WithRoom(r Room) Option {
	return func(s *Session) { s.room = r }
}

// New creates an empty session over a catalog. loader supplies mesh bounds
// for AddObject.
func New(cat *catalog.Catalog, loader assets.Loader, opts ...Option) *Session {
	s := &Session{
		cat:     cat,
		loader:  loader,
		kernel:  sdfx.New(),
		logger:  log.Default(),
		room:    DefaultRoom,
		objects: make(map[ObjectID]*Object),
		origins: make(map[ObjectID]geom.Vec),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the session was built over.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Room returns the room dimensions.
func (s *Session) Room() Room { return s.room }

// SetRoom changes the room dimensions. Placed objects do not move.
func (s *Session) SetRoom(r Room) { s.room = r }

// Len returns the number of objects, placed or not.
func (s *Session) Len() int { return len(s.order) }

// Object returns the object with the given ID.
func (s *Session) Object(id ObjectID) (*Object, bool) {
	o, ok := s.objects[id]
	return o, ok
}

// Objects returns all objects in insertion order.
func (s *Session) Objects() []*Object {
	out := make([]*Object, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id])
	}
	return out
}

func (s *Session) get(id ObjectID) (*Object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, id.Short())
	}
	return o, nil
}

func (s *Session) placed(id ObjectID) (*Object, error) {
	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if !o.placed {
		return nil, fmt.Errorf("%w: %s (%s)", ErrMissingMesh, o.Code(), id.Short())
	}
	return o, nil
}

func (s *Session) add(o *Object) {
	s.objects[o.ID] = o
	s.order = append(s.order, o.ID)
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

// Reserve creates an unplaced object for code. Attachment operations on it
// fail with ErrMissingMesh until Load succeeds.
func (s *Session) Reserve(code string) (ObjectID, error) {
	e, ok := s.cat.Entry(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	o := newObject(NewObjectID(), e)
	s.add(o)
	return o.ID, nil
}

// Load fetches the mesh bounds of a reserved object and places it: centred
// on X and Z, hanging below Y=0. Vertical profiles are pushed to the back
// wall of the room.
func (s *Session) Load(ctx context.Context, id ObjectID) error {
	o, err := s.get(id)
	if err != nil {
		return err
	}
	if o.placed {
		return nil
	}
	m, err := s.loader.Load(ctx, o.Code())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoad, o.Code(), err)
	}

	o.bounds = m.Bounds
	o.tr = geom.Identity()
	c := m.Bounds.Center()
	o.tr.Position = geom.V(-c.X, -m.Bounds.Max.Y, -c.Z)
	if o.entry.Vertical {
		o.tr.Position.Z -= s.room.Depth / 2 * RoomScale
	}
	o.placed = true
	s.origins[id] = o.tr.Position
	s.Frame(id)
	return nil
}

// AddObject reserves and loads an object. When loading fails the
// reservation is discarded and the error returned.
func (s *Session) AddObject(ctx context.Context, code string) (ObjectID, error) {
	id, err := s.Reserve(code)
	if err != nil {
		return "", err
	}
	if err := s.Load(ctx, id); err != nil {
		s.discard(id)
		return "", err
	}
	return id, nil
}

// Extruded profile cross-section, in scene units.
const (
	extrudedHeight = 1.5
	extrudedDepth  = 0.5
)

// AddExtruded places a profile generated at a custom length. Its junctions
// are rebuilt at both ends of the extrusion and its curve runs along it.
func (s *Session) AddExtruded(code string, length float64) (ObjectID, error) {
	base, ok := s.cat.Entry(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	e, err := extrudedEntry(base, length)
	if err != nil {
		return "", err
	}

	o := newObject(NewObjectID(), e)
	o.solid, o.bounds = s.extrude(length)
	o.placed = true
	o.extruded = true
	o.length = length
	s.add(o)
	s.origins[o.ID] = o.tr.Position
	s.Frame(o.ID)
	return o.ID, nil
}

// extrude builds the profile solid: a box along +X centred on Z.
func (s *Session) extrude(length float64) (kernel.Solid, geom.Box) {
	solid := s.kernel.Translate(s.kernel.Box(length, extrudedHeight, extrudedDepth), 0, 0, -extrudedDepth/2)
	min, max := solid.BoundingBox()
	return solid, geom.Box{Min: geom.V(min[0], min[1], min[2]), Max: geom.V(max[0], max[1], max[2])}
}

func extrudedEntry(base *catalog.Entry, length float64) (*catalog.Entry, error) {
	if length <= 0 {
		return nil, fmt.Errorf("scene: extruded length must be positive, got %g", length)
	}
	if len(base.Juncts) == 0 || len(base.LineJuncts) == 0 {
		return nil, fmt.Errorf("%w: %s cannot be extruded", ErrNoCurve, base.Code)
	}
	e := *base
	v1, v2 := geom.V(0, 0, 0), geom.V(length, 0, 0)
	group := base.Juncts[0].Group
	e.Juncts = []catalog.Junction{
		{Offset: v1, Angle: 270, Group: group},
		{Offset: v2, Angle: 90, Group: group},
	}
	e.LineJuncts = []catalog.LineJunction{
		{Point1: v1, PointC: v2, Point2: v2, Group: base.LineJuncts[0].Group},
	}
	return &e, nil
}

// ---------------------------------------------------------------------------
// Removal
// ---------------------------------------------------------------------------

// Remove severs every connection of id on both sides and deletes it.
func (s *Session) Remove(id ObjectID) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.detachAll(s.objects[id])
	s.discard(id)
	if len(s.order) == 0 {
		s.offset = geom.Vec{}
	}
	return nil
}

func (s *Session) discard(id ObjectID) {
	delete(s.objects, id)
	delete(s.origins, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Reset removes every object.
func (s *Session) Reset() {
	s.objects = make(map[ObjectID]*Object)
	s.origins = make(map[ObjectID]geom.Vec)
	s.order = nil
	s.offset = geom.Vec{}
	s.camera = Camera{}
}

// Scale stretches an object along its length axis: Y for vertical
// profiles, X otherwise.
func (s *Session) Scale(id ObjectID, factor float64) error {
	o, err := s.placed(id)
	if err != nil {
		return err
	}
	if factor <= 0 {
		return fmt.Errorf("scene: scale factor must be positive, got %g", factor)
	}
	if o.entry.Vertical {
		o.tr.Scale.Y = factor
	} else {
		o.tr.Scale.X = factor
	}
	return nil
}

// checkpoint captures the mutable state of every object. The returned
// function restores it.
func (s *Session) checkpoint() func() {
	saved := make(map[ObjectID]objectState, len(s.objects))
	for id, o := range s.objects {
		saved[id] = o.save()
	}
	return func() {
		for id, st := range saved {
			if o, ok := s.objects[id]; ok {
				o.load(st)
			}
		}
	}
}
