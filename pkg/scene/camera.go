package scene

import (
	"math"

	"github.com/chazu/luxframe/pkg/geom"
)

// CameraFOV is the vertical field of view in degrees.
const CameraFOV = 70

// Camera is where the viewport looks from and at.
type Camera struct {
	Position geom.Vec `json:"position"`
	Target   geom.Vec `json:"target"`
}

// Camera returns the current camera.
func (s *Session) Camera() Camera { return s.camera }

// Frame points the camera at an object so its bounding sphere fills the
// view. Only objects with a curve (profiles) are framed; it reports whether
// the camera moved.
func (s *Session) Frame(id ObjectID) bool {
	o, ok := s.objects[id]
	if !ok || !o.placed || !o.HasCurve() {
		return false
	}
	box := o.WorldBounds()
	c := box.Center()
	d := 1.1 * box.Radius() / math.Tan(geom.Rad(CameraFOV/2.0))
	s.camera = Camera{
		Position: geom.V(c.X, c.Y+d, c.Z+d),
		Target:   c,
	}
	return true
}

// MoveCamera places the camera at an offset from its current target.
func (s *Session) MoveCamera(offset geom.Vec) {
	s.camera.Position = s.camera.Target.Add(offset)
}
