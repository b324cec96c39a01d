package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// Transform is a rigid placement with per-axis scale. The world matrix is
// Translate * Rotation * Scale, the same composition a scene graph node uses.
type Transform struct {
	Position Vec
	Scale    Vec
	rotation sdf.M44
}

// Identity returns a transform at the origin with no rotation and unit scale.
func Identity() Transform {
	return Transform{
		Scale:    V(1, 1, 1),
		rotation: sdf.Identity3d(),
	}
}

// At returns an identity transform translated to p.
func At(p Vec) Transform {
	t := Identity()
	t.Position = p
	return t
}

// Matrix returns the local-to-world matrix.
func (t Transform) Matrix() sdf.M44 {
	return sdf.Translate3d(t.Position).Mul(t.rotation).Mul(sdf.Scale3d(t.Scale))
}

// Rotation returns the rotation part of the transform.
func (t Transform) Rotation() sdf.M44 {
	return t.rotation
}

// Apply maps a local point to world space.
func (t Transform) Apply(p Vec) Vec {
	return t.Matrix().MulPosition(p)
}

// Direction rotates a local direction into world space. Scale and
// translation are ignored.
func (t Transform) Direction(d Vec) Vec {
	return t.rotation.MulPosition(d)
}

// RotateY rotates the transform about its own Y axis.
func (t *Transform) RotateY(rad float64) {
	t.rotation = t.rotation.Mul(sdf.RotateY(rad))
}

// SetEuler replaces the rotation with Euler angles (radians) applied in XYZ
// order, i.e. R = Rx * Ry * Rz.
func (t *Transform) SetEuler(x, y, z float64) {
	t.rotation = sdf.RotateX(x).Mul(sdf.RotateY(y)).Mul(sdf.RotateZ(z))
}

// ResetRotation clears the rotation.
func (t *Transform) ResetRotation() {
	t.rotation = sdf.Identity3d()
}

// Translate moves the transform by d in world space.
func (t *Transform) Translate(d Vec) {
	t.Position = t.Position.Add(d)
}

// Euler decomposes the rotation into XYZ Euler angles in radians. SetEuler
// of the result reproduces the rotation.
func (t Transform) Euler() Vec {
	cx := t.rotation.MulPosition(V(1, 0, 0))
	cy := t.rotation.MulPosition(V(0, 1, 0))
	cz := t.rotation.MulPosition(V(0, 0, 1))

	m11, m12, m13 := cx.X, cy.X, cz.X
	m22, m23 := cy.Y, cz.Y
	m32, m33 := cy.Z, cz.Z

	var e Vec
	e.Y = math.Asin(clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
		e.Z = 0
	}
	return e
}

// Yaw returns the heading of the local +X axis around world Y, in degrees.
func (t Transform) Yaw() float64 {
	x := t.Direction(V(1, 0, 0))
	return Canon(Deg(math.Atan2(-x.Z, x.X)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
