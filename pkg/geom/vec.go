// Package geom holds the small amount of 3D math the assembly engine needs:
// vectors, rigid transforms, quadratic Bézier curves with arc-length
// parametrization, axis-aligned boxes and rays. Vectors and matrices come
// from sdfx so the same types flow into the geometry kernel.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a point or direction in scene units.
type Vec = v3.Vec

// V is shorthand for building a Vec.
func V(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Canon normalizes an angle in degrees to [0, 360).
func Canon(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return a
}

// Rad converts degrees to radians.
func Rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Dist returns the euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// Near reports whether a and b are within tol of each other.
func Near(a, b Vec, tol float64) bool {
	return Dist(a, b) <= tol
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b Vec, t float64) Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// Normalize returns v scaled to unit length, or the zero vector when v has
// no length.
func Normalize(v Vec) Vec {
	l := v.Length()
	if l == 0 {
		return Vec{}
	}
	return v.MulScalar(1 / l)
}

// AngleDiff returns the smallest absolute difference between two angles in
// degrees.
func AngleDiff(a, b float64) float64 {
	d := math.Abs(Canon(a) - Canon(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}
