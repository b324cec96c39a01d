package geom

import "math"

// Ray is a half-line used for pointer picking. Dir is expected to be unit
// length.
type Ray struct {
	Origin Vec `json:"origin"`
	Dir    Vec `json:"dir"`
}

// NewRay builds a ray with a normalized direction.
func NewRay(origin, dir Vec) Ray {
	return Ray{Origin: origin, Dir: Normalize(dir)}
}

// At returns the point at distance d along the ray.
func (r Ray) At(d float64) Vec {
	return r.Origin.Add(r.Dir.MulScalar(d))
}

// IntersectSphere returns the distance to the first intersection with a
// sphere, or ok=false when the ray misses or the sphere is behind it.
func (r Ray) IntersectSphere(center Vec, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	s := math.Sqrt(disc)
	d := -b - s
	if d < 0 {
		d = -b + s
	}
	if d < 0 {
		return 0, false
	}
	return d, true
}

// IntersectCapsule tests the ray against the capsule of the given radius
// around segment a-b. The returned distance is the ray parameter of the
// closest approach, which is accurate enough for picking.
func (r Ray) IntersectCapsule(a, b Vec, radius float64) (float64, bool) {
	u := r.Dir
	v := b.Sub(a)
	w := r.Origin.Sub(a)

	uu := u.Dot(u)
	uv := u.Dot(v)
	vv := v.Dot(v)
	uw := u.Dot(w)
	vw := v.Dot(w)
	if vv == 0 {
		return r.IntersectSphere(a, radius)
	}

	var t float64
	if den := uu*vv - uv*uv; den < 1e-12 {
		t = vw / vv
	} else {
		t = (uu*vw - uv*uw) / den
	}
	t = clamp(t, 0, 1)
	s := v.MulScalar(t).Sub(w).Dot(u) / uu
	if s < 0 {
		return 0, false
	}
	if Dist(r.At(s), a.Add(v.MulScalar(t))) > radius {
		return 0, false
	}
	return s, true
}
