package geom

import (
	"gonum.org/v1/gonum/floats"
)

// ArcDivisions is the number of chords used to approximate the arc length
// of a curve.
const ArcDivisions = 200

// Bezier is a quadratic Bézier curve from P0 to P2 with control point C.
// Positions along the curve are addressed either by the raw parameter t or
// by the normalized arc length u; both live in [0, 1].
type Bezier struct {
	P0, C, P2 Vec

	// arc[i] is the length of the polyline through Point(k/ArcDivisions)
	// for k <= i.
	arc []float64
}

// NewBezier builds a curve and its arc-length table.
func NewBezier(p0, c, p2 Vec) *Bezier {
	b := &Bezier{P0: p0, C: c, P2: p2}

	seg := make([]float64, ArcDivisions+1)
	prev := b.Point(0)
	for i := 1; i <= ArcDivisions; i++ {
		p := b.Point(float64(i) / ArcDivisions)
		seg[i] = Dist(p, prev)
		prev = p
	}
	b.arc = floats.CumSum(make([]float64, len(seg)), seg)
	return b
}

// Point evaluates the curve at parameter t.
func (b *Bezier) Point(t float64) Vec {
	k := 1 - t
	return b.P0.MulScalar(k * k).
		Add(b.C.MulScalar(2 * k * t)).
		Add(b.P2.MulScalar(t * t))
}

// Tangent returns the unit tangent at parameter t.
func (b *Bezier) Tangent(t float64) Vec {
	d := b.C.Sub(b.P0).MulScalar(2 * (1 - t)).
		Add(b.P2.Sub(b.C).MulScalar(2 * t))
	if d.Length() == 0 {
		d = b.P2.Sub(b.P0)
	}
	return Normalize(d)
}

// Length returns the approximate arc length.
func (b *Bezier) Length() float64 {
	return b.arc[len(b.arc)-1]
}

// UtoT maps a normalized arc length to the curve parameter.
func (b *Bezier) UtoT(u float64) float64 {
	n := len(b.arc)
	total := b.arc[n-1]
	if total == 0 {
		return u
	}
	target := u * total

	low, high := 0, n-1
	for low <= high {
		i := low + (high-low)/2
		cmp := b.arc[i] - target
		if cmp < 0 {
			low = i + 1
		} else if cmp > 0 {
			high = i - 1
		} else {
			high = i
			break
		}
	}
	i := high
	if i < 0 {
		return 0
	}
	if b.arc[i] == target || i >= n-1 {
		return float64(i) / float64(n-1)
	}
	before := b.arc[i]
	segment := b.arc[i+1] - before
	fraction := (target - before) / segment
	return (float64(i) + fraction) / float64(n-1)
}

// PointAt returns the point at normalized arc length u.
func (b *Bezier) PointAt(u float64) Vec {
	return b.Point(b.UtoT(u))
}

// TangentAt returns the unit tangent at normalized arc length u.
func (b *Bezier) TangentAt(u float64) Vec {
	return b.Tangent(b.UtoT(u))
}

// SpacedPoints returns divisions+1 points equally spaced by arc length.
func (b *Bezier) SpacedPoints(divisions int) []Vec {
	pts := make([]Vec, 0, divisions+1)
	for i := 0; i <= divisions; i++ {
		pts = append(pts, b.PointAt(float64(i)/float64(divisions)))
	}
	return pts
}

// Nearest returns the normalized arc-length position among divisions+1
// equally spaced samples that lies closest to target, ignoring samples
// outside [lo, hi]. The first sample wins ties. ok is false when no sample
// falls inside the window.
func (b *Bezier) Nearest(target Vec, divisions int, lo, hi float64) (u float64, ok bool) {
	best := -1.0
	for i, p := range b.SpacedPoints(divisions) {
		t := float64(i) / float64(divisions)
		if t < lo || t > hi {
			continue
		}
		d := Dist(p, target)
		if !ok || d < best {
			best = d
			u = t
			ok = true
		}
	}
	return u, ok
}

// Vertical reports whether the chord from P0 to P2 runs predominantly
// along the Y axis.
func (b *Bezier) Vertical() bool {
	return IsVertical(b.P2.Sub(b.P0))
}

// IsVertical reports whether |d.Y| dominates both horizontal components.
func IsVertical(d Vec) bool {
	ay, ax, az := abs(d.Y), abs(d.X), abs(d.Z)
	return ay > ax && ay > az
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
