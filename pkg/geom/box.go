package geom

import "math"

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec `json:"min"`
	Max Vec `json:"max"`
}

// Center returns the middle of the box.
func (b Box) Center() Vec {
	return Lerp(b.Min, b.Max, 0.5)
}

// Size returns the box extents.
func (b Box) Size() Vec {
	return b.Max.Sub(b.Min)
}

// Radius returns the radius of the sphere enclosing the box.
func (b Box) Radius() float64 {
	return b.Size().Length() / 2
}

// Empty reports whether the box encloses no volume.
func (b Box) Empty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Union returns the smallest box enclosing both.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Box{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Transform returns the world-space box enclosing b under t.
func (b Box) Transform(t Transform) Box {
	out := Box{
		Min: V(math.Inf(1), math.Inf(1), math.Inf(1)),
		Max: V(math.Inf(-1), math.Inf(-1), math.Inf(-1)),
	}
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		w := t.Apply(c)
		out.Min = out.Min.Min(w)
		out.Max = out.Max.Max(w)
	}
	return out
}
