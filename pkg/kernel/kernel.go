// Package kernel defines the geometry kernel used to build parts that have
// no stored model, such as profiles cut to a custom length. The sdfx
// subpackage provides the implementation.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	Box(x, y, z float64) Solid
	Union(a, b Solid) Solid
	Translate(s Solid, x, y, z float64) Solid

	// ToMesh tessellates a solid in its local frame.
	ToMesh(s Solid) (*Mesh, error)
}
