package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Part     string    `json:"part"` // placed object the mesh belongs to
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// MapVertices rewrites every vertex and normal in place. pos maps positions,
// dir maps normals; either may be nil to leave that array untouched.
func (m *Mesh) MapVertices(pos, dir func(x, y, z float64) (float64, float64, float64)) {
	apply := func(buf []float32, f func(x, y, z float64) (float64, float64, float64)) {
		if f == nil {
			return
		}
		for i := 0; i+2 < len(buf); i += 3 {
			x, y, z := f(float64(buf[i]), float64(buf[i+1]), float64(buf[i+2]))
			buf[i], buf[i+1], buf[i+2] = float32(x), float32(y), float32(z)
		}
	}
	apply(m.Vertices, pos)
	apply(m.Normals, dir)
}
