// Package tessellate turns the generated parts of a scene into world-space
// triangle meshes using a geometry kernel. Parts with a stored model are
// drawn from their assets by the frontend and are skipped here.
package tessellate

import (
	"fmt"

	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/kernel"
	"github.com/chazu/luxframe/pkg/scene"
)

// Scene produces one mesh per generated object, in insertion order. The
// tessellator is read-only and never mutates the session.
func Scene(s *scene.Session, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, o := range s.Objects() {
		if o.Solid() == nil {
			continue
		}
		m, err := Object(o, k)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Object tessellates one generated object and moves the mesh into world
// space with the object's transform.
func Object(o *scene.Object, k kernel.Kernel) (*kernel.Mesh, error) {
	if o.Solid() == nil {
		return nil, fmt.Errorf("tessellate: %s %s has no solid", o.Code(), o.ID.Short())
	}

	mesh, err := k.ToMesh(o.Solid())
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", o.ID.Short(), err)
	}

	tr := o.Transform()
	mesh.MapVertices(
		func(x, y, z float64) (float64, float64, float64) {
			w := tr.Apply(geom.V(x, y, z))
			return w.X, w.Y, w.Z
		},
		func(x, y, z float64) (float64, float64, float64) {
			// Scale is dropped by Direction; only rotation reaches normals.
			n := tr.Direction(geom.V(x, y, z)).Normalize()
			return n.X, n.Y, n.Z
		},
	)
	mesh.Part = string(o.ID)
	return mesh, nil
}
