package assets

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/chazu/luxframe/pkg/geom"
	"github.com/qmuntal/gltf"
)

var errNoPositions = errors.New("model has no position accessors")

// ParseGLB returns the bounds of every mesh in a glTF model, binary or JSON,
// using the POSITION accessor min/max the format requires. Node translation
// and scale are applied; rotations and hierarchies are not.
func ParseGLB(data []byte) (geom.Box, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return geom.Box{}, fmt.Errorf("glb: %w", err)
	}
	return docBounds(&doc)
}

func docBounds(doc *gltf.Document) (geom.Box, error) {
	meshBounds := make([]*geom.Box, len(doc.Meshes))
	for i, m := range doc.Meshes {
		for _, p := range m.Primitives {
			idx, ok := p.Attributes[gltf.POSITION]
			if !ok || idx < 0 || int(idx) >= len(doc.Accessors) {
				continue
			}
			a := doc.Accessors[idx]
			if len(a.Min) < 3 || len(a.Max) < 3 {
				continue
			}
			b := geom.Box{
				Min: geom.V(a.Min[0], a.Min[1], a.Min[2]),
				Max: geom.V(a.Max[0], a.Max[1], a.Max[2]),
			}
			if meshBounds[i] == nil {
				meshBounds[i] = &b
			} else {
				u := meshBounds[i].Union(b)
				meshBounds[i] = &u
			}
		}
	}

	out := geom.Box{
		Min: geom.V(math.Inf(1), math.Inf(1), math.Inf(1)),
		Max: geom.V(math.Inf(-1), math.Inf(-1), math.Inf(-1)),
	}
	found := false
	add := func(b geom.Box, tr geom.Transform) {
		out = out.Union(b.Transform(tr))
		found = true
	}

	if len(doc.Nodes) == 0 {
		for _, b := range meshBounds {
			if b != nil {
				add(*b, geom.Identity())
			}
		}
	}
	for _, n := range doc.Nodes {
		if n.Mesh == nil || *n.Mesh < 0 || int(*n.Mesh) >= len(meshBounds) || meshBounds[*n.Mesh] == nil {
			continue
		}
		tr := geom.Identity()
		tr.Position = geom.V(n.Translation[0], n.Translation[1], n.Translation[2])
		if n.Scale != [3]float64{} {
			tr.Scale = geom.V(n.Scale[0], n.Scale[1], n.Scale[2])
		}
		add(*meshBounds[*n.Mesh], tr)
	}

	if !found {
		return geom.Box{}, errNoPositions
	}
	return out, nil
}
