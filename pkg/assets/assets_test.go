package assets

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/chazu/luxframe/pkg/geom"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGLB re-encodes a glTF JSON document as a binary GLB container.
func buildGLB(t *testing.T, doc string) []byte {
	t.Helper()
	var d gltf.Document
	require.NoError(t, gltf.NewDecoder(strings.NewReader(doc)).Decode(&d))
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(&d))
	return buf.Bytes()
}

const boxDoc = `{
  "asset": {"version": "2.0"},
  "accessors": [{"min": [-0.5, -0.1, -0.25], "max": [0.5, 0.1, 0.25]}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "nodes": [{"mesh": 0, "translation": [1, 0, 0], "scale": [2, 1, 1]}]
}`

func TestParseGLB(t *testing.T) {
	b, err := ParseGLB(buildGLB(t, boxDoc))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, b.Min.X, 1e-9)
	assert.InDelta(t, 2.0, b.Max.X, 1e-9)
	assert.InDelta(t, -0.1, b.Min.Y, 1e-9)
	assert.InDelta(t, 0.25, b.Max.Z, 1e-9)
}

func TestParseGLBWithoutNodes(t *testing.T) {
	doc := `{"asset": {"version": "2.0"},
	         "accessors": [{"min": [0,0,0], "max": [1,2,3]}],
	         "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]}`
	b, err := ParseGLB(buildGLB(t, doc))
	require.NoError(t, err)
	assert.Equal(t, geom.V(1, 2, 3), b.Max)
}

func TestParseGLTFJSON(t *testing.T) {
	b, err := ParseGLB([]byte(boxDoc))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, b.Max.X, 1e-9)
}

func TestParseGLBDefaultNodeScale(t *testing.T) {
	doc := `{"asset": {"version": "2.0"},
	         "accessors": [{"min": [0,0,0], "max": [1,1,1]}],
	         "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
	         "nodes": [{"mesh": 0, "translation": [0, 2, 0]}]}`
	b, err := ParseGLB(buildGLB(t, doc))
	require.NoError(t, err)
	assert.Equal(t, geom.V(0, 2, 0), b.Min)
	assert.Equal(t, geom.V(1, 3, 1), b.Max)
}

func TestParseGLBErrors(t *testing.T) {
	box := buildGLB(t, boxDoc)
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("glTF")},
		{"bad magic", make([]byte, 32)},
		{"truncated", box[:len(box)/2]},
		{"no positions", buildGLB(t, `{"asset": {"version": "2.0"}, "meshes": []}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGLB(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestModelKeyUsesResourceCode(t *testing.T) {
	assert.Equal(t, "models/XNRS01WW.glb", ModelKey("XNRS01UWW"))
	assert.Equal(t, "models/XNRS01WWR.glb", ModelKey("XNRS01NWR"))
	assert.Equal(t, "models/XNP100.glb", ModelKey("XNP100"))
}

func TestDirSourceLoader(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "XNP100.glb"), buildGLB(t, boxDoc), 0o644))

	l := NewGLBLoader(DirSource{Root: root})
	m, err := l.Load(context.Background(), "XNP100")
	require.NoError(t, err)
	assert.Equal(t, "XNP100", m.Code)
	assert.InDelta(t, 2.0, m.Bounds.Max.X, 1e-9)

	_, err = l.Load(context.Background(), "MISSING")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

type countingLoader struct {
	calls atomic.Int32
	fail  bool
}

func (c *countingLoader) Load(ctx context.Context, code string) (Model, error) {
	c.calls.Add(1)
	if c.fail {
		return Model{}, ErrNotFound
	}
	return Model{Code: code}, nil
}

func TestCachedLoader(t *testing.T) {
	next := &countingLoader{}
	c, err := NewCached(next, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Load(context.Background(), "A")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCachedLoaderDoesNotCacheFailures(t *testing.T) {
	next := &countingLoader{fail: true}
	c, err := NewCached(next, 0)
	require.NoError(t, err)

	_, err = c.Load(context.Background(), "A")
	require.Error(t, err)
	_, err = c.Load(context.Background(), "A")
	require.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestStaticLoader(t *testing.T) {
	unit := geom.Box{Max: geom.V(1, 1, 1)}
	s := Static{Bounds: map[string]geom.Box{"A": unit}}

	m, err := s.Load(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, unit, m.Bounds)

	_, err = s.Load(context.Background(), "B")
	assert.ErrorIs(t, err, ErrNotFound)

	s.Default = &unit
	_, err = s.Load(context.Background(), "B")
	assert.NoError(t, err)
}
