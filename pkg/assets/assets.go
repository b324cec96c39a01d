// Package assets resolves a part code to the 3D model that represents it.
// The engine only needs the model's local bounds to place it; rendering
// data stays with the front end.
package assets

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/geom"
)

// ErrNotFound is returned when no model exists for a code.
var ErrNotFound = errors.New("assets: model not found")

// Model is a loaded part model.
type Model struct {
	Code     string   `json:"code"`
	Resource string   `json:"resource"`
	Bounds   geom.Box `json:"bounds"`
}

// Loader loads the model for a part code. Implementations must be safe for
// concurrent use.
type Loader interface {
	Load(ctx context.Context, code string) (Model, error)
}

// Source fetches raw objects by key.
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// ModelKey returns the storage key of a part's model.
func ModelKey(code string) string {
	return path.Join("models", catalog.ResourceCode(code)+".glb")
}

// GLBLoader reads binary glTF models from a Source.
type GLBLoader struct {
	src Source
}

// NewGLBLoader returns a loader reading models/<resource>.glb from src.
func NewGLBLoader(src Source) *GLBLoader {
	return &GLBLoader{src: src}
}

// Load fetches and parses the model for code.
func (l *GLBLoader) Load(ctx context.Context, code string) (Model, error) {
	key := ModelKey(code)
	data, err := l.src.Fetch(ctx, key)
	if err != nil {
		return Model{}, fmt.Errorf("assets: fetch %s: %w", key, err)
	}
	bounds, err := ParseGLB(data)
	if err != nil {
		return Model{}, fmt.Errorf("assets: parse %s: %w", key, err)
	}
	return Model{Code: code, Resource: catalog.ResourceCode(code), Bounds: bounds}, nil
}

// Static serves fixed bounds per code. Codes without an entry fall back to
// Default when it is set, otherwise ErrNotFound.
type Static struct {
	Bounds  map[string]geom.Box
	Default *geom.Box
}

// Load returns the configured bounds.
func (s Static) Load(ctx context.Context, code string) (Model, error) {
	if err := ctx.Err(); err != nil {
		return Model{}, err
	}
	b, ok := s.Bounds[code]
	if !ok {
		if s.Default == nil {
			return Model{}, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		b = *s.Default
	}
	return Model{Code: code, Resource: catalog.ResourceCode(code), Bounds: b}, nil
}

// Compile-time interface checks.
var (
	_ Loader = (*GLBLoader)(nil)
	_ Loader = Static{}
	_ Loader = (*Cached)(nil)
)
