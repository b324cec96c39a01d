// Package catalogtest provides a shared catalog fixture for tests.
package catalogtest

import (
	"bytes"
	_ "embed"
	"testing"

	"github.com/chazu/luxframe/pkg/catalog"
)

//go:embed fixture.yaml
var fixture []byte

// New returns a fresh copy of the fixture catalog.
func New(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadYAML(bytes.NewReader(fixture))
	if err != nil {
		t.Fatalf("loading fixture catalog: %v", err)
	}
	return c
}

// Entry returns a fixture entry or fails the test.
func Entry(t testing.TB, c *catalog.Catalog, code string) *catalog.Entry {
	t.Helper()
	e, ok := c.Entry(code)
	if !ok {
		t.Fatalf("fixture has no entry %q", code)
	}
	return e
}
