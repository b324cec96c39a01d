package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of a catalog fixture.
type document struct {
	Entries  []Entry  `yaml:"entries"`
	Families []Family `yaml:"families"`
	Joiners  []Joiner `yaml:"joiners"`
}

// LoadYAML reads a catalog from a YAML document.
func LoadYAML(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decoding yaml: %w", err)
	}
	return New(doc.Entries, doc.Families, doc.Joiners)
}

// LoadYAMLFile reads a catalog from a YAML file on disk.
func LoadYAMLFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}
