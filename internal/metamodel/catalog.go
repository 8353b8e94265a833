// Package metamodel is the read-only ArchiMate type catalogue used to validate
// type names and to resolve element layers and relationship categories.
package metamodel

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
)

//go:embed archimate.yaml
var defaultCatalog []byte

// ElementType describes one element type.
type ElementType struct {
	Name   string `yaml:"name" json:"name"`
	Layer  string `yaml:"layer" json:"layer"`
	Aspect string `yaml:"aspect" json:"aspect"`
}

// RelationshipType describes one relationship type.
type RelationshipType struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Directed bool   `yaml:"directed" json:"directed"`
}

type catalogFile struct {
	Elements      []ElementType      `yaml:"elements"`
	Relationships []RelationshipType `yaml:"relationships"`
}

// Catalog indexes element and relationship types by lower-cased name.
type Catalog struct {
	elements      map[string]ElementType
	relationships map[string]RelationshipType
}

// Default parses the embedded ArchiMate 3.2 catalogue.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("metamodel: embedded catalogue is invalid: " + err.Error())
	}
	return c
}

// Load reads a catalogue file, or returns Default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read metamodel catalogue %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse metamodel catalogue")
	}
	if len(f.Elements) == 0 {
		return nil, errors.New("metamodel catalogue defines no element types")
	}

	c := &Catalog{
		elements:      make(map[string]ElementType, len(f.Elements)),
		relationships: make(map[string]RelationshipType, len(f.Relationships)),
	}
	for _, e := range f.Elements {
		key := normalize(e.Name)
		if _, dup := c.elements[key]; dup {
			return nil, errors.Newf("duplicate element type %q", e.Name)
		}
		c.elements[key] = e
	}
	for _, r := range f.Relationships {
		key := normalize(r.Name)
		if _, dup := c.relationships[key]; dup {
			return nil, errors.Newf("duplicate relationship type %q", r.Name)
		}
		c.relationships[key] = r
	}
	return c, nil
}

// Element looks up an element type case-insensitively.
func (c *Catalog) Element(name string) (ElementType, bool) {
	e, ok := c.elements[normalize(name)]
	return e, ok
}

// Relationship looks up a relationship type case-insensitively.
func (c *Catalog) Relationship(name string) (RelationshipType, bool) {
	r, ok := c.relationships[normalize(name)]
	return r, ok
}

// LayerOf returns the layer of an element type, or "" if unknown.
func (c *Catalog) LayerOf(typeName string) string {
	return c.elements[normalize(typeName)].Layer
}

// AspectOf returns the aspect of an element type, or "" if unknown.
func (c *Catalog) AspectOf(typeName string) string {
	return c.elements[normalize(typeName)].Aspect
}

// CategoryOf returns the category of a relationship type, or "" if unknown.
func (c *Catalog) CategoryOf(typeName string) string {
	return c.relationships[normalize(typeName)].Category
}

// Elements lists all element types sorted by name.
func (c *Catalog) Elements() []ElementType {
	out := make([]ElementType, 0, len(c.elements))
	for _, e := range c.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Relationships lists all relationship types sorted by name.
func (c *Catalog) Relationships() []RelationshipType {
	out := make([]RelationshipType, 0, len(c.relationships))
	for _, r := range c.relationships {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// normalize folds case and collapses inner whitespace, so "business  actor"
// and "Business Actor" resolve to the same type.
func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
