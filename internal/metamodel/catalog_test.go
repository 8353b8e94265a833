package metamodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	e, ok := c.Element("business actor")
	require.True(t, ok)
	assert.Equal(t, "Business Actor", e.Name)
	assert.Equal(t, "Business", e.Layer)
	assert.Equal(t, "Active Structure", e.Aspect)

	assert.Equal(t, "Implementation & Migration", c.LayerOf("Work Package"))
	assert.Equal(t, "Behavior", c.AspectOf("Business  Process"))
	assert.Equal(t, "Dependency", c.CategoryOf("SERVING"))
	assert.Empty(t, c.LayerOf("Spaceship"))

	assoc, ok := c.Relationship("Association")
	require.True(t, ok)
	assert.False(t, assoc.Directed)

	assert.Len(t, c.Elements(), 61)
	assert.Len(t, c.Relationships(), 11)
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
elements:
  - {name: Node, layer: Technology, aspect: Active Structure}
  - {name: node, layer: Technology, aspect: Active Structure}
`))
	require.Error(t, err)
}

func TestLoadCustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
elements:
  - {name: Microservice, layer: Application, aspect: Active Structure}
relationships:
  - {name: Calls, category: Dynamic, directed: true}
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	_, ok := c.Element("microservice")
	assert.True(t, ok)
	_, ok = c.Element("Business Actor")
	assert.False(t, ok)
	assert.Equal(t, "Dynamic", c.CategoryOf("calls"))
}
