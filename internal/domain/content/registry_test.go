package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.True(t, reg.HasResource("node", "article"))
	assert.True(t, reg.HasResource("node", "page"))
	assert.True(t, reg.HasResource("taxonomy_term", "tags"))
	assert.False(t, reg.HasResource("node", "tags"))

	node, ok := reg.Get("node")
	require.True(t, ok)
	assert.Equal(t, "nid", node.Key())
	assert.Equal(t, "type", node.BundleKey)

	f, ok := node.Field("field_tags")
	require.True(t, ok)
	assert.True(t, f.Multiple)
	assert.Equal(t, "taxonomy_term", f.ReferenceType)

	// Every reference points at a registered entity type.
	for _, def := range reg.List() {
		for _, f := range def.AllFields() {
			if f.IsReference() {
				_, ok := reg.Get(f.ReferenceType)
				assert.True(t, ok, "%s.%s -> %s", def.Name, f.Name, f.ReferenceType)
			}
		}
	}
}

func TestSchema_CoversRegistry(t *testing.T) {
	for _, def := range NewRegistry().List() {
		assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+def.TableName+" (", def.Name)
		for _, f := range def.AllFields() {
			if f.Multiple {
				assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+def.Name+"__"+f.Name+" (")
			}
			if len(f.Properties) > 1 {
				for _, prop := range f.Properties[1:] {
					assert.Contains(t, Schema, "\t"+f.Name+"__"+prop+" ", "%s.%s", f.Name, prop)
				}
			}
		}
	}
	assert.NotEmpty(t, DemoData)
}
