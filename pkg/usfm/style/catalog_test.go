package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSynthesizesUnknown(t *testing.T) {
	catalog := NewCatalog()
	m := catalog.Get("zzz")
	require.NotNil(t, m)
	assert.Equal(t, StyleUnknown, m.StyleType)
	assert.Equal(t, colorRed, m.Color)

	// repeated lookups return the same inserted descriptor
	again := catalog.Get("zzz")
	assert.Same(t, m, again)
	assert.Equal(t, 1, catalog.Len())
}

func TestGetDefaults(t *testing.T) {
	catalog := NewCatalog()
	assert.True(t, catalog.Get("id").TextProperties.Has(PropBook))
	assert.True(t, catalog.Get("c").TextProperties.Has(PropNonpublishable))
	assert.True(t, catalog.Get("v").TextProperties.Has(PropNonpublishable))
	assert.True(t, catalog.Get("p").TextProperties.Has(PropPublishable))
}

func TestRemoveShrinksAndReindexes(t *testing.T) {
	catalog := NewCatalog()
	for _, m := range []string{"p", "w", "w*", "q1"} {
		catalog.Get(m)
	}
	before := catalog.Len()

	catalog.Remove("w")
	assert.Equal(t, before-2, catalog.Len(), "marker and end marker removed")
	assert.Nil(t, catalog.Lookup("w"))
	assert.Nil(t, catalog.Lookup("w*"))

	// remaining entries stay ordered and addressable
	markers := catalog.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, "p", markers[0].Marker)
	assert.Equal(t, "q1", markers[1].Marker)
	assert.Same(t, markers[1], catalog.Lookup("q1"))

	catalog.Remove("p")
	assert.Equal(t, before-3, catalog.Len(), "no end marker present removes one")
}

func TestMergeDeepCopiesAndOverrides(t *testing.T) {
	base := NewCatalog()
	p := newMarker("p")
	p.StyleType = StyleParagraph
	p.OccursUnder = []string{"c"}
	base.add(p)

	other := NewCatalog()
	override := newMarker("p")
	override.StyleType = StyleCharacter
	other.add(override)
	other.add(newMarker("q1"))

	merged := base.Merge(other)
	assert.Equal(t, 2, merged.Len())
	assert.Equal(t, StyleCharacter, merged.Lookup("p").StyleType, "later catalog wins")

	// deep copy: mutating the merge must not touch the sources
	merged.Lookup("p").OccursUnder = append(merged.Lookup("p").OccursUnder, "x")
	assert.Equal(t, []string{"c"}, base.Lookup("p").OccursUnder)
	assert.NotSame(t, other.Lookup("p"), merged.Lookup("p"))
}
