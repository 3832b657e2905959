package style

// Catalog holds marker descriptors in insertion order with constant-time
// lookup by marker string. Once loading is finished, Lookup is safe for
// concurrent readers; Get is not, since it inserts descriptors for unknown
// markers.
type Catalog struct {
	markers []*Marker
	index   map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.markers) }

// Markers returns the descriptors in insertion order. The slice is shared;
// callers must not modify it.
func (c *Catalog) Markers() []*Marker { return c.markers }

// Lookup returns the descriptor for marker, or nil when absent.
func (c *Catalog) Lookup(marker string) *Marker {
	if i, ok := c.index[marker]; ok {
		return c.markers[i]
	}
	return nil
}

// Get returns the descriptor for marker. An unknown marker is synthesized on
// the spot with the unknown style type and red color, inserted, and returned,
// so repeated lookups of the same bad marker yield the same descriptor.
func (c *Catalog) Get(marker string) *Marker {
	if m := c.Lookup(marker); m != nil {
		return m
	}
	m := newMarker(marker)
	m.StyleType = StyleUnknown
	m.Color = colorRed
	c.add(m)
	return m
}

// add inserts or replaces a descriptor.
func (c *Catalog) add(m *Marker) {
	if i, ok := c.index[m.Marker]; ok {
		c.markers[i] = m
		return
	}
	c.index[m.Marker] = len(c.markers)
	c.markers = append(c.markers, m)
}

// Remove deletes marker and, when present, its end-marker counterpart.
// Remaining descriptors keep their relative order and contiguous indexing.
func (c *Catalog) Remove(marker string) {
	c.remove(marker)
	if m := c.Lookup(marker + "*"); m != nil {
		c.remove(marker + "*")
	}
}

func (c *Catalog) remove(marker string) {
	i, ok := c.index[marker]
	if !ok {
		return
	}
	c.markers = append(c.markers[:i], c.markers[i+1:]...)
	delete(c.index, marker)
	for j := i; j < len(c.markers); j++ {
		c.index[c.markers[j].Marker] = j
	}
}

// Merge returns a new catalog holding the union of c and other. Descriptors
// from other override same-named descriptors from c; all entries are deep
// copies, so the result shares no state with its sources.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := NewCatalog()
	for _, m := range c.markers {
		merged.add(m.clone())
	}
	if other != nil {
		for _, m := range other.markers {
			merged.add(m.clone())
		}
	}
	return merged
}
