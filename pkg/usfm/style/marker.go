// Package style provides the marker catalog for USFM validation.
//
// A catalog is built from a .sty stylesheet file and holds one descriptor per
// marker. The descriptor tells the tokenizer and parser how a marker behaves:
// whether it opens a paragraph, a character span, a note or a milestone, which
// attributes it accepts, and under which parents it may occur.
//
// Basic usage:
//
//	catalog, errs := style.Load(file, style.LoaderOptions{})
//	for _, e := range errs {
//		fmt.Printf("usfm.sty:%d: %s\n", e.Line, e.Message)
//	}
//	desc := catalog.Get("p")
package style

import "strings"

// Attribute is a single attribute declared for a marker.
type Attribute struct {
	Name     string
	Required bool
}

// Marker describes a single USFM marker as declared by a stylesheet.
// Cosmetic fields are carried verbatim for catalog consumers; the validator
// only interprets the structural ones.
type Marker struct {
	Marker    string
	StyleType StyleType
	EndMarker string

	TextType       TextType
	TextProperties TextProperty
	OccursUnder    []string
	Rank           int

	Attributes       []Attribute
	DefaultAttribute string

	// Cosmetic fields.
	Name            string
	Description     string
	FontName        string
	FontSize        int
	Bold            bool
	Italic          bool
	SmallCaps       bool
	Subscript       bool
	Superscript     bool
	Underline       bool
	Regular         bool
	NotRepeatable   bool
	Color           int
	Justification   Justification
	LineSpacing     int
	SpaceBefore     int
	SpaceAfter      int
	LeftMargin      int // thousandths
	RightMargin     int // thousandths
	FirstLineIndent int // thousandths
	XMLTag          string
	Encoding        string
}

const colorRed = 0xFF0000

// newMarker creates a descriptor with the defaults every fresh catalog entry
// carries: id gets the book property, c and v are non-publishable, everything
// else is publishable.
func newMarker(name string) *Marker {
	m := &Marker{Marker: name}
	switch name {
	case "id":
		m.TextProperties = m.TextProperties.With(PropBook | PropPublishable)
	case "c", "v":
		m.TextProperties = m.TextProperties.With(PropNonpublishable)
	default:
		m.TextProperties = m.TextProperties.With(PropPublishable)
	}
	return m
}

// OccursUnderSet reports whether marker is one of the declared parents.
func (m *Marker) OccursUnderSet(marker string) bool {
	for _, u := range m.OccursUnder {
		if u == marker {
			return true
		}
	}
	return false
}

// clone returns a deep copy of the descriptor.
func (m *Marker) clone() *Marker {
	c := *m
	c.OccursUnder = append([]string(nil), m.OccursUnder...)
	c.Attributes = append([]Attribute(nil), m.Attributes...)
	return &c
}

// setAttributes parses a raw attribute spec string. A leading '?' marks a
// name optional; all required names must precede all optional ones.
func (m *Marker) setAttributes(spec string) error {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return errEmptyAttributes
	}
	attrs := make([]Attribute, 0, len(fields))
	seenOptional := false
	required := 0
	for _, f := range fields {
		a := Attribute{Name: f, Required: true}
		if strings.HasPrefix(f, "?") {
			a.Name = f[1:]
			a.Required = false
		}
		if a.Name == "" {
			return errEmptyAttributes
		}
		if a.Required {
			if seenOptional {
				return errAttributesOrder
			}
			required++
		} else {
			seenOptional = true
		}
		attrs = append(attrs, a)
	}
	m.Attributes = attrs
	m.DefaultAttribute = ""
	if required <= 1 {
		m.DefaultAttribute = attrs[0].Name
	}
	return nil
}

// HasAttribute reports whether name is a declared attribute.
func (m *Marker) HasAttribute(name string) bool {
	for _, a := range m.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}
