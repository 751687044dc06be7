package model

import "hasheq/internal/source"

// Property is one field of a value type.
type Property struct {
	Name        string
	Type        Type
	Annotations Annotations
	Span        source.Span
}

// Nullable reports whether the property carries the nullable marker.
func (p Property) Nullable() bool {
	return p.Annotations.Has(MarkerNullable)
}

// ValueType is a struct for which Equal/HashCode may be generated.
type ValueType struct {
	Name       string
	Package    string
	Properties []Property // declaration order
	// OptIn is set when the type carries an explicit generate directive.
	OptIn bool
	Span  source.Span
}

// AnnotationUnion returns the union of every property's annotations.
func (vt *ValueType) AnnotationUnion() Annotations {
	var u Annotations
	for i := range vt.Properties {
		u = u.Union(vt.Properties[i].Annotations)
	}
	return u
}

// FirstWith returns the first property carrying m.
func (vt *ValueType) FirstWith(m Marker) (*Property, bool) {
	for i := range vt.Properties {
		if vt.Properties[i].Annotations.Has(m) {
			return &vt.Properties[i], true
		}
	}
	return nil, false
}
