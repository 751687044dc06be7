package model

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Marker is an annotation the generator understands.
type Marker uint8

const (
	MarkerInclude Marker = iota + 1
	MarkerExclude
	MarkerNullable
)

func (m Marker) String() string {
	switch m {
	case MarkerInclude:
		return "include"
	case MarkerExclude:
		return "exclude"
	case MarkerNullable:
		return "nullable"
	}
	return "unknown"
}

func (m Marker) bit() uint8 { return 1 << (m - 1) }

// Annotations is the annotation set of one property (or the union over a type).
// Recognized markers live in a bitset; everything else is kept verbatim in Other.
type Annotations struct {
	markers uint8
	Other   []string // sorted, deduplicated
}

// Has reports whether the marker is present.
func (a Annotations) Has(m Marker) bool {
	return a.markers&m.bit() != 0
}

// With returns a copy of a with m added.
func (a Annotations) With(m Marker) Annotations {
	a.markers |= m.bit()
	return a
}

// Without returns a copy of a with m removed.
func (a Annotations) Without(m Marker) Annotations {
	a.markers &^= m.bit()
	return a
}

// WithOther returns a copy of a with an unrecognized annotation name added.
func (a Annotations) WithOther(name string) Annotations {
	idx, found := slices.BinarySearch(a.Other, name)
	if found {
		return a
	}
	a.Other = slices.Insert(slices.Clone(a.Other), idx, name)
	return a
}

// Union merges b into a.
func (a Annotations) Union(b Annotations) Annotations {
	a.markers |= b.markers
	for _, name := range b.Other {
		a = a.WithOther(name)
	}
	return a
}

// Markers lists the recognized markers in declaration order of the enum.
func (a Annotations) Markers() []Marker {
	var out []Marker
	for _, m := range []Marker{MarkerInclude, MarkerExclude, MarkerNullable} {
		if a.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Empty reports whether the set carries nothing at all.
func (a Annotations) Empty() bool {
	return a.markers == 0 && len(a.Other) == 0
}

func (a Annotations) String() string {
	parts := make([]string, 0, 3+len(a.Other))
	for _, m := range a.Markers() {
		parts = append(parts, m.String())
	}
	parts = append(parts, a.Other...)
	return "{" + strings.Join(parts, ", ") + "}"
}

// Vocabulary maps annotation names to markers.
type Vocabulary struct {
	names map[string]Marker
	// canonical spelling per marker, used in messages
	display map[Marker]string
}

// DefaultVocabulary knows the short directive names and the long-form names.
func DefaultVocabulary() *Vocabulary {
	v := NewVocabulary()
	v.Add(MarkerInclude, "include", "IncludeHashEquals")
	v.Add(MarkerExclude, "ignore", "IgnoreHashEquals")
	v.Add(MarkerNullable, "nullable", "Nullable")
	return v
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		names:   make(map[string]Marker),
		display: make(map[Marker]string),
	}
}

// Add registers names for m. The first name ever added for a marker becomes its display name.
func (v *Vocabulary) Add(m Marker, names ...string) {
	for _, name := range names {
		name = normalizeName(name)
		if name == "" {
			continue
		}
		v.names[name] = m
		if _, ok := v.display[m]; !ok {
			v.display[m] = name
		}
	}
}

// Lookup resolves a single annotation name.
func (v *Vocabulary) Lookup(name string) (Marker, bool) {
	m, ok := v.names[normalizeName(name)]
	return m, ok
}

// Display returns the name used for m in diagnostics.
func (v *Vocabulary) Display(m Marker) string {
	if name, ok := v.display[m]; ok {
		return name
	}
	return m.String()
}

// Parse builds an annotation set from raw names.
func (v *Vocabulary) Parse(names ...string) Annotations {
	var a Annotations
	for _, name := range names {
		name = normalizeName(name)
		if name == "" {
			continue
		}
		if m, ok := v.names[name]; ok {
			a = a.With(m)
			continue
		}
		a = a.WithOther(name)
	}
	return a
}

func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
