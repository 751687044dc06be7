package model

import (
	"slices"
	"testing"
)

func TestVocabularyParse(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		name      string
		in        []string
		markers   []Marker
		other     []string
		wantEmpty bool
	}{
		{name: "empty", in: nil, wantEmpty: true},
		{name: "short names", in: []string{"ignore", "nullable"}, markers: []Marker{MarkerExclude, MarkerNullable}},
		{name: "long names", in: []string{"IncludeHashEquals"}, markers: []Marker{MarkerInclude}},
		{name: "opaque kept sorted", in: []string{"json", "deprecated", "json"}, other: []string{"deprecated", "json"}},
		{name: "whitespace trimmed", in: []string{"  ignore ", ""}, markers: []Marker{MarkerExclude}},
		{name: "mixed", in: []string{"Override", "IgnoreHashEquals"}, markers: []Marker{MarkerExclude}, other: []string{"Override"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Parse(tt.in...)
			if got.Empty() != tt.wantEmpty {
				t.Fatalf("Empty() = %v, want %v", got.Empty(), tt.wantEmpty)
			}
			if !slices.Equal(got.Markers(), tt.markers) {
				t.Errorf("markers = %v, want %v", got.Markers(), tt.markers)
			}
			if !slices.Equal(got.Other, tt.other) {
				t.Errorf("other = %v, want %v", got.Other, tt.other)
			}
		})
	}
}

func TestVocabularyNormalizesNames(t *testing.T) {
	v := NewVocabulary()
	v.Add(MarkerExclude, "caf\u00e9")
	if m, ok := v.Lookup("cafe\u0301"); !ok || m != MarkerExclude {
		t.Fatalf("Lookup(decomposed) = %v, %v", m, ok)
	}
	if got := v.Display(MarkerExclude); got != "caf\u00e9" {
		t.Errorf("Display = %q", got)
	}
	if got := v.Display(MarkerInclude); got != "include" {
		t.Errorf("Display(unregistered) = %q, want fallback", got)
	}
}

func TestAnnotationsUnionDoesNotAlias(t *testing.T) {
	a := Annotations{}.WithOther("b")
	b := Annotations{}.WithOther("a").With(MarkerInclude)

	u := a.Union(b)
	if !u.Has(MarkerInclude) {
		t.Fatal("union lost marker")
	}
	if !slices.Equal(u.Other, []string{"a", "b"}) {
		t.Fatalf("union other = %v", u.Other)
	}
	if !slices.Equal(a.Other, []string{"b"}) {
		t.Fatalf("receiver mutated: %v", a.Other)
	}

	if u.Without(MarkerInclude).Has(MarkerInclude) {
		t.Fatal("Without did not clear marker")
	}
}

func TestBasic(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		nilable bool
	}{
		{"byte", KindUint8, false},
		{"rune", KindInt32, false},
		{"int", KindInt64, false},
		{"uint", KindUint64, false},
		{"float32", KindFloat32, false},
		{"bool", KindBool, false},
		{"string", KindReference, false},
		{"error", KindReference, true},
	}
	for _, tt := range tests {
		got, ok := Basic(tt.name)
		if !ok {
			t.Fatalf("Basic(%q) not recognized", tt.name)
		}
		if got.Kind != tt.kind || got.Nilable != tt.nilable {
			t.Errorf("Basic(%q) = %v nilable=%v, want %v nilable=%v", tt.name, got.Kind, got.Nilable, tt.kind, tt.nilable)
		}
	}
	if _, ok := Basic("Point"); ok {
		t.Error("Basic(Point) should not resolve")
	}
}
