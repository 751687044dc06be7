package diag

import (
	"math"
	"testing"

	"hasheq/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	file := fs.AddVirtual("/workspace/shapes/point.go", []byte("package shapes\n\ntype Point struct{}\n"))

	diags := []Diagnostic{
		NewError(PolConflictingAnnotations, source.Span{File: file, Start: 16, End: 20}, "Point: first line\nsecond").
			WithNote(source.Span{File: file, Start: 21, End: 26}, "marked here"),
		New(SevWarning, ExtUnknownDirective, source.Span{File: file, Start: 0, End: 7}, "unknown"),
		New(SevInfo, ExtNoCandidates, source.NoSpan, "nothing to do"),
	}

	expected := "info EXT2004 nothing to do\n" +
		"warning EXT2002 shapes/point.go:1:1 unknown\n" +
		"error POL3001 shapes/point.go:3:1 Point: first line second\n" +
		"note POL3001 shapes/point.go:3:6 marked here"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitsAndSort(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(New(SevWarning, ExtUnknownDirective, source.Span{Start: 9}, "b")) {
		t.Fatal("first add dropped")
	}
	bag.Add(NewError(PolConflictingAnnotations, source.Span{Start: 1}, "a"))
	if bag.Add(NewError(PolConflictingAnnotations, source.Span{Start: 5}, "c")) {
		t.Fatal("limit not enforced")
	}
	bag.Sort()
	if bag.Items()[0].Message != "a" {
		t.Errorf("sort order = %+v", bag.Items())
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Error("severity queries")
	}

	other := NewBag(0)
	if other.Cap() != math.MaxUint16 {
		t.Errorf("unbounded bag cap = %d", other.Cap())
	}
	other.Add(NewError(PolConflictingAnnotations, source.Span{Start: 1}, "a"))
	bag.Merge(other)
	if bag.Len() != 3 {
		t.Fatalf("merge grew to %d", bag.Len())
	}
	bag.Dedup()
	if bag.Len() != 2 {
		t.Errorf("dedup left %d", bag.Len())
	}
	bag.Filter(func(d Diagnostic) bool { return d.Severity == SevError })
	if bag.Len() != 1 || bag.Items()[0].Message != "a" {
		t.Errorf("filter left %+v", bag.Items())
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		InpParseError:             "INP1001",
		ExtNullableNotNilable:     "EXT2001",
		PolConflictingAnnotations: "POL3001",
		GenStaleOutput:            "GEN4002",
		UnknownCode:               "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
	if Code(3999).Title() != "Unknown error" {
		t.Error("unknown code title")
	}
}
