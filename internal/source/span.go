package source

import "fmt"

// Span is a byte range inside one file of a FileSet.
type Span struct {
	File  FileID
	Start uint32 // inclusive
	End   uint32 // exclusive
}

// NoSpan marks diagnostics without a location.
var NoSpan = Span{File: ^FileID(0)}

// Valid reports whether the span points into a file.
func (s Span) Valid() bool {
	return s.File != NoSpan.File
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other; spans from
// different files are left alone.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	s.Start = min(s.Start, other.Start)
	s.End = max(s.End, other.End)
	return s
}
