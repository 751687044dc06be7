package model

import "fmt"

// Kind is the closed set of declared property types the synthesizer knows how to compare
// and hash. Adding a kind requires updating every switch in internal/synth.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindUint8
	KindUint16
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindArray     // slice or fixed-size array
	KindReference // everything compared through its own equality contract
)

func (k Kind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindReference:
		return "reference"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsPrimitive reports whether values of the kind are compared with ==.
func (k Kind) IsPrimitive() bool {
	return k >= KindInt8 && k <= KindBool
}

// Type describes the declared type of a property.
type Type struct {
	Kind Kind
	// Name is the Go spelling of the type as written in the source, e.g. "[]string".
	Name string
	// Elem is set for KindArray.
	Elem *Type
	// Len is the fixed length for arrays, -1 for slices.
	Len int
	// Nilable reports whether a value of the type can be nil. Unknown for
	// types declared outside the package; the extractor sets it to true then.
	Nilable bool
	// Underlying is the predeclared type behind a basic reference ("string",
	// "complex64" or "complex128"), kept through local named types and aliases.
	Underlying string
}

func (t Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Kind.String()
}

// IsSlice reports whether t is an array kind without a fixed length.
func (t Type) IsSlice() bool {
	return t.Kind == KindArray && t.Len < 0
}

// Basic returns the type for a predeclared Go identifier.
func Basic(name string) (Type, bool) {
	var k Kind
	switch name {
	case "int8":
		k = KindInt8
	case "int16":
		k = KindInt16
	case "int32", "rune":
		k = KindInt32
	case "uint8", "byte":
		k = KindUint8
	case "uint16":
		k = KindUint16
	case "uint32":
		k = KindUint32
	// int and uint are 64-bit on every platform we generate for
	case "int64", "int":
		k = KindInt64
	case "uint64", "uint", "uintptr":
		k = KindUint64
	case "float32":
		k = KindFloat32
	case "float64":
		k = KindFloat64
	case "bool":
		k = KindBool
	case "string", "complex64", "complex128":
		return Type{Kind: KindReference, Name: name, Underlying: name}, true
	case "error", "any":
		return Type{Kind: KindReference, Name: name, Nilable: true}, true
	default:
		return Type{}, false
	}
	return Type{Kind: k, Name: name}, true
}

// ArrayOf builds an array type. n < 0 means a slice.
func ArrayOf(elem Type, n int, name string) Type {
	e := elem
	return Type{Kind: KindArray, Name: name, Elem: &e, Len: n, Nilable: n < 0}
}

// Reference builds a reference type.
func Reference(name string, nilable bool) Type {
	return Type{Kind: KindReference, Name: name, Nilable: nilable}
}
