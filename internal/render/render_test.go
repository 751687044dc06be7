package render

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hasheq/internal/model"
	"hasheq/internal/synth"
)

var vocab = model.DefaultVocabulary()

func prop(name string, typ model.Type, annotations ...string) model.Property {
	return model.Property{Name: name, Type: typ, Annotations: vocab.Parse(annotations...)}
}

func basic(name string) model.Type {
	t, ok := model.Basic(name)
	if !ok {
		panic(name)
	}
	return t
}

func named(kind model.Kind, name string) model.Type {
	return model.Type{Kind: kind, Name: name}
}

func plan(t *testing.T, vt *model.ValueType) *synth.Plan {
	t.Helper()
	p, err := synth.Synthesize(vt, vocab)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

const mixedGolden = `// Code generated by hasheq. DO NOT EDIT.

package fixture

import "hasheq/runtime/hasheq"

// Equal implements hasheq.Equaler.
func (v *Test) Equal(other any) bool {
	o, ok := other.(*Test)
	if !ok {
		return false
	}
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	return v.a == o.a &&
		v.c == o.c &&
		hasheq.Float32Equal(v.d, o.d) &&
		hasheq.Float64Equal(v.e, o.e) &&
		v.f == o.f &&
		hasheq.SliceEqual(v.g, o.g) &&
		v.h == o.h &&
		hasheq.NullableEqual(v.i, o.i)
}

// HashCode implements hasheq.Hasher.
func (v *Test) HashCode() int32 {
	if v == nil {
		return 0
	}
	h := int32(1)
	h *= 1000003
	h ^= v.a
	h *= 1000003
	h ^= hasheq.Int64(v.c)
	h *= 1000003
	h ^= hasheq.Float32(v.d)
	h *= 1000003
	h ^= hasheq.Float64(v.e)
	h *= 1000003
	h ^= hasheq.Bool(v.f)
	h *= 1000003
	h ^= hasheq.Slice(v.g)
	h *= 1000003
	h ^= hasheq.String(v.h)
	h *= 1000003
	h ^= hasheq.NullableHash(v.i)
	return h
}
`

func TestRenderMixedKinds(t *testing.T) {
	vt := &model.ValueType{
		Name:    "Test",
		Package: "fixture",
		Properties: []model.Property{
			prop("a", basic("int32")),
			prop("b", basic("string"), "ignore"),
			prop("c", basic("int64")),
			prop("d", basic("float32")),
			prop("e", basic("float64")),
			prop("f", basic("bool")),
			prop("g", model.ArrayOf(basic("int32"), -1, "[]int32")),
			prop("h", basic("string")),
			prop("i", model.Reference("*string", true), "nullable"),
		},
	}
	got, err := File("fixture", []*synth.Plan{plan(t, vt)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(mixedGolden, string(got)); diff != "" {
		t.Errorf("generated source mismatch (-want +got):\n%s", diff)
	}
}

const namedGolden = `// Code generated by hasheq. DO NOT EDIT.

package weather

import hasheq "example.com/rt"

// Equal implements hasheq.Equaler.
func (v *Reading) Equal(other any) bool {
	o, ok := other.(*Reading)
	if !ok {
		return false
	}
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	return hasheq.Float64Equal(float64(v.T), float64(o.T)) &&
		hasheq.SliceEqual(v.M[:], o.M[:]) &&
		hasheq.SliceEqual(v.S, o.S) &&
		v.U == o.U
}

// HashCode implements hasheq.Hasher.
func (v *Reading) HashCode() int32 {
	if v == nil {
		return 0
	}
	h := int32(1)
	h *= 1000003
	h ^= hasheq.Float64(float64(v.T))
	h *= 1000003
	h ^= hasheq.Slice(v.M[:])
	h *= 1000003
	if v.S != nil {
		h ^= hasheq.Slice(v.S)
	}
	h *= 1000003
	h ^= hasheq.Uint64(uint64(v.U))
	return h
}
`

func TestRenderNamedTypesAndCustomRuntime(t *testing.T) {
	ids := model.ArrayOf(basic("uint16"), -1, "IDs")
	vt := &model.ValueType{
		Name: "Reading",
		Properties: []model.Property{
			prop("T", named(model.KindFloat64, "Celsius"), "include"),
			prop("M", model.ArrayOf(basic("int8"), 2, "[2]int8"), "include"),
			prop("S", ids, "include", "nullable"),
			prop("U", basic("uint"), "include"),
			prop("X", basic("bool")),
		},
	}
	got, err := File("weather", []*synth.Plan{plan(t, vt)}, Options{RuntimeImport: "example.com/rt"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(namedGolden, string(got)); diff != "" {
		t.Errorf("generated source mismatch (-want +got):\n%s", diff)
	}
}

const plainGolden = `// Code generated by hasheq. DO NOT EDIT.

package p

// Equal implements hasheq.Equaler.
func (v *Empty) Equal(other any) bool {
	o, ok := other.(*Empty)
	if !ok {
		return false
	}
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	return true
}

// HashCode implements hasheq.Hasher.
func (v *Empty) HashCode() int32 {
	if v == nil {
		return 0
	}
	return 1
}

// Equal implements hasheq.Equaler.
func (v *Point) Equal(other any) bool {
	o, ok := other.(*Point)
	if !ok {
		return false
	}
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	return v.X == o.X &&
		v.Y == o.Y
}

// HashCode implements hasheq.Hasher.
func (v *Point) HashCode() int32 {
	if v == nil {
		return 0
	}
	h := int32(1)
	h *= 1000003
	h ^= v.X
	h *= 1000003
	h ^= int32(v.Y)
	return h
}
`

func TestRenderWithoutRuntimeImport(t *testing.T) {
	empty := &model.ValueType{Name: "Empty", OptIn: true}
	point := &model.ValueType{
		Name: "Point",
		Properties: []model.Property{
			prop("X", basic("int32")),
			prop("Y", basic("uint16")),
		},
	}
	got, err := File("p", []*synth.Plan{plan(t, empty), plan(t, point)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(plainGolden, string(got)); diff != "" {
		t.Errorf("generated source mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderFormatError(t *testing.T) {
	vt := &model.ValueType{Name: "Bad", Properties: []model.Property{prop("1x", basic("int32"))}}
	src, err := File("p", []*synth.Plan{plan(t, vt)}, Options{})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
	if len(src) == 0 || string(fe.Source) != string(src) {
		t.Error("unformatted source should be returned for inspection")
	}
}

const stringsGolden = `// Code generated by hasheq. DO NOT EDIT.

package p

import "hasheq/runtime/hasheq"

// Equal implements hasheq.Equaler.
func (v *Tag) Equal(other any) bool {
	o, ok := other.(*Tag)
	if !ok {
		return false
	}
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	return v.Name == o.Name &&
		v.L == o.L &&
		hasheq.Equal(v.Z, o.Z)
}

// HashCode implements hasheq.Hasher.
func (v *Tag) HashCode() int32 {
	if v == nil {
		return 0
	}
	h := int32(1)
	h *= 1000003
	h ^= hasheq.String(v.Name)
	h *= 1000003
	h ^= hasheq.String(string(v.L))
	h *= 1000003
	h ^= hasheq.Hash(v.Z)
	return h
}
`

func TestRenderStringReferences(t *testing.T) {
	label := basic("string")
	label.Name = "Label"
	vt := &model.ValueType{
		Name: "Tag",
		Properties: []model.Property{
			prop("Name", basic("string")),
			prop("L", label),
			prop("Z", basic("complex128")),
		},
	}
	got, err := File("p", []*synth.Plan{plan(t, vt)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stringsGolden, string(got)); diff != "" {
		t.Errorf("generated source mismatch (-want +got):\n%s", diff)
	}
}
