package hasheq

import (
	"math"
	"testing"
)

type point struct {
	X, Y int32
}

func (p *point) HashCode() int32 {
	h := Seed
	h = Mix(h, p.X)
	h = Mix(h, p.Y)
	return h
}

func (p *point) Equal(other any) bool {
	o, ok := other.(*point)
	return ok && o != nil && p != nil && p.X == o.X && p.Y == o.Y
}

func TestFolding(t *testing.T) {
	tests := []struct {
		name string
		got  int32
		want int32
	}{
		{"int64 small", Int64(7), 7},
		{"int64 high bits", Int64(1 << 32), 1},
		{"int64 negative one", Int64(-1), 0},
		{"uint64 max", Uint64(math.MaxUint64), 0},
		{"float32 one", Float32(1), 0x3f800000},
		{"float64 one", Float64(1), 0x3ff00000},
		{"bool true", Bool(true), 1231},
		{"bool false", Bool(false), 1237},
		{"string empty", String(""), 0},
		{"string ab", String("ab"), 31*'a' + 'b'},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestMix(t *testing.T) {
	if got := Mix(Seed, 5); got != 1000003^5 {
		t.Fatalf("Mix = %d", got)
	}
	// order sensitive
	if Mix(Mix(Seed, 1), 2) == Mix(Mix(Seed, 2), 1) {
		t.Fatal("Mix should be order sensitive")
	}
}

func TestFloatBitEquality(t *testing.T) {
	nan := float32(math.NaN())
	if !Float32Equal(nan, nan) {
		t.Error("NaN should equal itself bitwise")
	}
	if Float32Equal(0, float32(math.Copysign(0, -1))) {
		t.Error("+0 and -0 should differ")
	}
	if !Float64Equal(math.NaN(), math.NaN()) {
		t.Error("NaN should equal itself bitwise")
	}
	if Float64Equal(0, math.Copysign(0, -1)) {
		t.Error("+0 and -0 should differ")
	}
}

func TestSlice(t *testing.T) {
	if got := Slice[int32](nil); got != 0 {
		t.Errorf("nil slice = %d", got)
	}
	if got := Slice([]int32{}); got != 1 {
		t.Errorf("empty slice = %d", got)
	}
	if got := Slice([]int32{1, 2}); got != (31+1)*31+2 {
		t.Errorf("[1 2] = %d", got)
	}
	if !SliceEqual([]string{"a"}, []string{"a"}) {
		t.Error("equal slices")
	}
	if SliceEqual([]string{}, nil) {
		t.Error("nil and empty must differ")
	}
	if SliceEqual([]string{"a"}, []string{"b"}) {
		t.Error("different elements")
	}
}

func TestHashDispatch(t *testing.T) {
	p := &point{X: 1, Y: 2}
	if Hash(p) != p.HashCode() {
		t.Error("Hasher not used")
	}
	var nilp *point
	if Hash(nilp) != 0 {
		t.Error("typed nil Hasher should hash to 0")
	}
	if Hash(nil) != 0 {
		t.Error("nil should hash to 0")
	}
	if Hash("ab") != String("ab") {
		t.Error("string dispatch")
	}
	if Hash([]int32{1, 2}) != Slice([]int32{1, 2}) {
		t.Error("slice dispatch")
	}
	v := 3
	if Hash(&v) != Hash(3) {
		t.Error("pointer should hash its target")
	}

	type plain struct {
		A string
		B []int
	}
	if Hash(plain{A: "x", B: []int{1}}) != Hash(plain{A: "x", B: []int{1}}) {
		t.Error("structural hash must be deterministic")
	}
}

func TestEqual(t *testing.T) {
	if !Equal(&point{1, 2}, &point{1, 2}) {
		t.Error("Equaler not used")
	}
	if Equal(&point{1, 2}, &point{2, 1}) {
		t.Error("different points")
	}

	type inner struct{ n int }
	type outer struct {
		P *point
		I inner
	}
	if !Equal(outer{P: &point{1, 1}, I: inner{2}}, outer{P: &point{1, 1}, I: inner{2}}) {
		t.Error("nested structural equality")
	}
	if Equal(outer{I: inner{2}}, outer{I: inner{3}}) {
		t.Error("unexported field difference missed")
	}
}

func TestNullableEqual(t *testing.T) {
	var a, b *point
	if !NullableEqual(a, b) {
		t.Error("two nils are equal")
	}
	if NullableEqual(a, &point{}) || NullableEqual(&point{}, a) {
		t.Error("nil never equals non-nil")
	}
	if !NullableEqual(&point{1, 2}, &point{1, 2}) {
		t.Error("non-nil values compared structurally")
	}
}

func TestValueStructUsesPointerMethods(t *testing.T) {
	a, b := point{X: 1, Y: 2}, point{X: 1, Y: 2}
	if Hash(a) != (&a).HashCode() {
		t.Errorf("Hash(value) = %d, want generated %d", Hash(a), (&a).HashCode())
	}
	if !Equal(a, b) {
		t.Error("equal values through pointer-receiver Equal")
	}
	if Equal(a, point{X: 1, Y: 3}) {
		t.Error("different values")
	}
	if Equal(a, "not a point") {
		t.Error("different types must not be equal")
	}
}

func TestNullableHash(t *testing.T) {
	var p *point
	if got := NullableHash(p); got != 0 {
		t.Errorf("typed nil = %d", got)
	}
	if got := NullableHash(nil); got != 0 {
		t.Errorf("nil = %d", got)
	}
	q := &point{X: 3}
	if got := NullableHash(q); got != q.HashCode() {
		t.Errorf("non-nil = %d, want %d", got, q.HashCode())
	}
}

func TestSliceEqualFloatBits(t *testing.T) {
	nan := []float64{math.NaN()}
	if !SliceEqual(nan, []float64{math.NaN()}) {
		t.Error("NaN elements should compare equal bitwise")
	}
	if Slice(nan) != Slice([]float64{math.NaN()}) {
		t.Error("NaN slices should hash alike")
	}
	if SliceEqual([]float64{0}, []float64{math.Copysign(0, -1)}) {
		t.Error("+0 and -0 elements should differ")
	}

	type celsius float32
	if !Equal(celsius(float32(math.NaN())), celsius(float32(math.NaN()))) {
		t.Error("named float NaN should equal itself")
	}
	if Equal(celsius(0), celsius(float32(math.Copysign(0, -1)))) {
		t.Error("named float +0 and -0 should differ")
	}
	if !Equal(complex(math.NaN(), 1), complex(math.NaN(), 1)) {
		t.Error("complex NaN should equal itself")
	}
	if Hash(complex(math.NaN(), 1)) != Hash(complex(math.NaN(), 1)) {
		t.Error("complex hash must be deterministic")
	}
}

// loose compares and hashes only A.
type loose struct {
	A string
	B int
}

func (l *loose) HashCode() int32 { return String(l.A) }

func (l *loose) Equal(other any) bool {
	o, ok := other.(*loose)
	return ok && o != nil && l.A == o.A
}

func TestEqualImpliesHash(t *testing.T) {
	type holder struct {
		M  map[string]*loose
		V  loose
		S  []*loose
		ok bool
	}
	tests := []struct {
		name string
		a, b any
	}{
		{"map of Equalers", map[string]*loose{"k": {A: "x", B: 1}}, map[string]*loose{"k": {A: "x", B: 2}}},
		{"value field", holder{V: loose{A: "y", B: 1}}, holder{V: loose{A: "y", B: 2}}},
		{"nested map and slice",
			holder{M: map[string]*loose{"k": {A: "x", B: 1}}, S: []*loose{{A: "s", B: 1}}, ok: true},
			holder{M: map[string]*loose{"k": {A: "x", B: 9}}, S: []*loose{{A: "s", B: 9}}, ok: true}},
		{"float keys", map[float64]int{math.NaN(): 1}, map[float64]int{math.NaN(): 1}},
		{"array of floats", [2]float64{math.NaN(), 1}, [2]float64{math.NaN(), 1}},
		{"interface slice", []any{&loose{A: "i", B: 1}, 2}, []any{&loose{A: "i", B: 3}, 2}},
	}
	for _, tt := range tests {
		if !Equal(tt.a, tt.b) {
			t.Errorf("%s: Equal = false, want true", tt.name)
			continue
		}
		if ha, hb := Hash(tt.a), Hash(tt.b); ha != hb {
			t.Errorf("%s: equal values hash %d and %d", tt.name, ha, hb)
		}
	}
}

func TestMapHashIgnoresOrder(t *testing.T) {
	a := map[string]int{}
	b := map[string]int{}
	for i, k := range []string{"a", "b", "c", "d", "e", "f"} {
		a[k] = i
	}
	for i := 5; i >= 0; i-- {
		b[string(rune('a'+i))] = i
	}
	if !Equal(a, b) || Hash(a) != Hash(b) {
		t.Fatal("maps with the same entries must be equal and hash alike")
	}
	b["f"] = 6
	if Equal(a, b) {
		t.Error("different value missed")
	}
	if Equal(map[string]int{}, map[string]int(nil)) {
		t.Error("nil and empty maps must differ")
	}
}

func TestCyclicValuesTerminate(t *testing.T) {
	type node struct {
		V    int
		Next *node
	}
	a := &node{V: 1}
	a.Next = a
	b := &node{V: 1}
	b.Next = b
	if !Equal(a, b) {
		t.Error("isomorphic cycles should be equal")
	}
	if Hash(a) != Hash(b) {
		t.Error("isomorphic cycles should hash alike")
	}
	c := &node{V: 2}
	c.Next = c
	if Equal(a, c) {
		t.Error("cycles with different values must differ")
	}
}
