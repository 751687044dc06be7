package hasheq

import (
	"reflect"
	"unsafe"

	"github.com/mitchellh/hashstructure"
)

// Hash returns the structural hash of v. Values implementing Hasher decide for
// themselves; nil references hash to 0. Anything else is walked the same way Equal
// walks it, so Equal(a, b) implies Hash(a) == Hash(b).
func Hash(v any) int32 {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int32:
		return x
	case int64:
		return Int64(x)
	case int:
		return Int64(int64(x))
	}
	var w walker
	return w.hash(reflect.ValueOf(v))
}

// Equal reports structural equality. An Equaler on the left side decides; a struct
// whose pointer is an Equaler is compared through pointers to both sides. Anything
// else is compared field by field, element by element and entry by entry. Floats and
// complex numbers compare by bit pattern, like Float64Equal.
func Equal(a, b any) bool {
	if e, ok := a.(Equaler); ok && !isNilRef(reflect.ValueOf(a)) {
		return e.Equal(b)
	}
	var w walker
	return w.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

// NullableEqual is Equal with explicit nil handling for nilable values: two nils are
// equal, a nil never equals a non-nil.
func NullableEqual(a, b any) bool {
	an, bn := isNil(a), isNil(b)
	if an || bn {
		return an == bn
	}
	return Equal(a, b)
}

// NullableHash is Hash for nullable properties: any nil, including a typed nil
// pointer, contributes 0.
func NullableHash(v any) int32 {
	if isNil(v) {
		return 0
	}
	return Hash(v)
}

func isNil(v any) bool {
	return v == nil || isNilRef(reflect.ValueOf(v))
}

func isNilRef(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

var (
	hasherType  = reflect.TypeFor[Hasher]()
	equalerType = reflect.TypeFor[Equaler]()
)

// walker keeps the pointers on the current path so cyclic values terminate.
// Every reflect.Value it handles can be turned back into an interface: unexported
// struct fields are re-read through their address.
type walker struct {
	hashing map[uintptr]struct{}
	pairs   map[[2]uintptr]struct{}
}

func (w *walker) hash(rv reflect.Value) int32 {
	if !rv.IsValid() {
		return 0
	}
	if h, ok := rv.Interface().(Hasher); ok {
		if isNilRef(rv) {
			return 0
		}
		return h.HashCode()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return int32(rv.Int())
	case reflect.Int, reflect.Int64:
		return Int64(rv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int32(uint32(rv.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return Uint64(rv.Uint())
	case reflect.Float32:
		return Float32(float32(rv.Float()))
	case reflect.Float64:
		return Float64(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		// hashstructure writes each part's raw bits, matching bitwise equality
		c := rv.Complex()
		sum, err := hashstructure.Hash([2]float64{real(c), imag(c)}, nil)
		if err != nil {
			return 0
		}
		return Uint64(sum)
	case reflect.String:
		return String(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return 0
		}
		if !w.enter(rv.Pointer()) {
			return 0
		}
		defer delete(w.hashing, rv.Pointer())
		return w.hash(rv.Elem())
	case reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return w.hash(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return 0
		}
		return w.hashSeq(rv)
	case reflect.Array:
		return w.hashSeq(rv)
	case reflect.Map:
		if rv.IsNil() {
			return 0
		}
		if !w.enter(rv.Pointer()) {
			return 0
		}
		defer delete(w.hashing, rv.Pointer())
		// order-independent: entries are summed
		h := int32(1)
		iter := rv.MapRange()
		for iter.Next() {
			h += 31*w.hash(iter.Key()) ^ w.hash(iter.Value())
		}
		return h
	case reflect.Struct:
		rv = addressable(rv)
		if rv.Addr().Type().Implements(hasherType) {
			return rv.Addr().Interface().(Hasher).HashCode()
		}
		h := Seed
		for i := 0; i < rv.NumField(); i++ {
			h = Mix(h, w.hash(field(rv, i)))
		}
		return h
	default:
		// chan, func and unsafe pointers: identity only
		return Uint64(uint64(rv.Pointer()))
	}
}

func (w *walker) hashSeq(rv reflect.Value) int32 {
	h := int32(1)
	for i := 0; i < rv.Len(); i++ {
		h = 31*h + w.hash(rv.Index(i))
	}
	return h
}

// enter records p on the hashing path and reports false when it is already there.
func (w *walker) enter(p uintptr) bool {
	if w.hashing == nil {
		w.hashing = make(map[uintptr]struct{})
	}
	if _, ok := w.hashing[p]; ok {
		return false
	}
	w.hashing[p] = struct{}{}
	return true
}

func (w *walker) equal(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	if e, ok := a.Interface().(Equaler); ok {
		if isNilRef(a) || isNilRef(b) {
			return isNilRef(a) == isNilRef(b)
		}
		return e.Equal(b.Interface())
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32:
		return Float32Equal(float32(a.Float()), float32(b.Float()))
	case reflect.Float64:
		return Float64Equal(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		ca, cb := a.Complex(), b.Complex()
		return Float64Equal(real(ca), real(cb)) && Float64Equal(imag(ca), imag(cb))
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		key, ok := w.visit(a.Pointer(), b.Pointer())
		if !ok {
			return true
		}
		defer delete(w.pairs, key)
		return w.equal(a.Elem(), b.Elem())
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return w.equal(a.Elem(), b.Elem())
	case reflect.Slice:
		if a.IsNil() != b.IsNil() {
			return false
		}
		return w.equalSeq(a, b)
	case reflect.Array:
		return w.equalSeq(a, b)
	case reflect.Map:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		key, ok := w.visit(a.Pointer(), b.Pointer())
		if !ok {
			return true
		}
		defer delete(w.pairs, key)
		return w.equalMap(a, b)
	case reflect.Struct:
		a, b = addressable(a), addressable(b)
		if a.Addr().Type().Implements(equalerType) {
			return a.Addr().Interface().(Equaler).Equal(b.Addr().Interface())
		}
		for i := 0; i < a.NumField(); i++ {
			if !w.equal(field(a, i), field(b, i)) {
				return false
			}
		}
		return true
	default:
		return a.Pointer() == b.Pointer()
	}
}

func (w *walker) equalSeq(a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !w.equal(a.Index(i), b.Index(i)) {
			return false
		}
	}
	return true
}

// equalMap pairs entries by key under Equal, not by Go ==, so float keys follow the
// same bit semantics as everywhere else.
func (w *walker) equalMap(a, b reflect.Value) bool {
	type entry struct{ k, v reflect.Value }
	buckets := make(map[int32][]entry, b.Len())
	iter := b.MapRange()
	for iter.Next() {
		h := w.hash(iter.Key())
		buckets[h] = append(buckets[h], entry{iter.Key(), iter.Value()})
	}
	iter = a.MapRange()
	for iter.Next() {
		h := w.hash(iter.Key())
		entries := buckets[h]
		found := -1
		for i, e := range entries {
			if w.equal(iter.Key(), e.k) {
				found = i
				break
			}
		}
		if found < 0 || !w.equal(iter.Value(), entries[found].v) {
			return false
		}
		buckets[h] = append(entries[:found], entries[found+1:]...)
	}
	return true
}

// visit records the pair (a, b) on the comparison path and reports false when it is
// already there; a cycle then counts as equal.
func (w *walker) visit(a, b uintptr) ([2]uintptr, bool) {
	if w.pairs == nil {
		w.pairs = make(map[[2]uintptr]struct{})
	}
	key := [2]uintptr{a, b}
	if _, ok := w.pairs[key]; ok {
		return key, false
	}
	w.pairs[key] = struct{}{}
	return key, true
}

// addressable returns rv itself when it can be addressed, otherwise a copy that can.
func addressable(rv reflect.Value) reflect.Value {
	if rv.CanAddr() {
		return rv
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p.Elem()
}

// field returns field i of the addressable struct rv, readable even when unexported.
func field(rv reflect.Value, i int) reflect.Value {
	f := rv.Field(i)
	if f.CanInterface() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}
