package synth

import (
	"fmt"
	"reflect"

	"hasheq/runtime/hasheq"
)

// Values maps property names to runtime values of one instance.
type Values map[string]any

// Eval runs the hash plan over concrete values, using the same helpers as generated code.
func (p HashPlan) Eval(v Values) int32 {
	h := p.Seed
	for _, step := range p.Steps {
		h *= p.Multiplier
		h ^= step.contribution(v[step.Property])
	}
	return h
}

func (s HashStep) contribution(v any) int32 {
	switch s.Strategy {
	case HashWiden:
		return widen(v)
	case HashLong:
		switch x := v.(type) {
		case int64:
			return hasheq.Int64(x)
		case int:
			return hasheq.Int64(int64(x))
		case uint64:
			return hasheq.Uint64(x)
		case uint:
			return hasheq.Uint64(uint64(x))
		case uintptr:
			return hasheq.Uint64(uint64(x))
		}
	case HashFloatBits:
		if x, ok := v.(float32); ok {
			return hasheq.Float32(x)
		}
	case HashDoubleBits:
		if x, ok := v.(float64); ok {
			return hasheq.Float64(x)
		}
	case HashBool:
		if x, ok := v.(bool); ok {
			return hasheq.Bool(x)
		}
	case HashArray:
		if s.Nullable && isNilValue(v) {
			return 0
		}
		return hasheq.Hash(v)
	case HashReference:
		return hasheq.Hash(v)
	case HashReferenceNullable:
		if isNilValue(v) {
			return 0
		}
		return hasheq.Hash(v)
	}
	panic(fmt.Sprintf("synth: %s step for %s cannot hash %T", s.Strategy, s.Property, v))
}

func widen(v any) int32 {
	switch x := v.(type) {
	case int8:
		return int32(x)
	case int16:
		return int32(x)
	case int32:
		return x
	case uint8:
		return int32(x)
	case uint16:
		return int32(x)
	case uint32:
		return int32(x)
	}
	panic(fmt.Sprintf("synth: cannot widen %T", v))
}

// Eval compares two instances of the same type property by property. Identity and type
// checks belong to the caller; an empty plan therefore always reports true.
func (p EqualsPlan) Eval(a, b Values) bool {
	for _, term := range p.Terms {
		if !term.eval(a[term.Property], b[term.Property]) {
			return false
		}
	}
	return true
}

func (t EqualTerm) eval(a, b any) bool {
	switch t.Strategy {
	case EqualDirect:
		return a == b
	case EqualFloatBits:
		return hasheq.Float32Equal(a.(float32), b.(float32))
	case EqualDoubleBits:
		return hasheq.Float64Equal(a.(float64), b.(float64))
	case EqualArray:
		return arrayEqual(reflect.ValueOf(a), reflect.ValueOf(b))
	case EqualReference:
		return hasheq.Equal(a, b)
	case EqualReferenceNullSafe:
		return hasheq.NullableEqual(a, b)
	}
	panic(fmt.Sprintf("synth: unknown equality strategy %d", uint8(t.Strategy)))
}

// arrayEqual mirrors hasheq.SliceEqual for values whose element type is only known at runtime.
func arrayEqual(a, b reflect.Value) bool {
	if a.Kind() == reflect.Slice && (a.IsNil() != b.IsNil()) {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !hasheq.Equal(a.Index(i).Interface(), b.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
