// Package hasheq holds the helpers called by code generated with the hasheq tool.
//
// Hash values follow a fixed, platform-independent scheme: 32-bit accumulators,
// multiply-then-xor for struct fields and a 31-polynomial for sequences. They are
// deterministic across processes, so they may be persisted or compared between runs.
package hasheq

import (
	"math"
)

const (
	// Seed is the initial accumulator of every generated HashCode.
	Seed int32 = 1
	// Multiplier is applied to the accumulator before each field is mixed in.
	Multiplier int32 = 1000003

	trueHash  int32 = 1231
	falseHash int32 = 1237
)

// Hasher is implemented by types with generated (or hand written) hash codes.
type Hasher interface {
	HashCode() int32
}

// Equaler is implemented by types with generated (or hand written) equality.
type Equaler interface {
	Equal(other any) bool
}

// Mix folds one field contribution into the accumulator.
func Mix(h, c int32) int32 {
	h *= Multiplier
	return h ^ c
}

// Int64 folds a 64-bit integer into 32 bits: high half xor low half.
func Int64(v int64) int32 {
	return Uint64(uint64(v))
}

// Uint64 is Int64 for unsigned values.
func Uint64(v uint64) int32 {
	return int32(uint32((v >> 32) ^ v))
}

// Float32 returns the IEEE-754 bit pattern of v.
func Float32(v float32) int32 {
	return int32(math.Float32bits(v))
}

// Float64 folds the IEEE-754 bit pattern of v like Int64.
func Float64(v float64) int32 {
	return Uint64(math.Float64bits(v))
}

// Bool hashes true and false to two fixed primes.
func Bool(v bool) int32 {
	if v {
		return trueHash
	}
	return falseHash
}

// Float32Equal compares bit patterns: NaN equals NaN, +0 differs from -0.
func Float32Equal(a, b float32) bool {
	return math.Float32bits(a) == math.Float32bits(b)
}

// Float64Equal compares bit patterns like Float32Equal.
func Float64Equal(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

// String hashes the bytes of s with the 31-polynomial, starting from 0.
func String(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = 31*h + int32(s[i])
	}
	return h
}

// Slice hashes elements in order. A nil slice hashes to 0; an empty one to 1.
func Slice[T any](s []T) int32 {
	if s == nil {
		return 0
	}
	h := int32(1)
	for i := range s {
		h = 31*h + Hash(s[i])
	}
	return h
}

// SliceEqual compares element-wise with Equal. A nil slice only equals another nil slice.
func SliceEqual[T any](a, b []T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
