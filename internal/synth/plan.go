package synth

import (
	"fmt"

	"hasheq/internal/model"
	"hasheq/internal/policy"
)

// HashStrategy selects how one property contributes to the hash accumulator.
type HashStrategy uint8

const (
	HashWiden             HashStrategy = iota + 1 // integers up to 32 bits, widened as is
	HashLong                                      // 64-bit integers, high xor low
	HashFloatBits                                 // float32 bit pattern
	HashDoubleBits                                // float64 bit pattern, high xor low
	HashBool                                      // 1231 / 1237
	HashArray                                     // element-wise
	HashReference                                 // the value's own hash
	HashReferenceNullable                         // 0 for nil, else the value's own hash
)

func (s HashStrategy) String() string {
	switch s {
	case HashWiden:
		return "widen"
	case HashLong:
		return "long"
	case HashFloatBits:
		return "float-bits"
	case HashDoubleBits:
		return "double-bits"
	case HashBool:
		return "bool"
	case HashArray:
		return "array"
	case HashReference:
		return "reference"
	case HashReferenceNullable:
		return "reference-nullable"
	}
	return fmt.Sprintf("HashStrategy(%d)", uint8(s))
}

// EqualStrategy selects how one property is compared.
type EqualStrategy uint8

const (
	EqualDirect            EqualStrategy = iota + 1 // ==
	EqualFloatBits                                  // float32 bit patterns
	EqualDoubleBits                                 // float64 bit patterns
	EqualArray                                      // element-wise
	EqualReference                                  // the value's own equality
	EqualReferenceNullSafe                          // both nil, or both non-nil and equal
)

func (s EqualStrategy) String() string {
	switch s {
	case EqualDirect:
		return "direct"
	case EqualFloatBits:
		return "float-bits"
	case EqualDoubleBits:
		return "double-bits"
	case EqualArray:
		return "array"
	case EqualReference:
		return "reference"
	case EqualReferenceNullSafe:
		return "reference-null-safe"
	}
	return fmt.Sprintf("EqualStrategy(%d)", uint8(s))
}

// HashStep is one multiply-then-xor round.
type HashStep struct {
	Property string
	Type     model.Type
	Strategy HashStrategy
	// Nullable is only meaningful for HashArray: a nil array contributes 0.
	Nullable bool
}

// HashPlan describes a HashCode body. Steps run in order after h = Seed.
type HashPlan struct {
	Seed       int32
	Multiplier int32
	Steps      []HashStep
}

// EqualTerm is one conjunct of the equality expression.
type EqualTerm struct {
	Property string
	Type     model.Type
	Strategy EqualStrategy
}

// EqualsPlan describes an Equal body: identity short-circuit, exact type check,
// then the conjunction of Terms, left to right. No terms means any value of the
// same type is equal.
type EqualsPlan struct {
	TypeName    string
	Identity    bool
	NominalType bool
	Terms       []EqualTerm
}

// Vacuous reports whether the plan compares no properties.
func (p EqualsPlan) Vacuous() bool {
	return len(p.Terms) == 0
}

// Plan bundles everything generated for one value type.
type Plan struct {
	Type    string
	Package string
	Outcome policy.Outcome
	Equals  EqualsPlan
	Hash    HashPlan
}
