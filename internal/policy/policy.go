package policy

import (
	"fmt"

	"hasheq/internal/model"
)

// Outcome classifies how a value type uses the inclusion and exclusion markers.
type Outcome uint8

const (
	// AllIncluded: neither marker appears, every property participates.
	AllIncluded Outcome = iota
	// ForceExcludeMarked: every property participates except those marked for exclusion.
	ForceExcludeMarked
	// ForceIncludeOnlyMarked: only properties marked for inclusion participate.
	ForceIncludeOnlyMarked
	// Conflict: both markers appear on the same type.
	Conflict
)

func (o Outcome) String() string {
	switch o {
	case AllIncluded:
		return "all-included"
	case ForceExcludeMarked:
		return "exclude-marked"
	case ForceIncludeOnlyMarked:
		return "include-only-marked"
	case Conflict:
		return "conflict"
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// Classify computes the outcome from the union of annotations over all properties of a type.
func Classify(union model.Annotations) Outcome {
	exclude := union.Has(model.MarkerExclude)
	include := union.Has(model.MarkerInclude)
	switch {
	case exclude && include:
		return Conflict
	case exclude:
		return ForceExcludeMarked
	case include:
		return ForceIncludeOnlyMarked
	default:
		return AllIncluded
	}
}

// ShouldInclude decides whether one property participates in equality and hashing.
// Under Conflict every property is included; Check and synth.Synthesize reject a
// conflicting type before any property is asked about.
func ShouldInclude(outcome Outcome, props model.Annotations) bool {
	switch outcome {
	case ForceIncludeOnlyMarked:
		return props.Has(model.MarkerInclude)
	case ForceExcludeMarked:
		return !props.Has(model.MarkerExclude)
	case AllIncluded, Conflict:
		return true
	}
	panic(fmt.Sprintf("policy: unknown outcome %d", uint8(outcome)))
}

// Included filters props down to participating properties, keeping declaration order.
func Included(outcome Outcome, props []model.Property) []model.Property {
	out := make([]model.Property, 0, len(props))
	for _, p := range props {
		if ShouldInclude(outcome, p.Annotations) {
			out = append(out, p)
		}
	}
	return out
}

// Applicable reports whether the generator should act on a type at all: either the type
// opted in explicitly or one of its properties uses a policy marker.
func Applicable(vt *model.ValueType) bool {
	if vt.OptIn {
		return true
	}
	u := vt.AnnotationUnion()
	return u.Has(model.MarkerExclude) || u.Has(model.MarkerInclude)
}
