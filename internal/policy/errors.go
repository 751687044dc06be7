package policy

import (
	"fmt"

	"hasheq/internal/model"
)

// ConflictError reports a type that uses both the inclusion and the exclusion marker.
type ConflictError struct {
	Type    string
	Include string // display name of the inclusion marker
	Exclude string // display name of the exclusion marker
	// first properties carrying each marker, for diagnostics
	IncludedBy *model.Property
	ExcludedBy *model.Property
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: @%s and @%s cannot be used on the same type", e.Type, e.Include, e.Exclude)
}

// Check classifies vt and turns a Conflict into a *ConflictError.
func Check(vt *model.ValueType, vocab *model.Vocabulary) (Outcome, error) {
	outcome := Classify(vt.AnnotationUnion())
	if outcome != Conflict {
		return outcome, nil
	}
	err := &ConflictError{
		Type:    vt.Name,
		Include: vocab.Display(model.MarkerInclude),
		Exclude: vocab.Display(model.MarkerExclude),
	}
	err.IncludedBy, _ = vt.FirstWith(model.MarkerInclude)
	err.ExcludedBy, _ = vt.FirstWith(model.MarkerExclude)
	return outcome, err
}
