// Package testkit holds checks shared by tests of the extractor, synthesizer and
// driver.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"hasheq/internal/model"
	"hasheq/internal/policy"
	"hasheq/internal/source"
	"hasheq/internal/synth"
)

// CheckPlanInvariants verifies plan against the type it was built from:
//  1. the hash and equals plans name exactly the properties ShouldInclude keeps
//  2. both follow declaration order
//  3. the hash constants are seed 1 and multiplier 1000003
func CheckPlanInvariants(vt *model.ValueType, plan *synth.Plan) error {
	if vt == nil || plan == nil {
		return fmt.Errorf("nil type or plan")
	}
	if plan.Type != vt.Name || plan.Equals.TypeName != vt.Name {
		return fmt.Errorf("plan for %q built from type %q", plan.Type, vt.Name)
	}
	if plan.Hash.Seed != 1 || plan.Hash.Multiplier != 1000003 {
		return fmt.Errorf("%s: hash constants %d, %d", vt.Name, plan.Hash.Seed, plan.Hash.Multiplier)
	}

	var want []string
	for _, p := range vt.Properties {
		if policy.ShouldInclude(plan.Outcome, p.Annotations) {
			want = append(want, p.Name)
		}
	}
	if len(plan.Hash.Steps) != len(want) {
		return fmt.Errorf("%s: %d hash steps, want %d", vt.Name, len(plan.Hash.Steps), len(want))
	}
	if len(plan.Equals.Terms) != len(want) {
		return fmt.Errorf("%s: %d equal terms, want %d", vt.Name, len(plan.Equals.Terms), len(want))
	}
	for i, name := range want {
		if got := plan.Hash.Steps[i].Property; got != name {
			return fmt.Errorf("%s: hash step %d is %q, want %q", vt.Name, i, got, name)
		}
		if got := plan.Equals.Terms[i].Property; got != name {
			return fmt.Errorf("%s: equal term %d is %q, want %q", vt.Name, i, got, name)
		}
	}
	return nil
}

// CheckSpanInvariants verifies that the type and property spans point into sf and
// that every property lies after the type name.
func CheckSpanInvariants(vt *model.ValueType, sf *source.File) error {
	if vt == nil || sf == nil {
		return fmt.Errorf("nil type or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.End < sp.Start || sp.End > size {
			return fmt.Errorf("%s span %d..%d outside 0..%d", what, sp.Start, sp.End, size)
		}
		return nil
	}

	if err := check(vt.Name, vt.Span); err != nil {
		return err
	}
	if vt.Span.Empty() {
		return fmt.Errorf("%s: empty type span", vt.Name)
	}
	for _, p := range vt.Properties {
		if err := check(vt.Name+"."+p.Name, p.Span); err != nil {
			return err
		}
		if p.Span.Start < vt.Span.End {
			return fmt.Errorf("%s.%s starts before the type name", vt.Name, p.Name)
		}
	}
	return nil
}
