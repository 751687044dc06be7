package synth

import (
	"fmt"

	"hasheq/internal/model"
	"hasheq/internal/policy"
	"hasheq/runtime/hasheq"
)

// SynthesizeHashCode builds the hash plan for the included properties, in declaration order.
// outcome must not be policy.Conflict.
func SynthesizeHashCode(props []model.Property, outcome policy.Outcome) HashPlan {
	plan := HashPlan{Seed: hasheq.Seed, Multiplier: hasheq.Multiplier}
	for _, p := range policy.Included(outcome, props) {
		plan.Steps = append(plan.Steps, HashStep{
			Property: p.Name,
			Type:     p.Type,
			Strategy: hashStrategy(p),
			Nullable: p.Type.Kind == model.KindArray && p.Nullable(),
		})
	}
	return plan
}

// SynthesizeEquals builds the equality plan for the included properties, in declaration order.
// outcome must not be policy.Conflict.
func SynthesizeEquals(typeName string, props []model.Property, outcome policy.Outcome) EqualsPlan {
	plan := EqualsPlan{TypeName: typeName, Identity: true, NominalType: true}
	for _, p := range policy.Included(outcome, props) {
		plan.Terms = append(plan.Terms, EqualTerm{
			Property: p.Name,
			Type:     p.Type,
			Strategy: equalStrategy(p),
		})
	}
	return plan
}

// Synthesize classifies vt and builds both plans. A conflicting type yields a
// *policy.ConflictError and no plan.
func Synthesize(vt *model.ValueType, vocab *model.Vocabulary) (*Plan, error) {
	outcome, err := policy.Check(vt, vocab)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Type:    vt.Name,
		Package: vt.Package,
		Outcome: outcome,
		Equals:  SynthesizeEquals(vt.Name, vt.Properties, outcome),
		Hash:    SynthesizeHashCode(vt.Properties, outcome),
	}, nil
}

func hashStrategy(p model.Property) HashStrategy {
	switch p.Type.Kind {
	case model.KindInt8, model.KindInt16, model.KindInt32,
		model.KindUint8, model.KindUint16, model.KindUint32:
		return HashWiden
	case model.KindInt64, model.KindUint64:
		return HashLong
	case model.KindFloat32:
		return HashFloatBits
	case model.KindFloat64:
		return HashDoubleBits
	case model.KindBool:
		return HashBool
	case model.KindArray:
		return HashArray
	case model.KindReference:
		if p.Nullable() {
			return HashReferenceNullable
		}
		return HashReference
	case model.KindInvalid:
	}
	panic(fmt.Sprintf("synth: property %s has unsupported kind %v", p.Name, p.Type.Kind))
}

func equalStrategy(p model.Property) EqualStrategy {
	switch p.Type.Kind {
	case model.KindInt8, model.KindInt16, model.KindInt32,
		model.KindUint8, model.KindUint16, model.KindUint32,
		model.KindInt64, model.KindUint64, model.KindBool:
		return EqualDirect
	case model.KindFloat32:
		return EqualFloatBits
	case model.KindFloat64:
		return EqualDoubleBits
	case model.KindArray:
		return EqualArray
	case model.KindReference:
		if p.Nullable() {
			return EqualReferenceNullSafe
		}
		return EqualReference
	case model.KindInvalid:
	}
	panic(fmt.Sprintf("synth: property %s has unsupported kind %v", p.Name, p.Type.Kind))
}
