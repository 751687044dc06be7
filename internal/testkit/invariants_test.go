package testkit

import (
	"strings"
	"testing"

	"hasheq/internal/diag"
	"hasheq/internal/extract"
	"hasheq/internal/model"
	"hasheq/internal/source"
	"hasheq/internal/synth"
)

const src = `package p

type T struct {
	A int32 //hasheq:include
	B string
	C bool //hasheq:include
}
`

func extractT(t *testing.T) (*model.ValueType, *source.File, *model.Vocabulary) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("p.go", []byte(src))
	vocab := model.DefaultVocabulary()
	pkg := extract.New(fs, diag.NopReporter{}, extract.Options{Vocab: vocab}).Source(id)
	vt, ok := pkg.Lookup("T")
	if !ok {
		t.Fatal("T not extracted")
	}
	return vt, fs.Get(id), vocab
}

func TestPlanInvariantsHold(t *testing.T) {
	vt, file, vocab := extractT(t)
	plan, err := synth.Synthesize(vt, vocab)
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPlanInvariants(vt, plan); err != nil {
		t.Fatal(err)
	}
	if err := CheckSpanInvariants(vt, file); err != nil {
		t.Fatal(err)
	}
}

func TestPlanInvariantsCatchReorder(t *testing.T) {
	vt, _, vocab := extractT(t)
	plan, err := synth.Synthesize(vt, vocab)
	if err != nil {
		t.Fatal(err)
	}
	steps := plan.Hash.Steps
	steps[0], steps[1] = steps[1], steps[0]
	err = CheckPlanInvariants(vt, plan)
	if err == nil || !strings.Contains(err.Error(), "hash step 0") {
		t.Fatalf("err = %v", err)
	}
}

func TestSpanInvariantsCatchForeignFile(t *testing.T) {
	vt, file, _ := extractT(t)
	vt.Properties[1].Span.File = file.ID + 1
	if err := CheckSpanInvariants(vt, file); err == nil {
		t.Fatal("expected file mismatch")
	}
}
