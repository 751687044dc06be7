package fuzztests

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"hasheq/internal/diag"
	"hasheq/internal/extract"
	"hasheq/internal/model"
	"hasheq/internal/policy"
	"hasheq/internal/render"
	"hasheq/internal/source"
	"hasheq/internal/synth"
	"hasheq/internal/testkit"
)

// pipelineTimeout is the maximum time allowed for one input.
// If the pipeline takes longer, it indicates a potential infinite loop.
const pipelineTimeout = 5 * time.Second

func extractInput(input []byte) (*extract.Package, *diag.Bag, *source.FileSet, *model.Vocabulary) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fuzz.go", input)
	bag := diag.NewBag(128)
	vocab := model.DefaultVocabulary()
	x := extract.New(fs, diag.BagReporter{Bag: bag}, extract.Options{Vocab: vocab})
	return x.Source(id), bag, fs, vocab
}

func FuzzExtractSynthRender(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		pkg, bag, fs, vocab := extractInput(clampInput(input))
		if bag.HasErrors() {
			return
		}

		var plans []*synth.Plan
		for i := range pkg.Types {
			vt := &pkg.Types[i]
			if err := testkit.CheckSpanInvariants(vt, fs.Get(pkg.Files[0])); err != nil {
				t.Fatalf("span invariant: %v", err)
			}
			if !policy.Applicable(vt) {
				continue
			}
			plan, err := synth.Synthesize(vt, vocab)
			var ce *policy.ConflictError
			if errors.As(err, &ce) {
				continue
			}
			if err != nil {
				t.Fatalf("synthesize %s: %v", vt.Name, err)
			}
			if err := testkit.CheckPlanInvariants(vt, plan); err != nil {
				t.Fatalf("plan invariant: %v", err)
			}
			plans = append(plans, plan)
		}
		if len(plans) == 0 {
			return
		}

		out, err := render.File(pkg.Name, plans, render.Options{})
		if err != nil {
			t.Fatalf("render: %v\ninput: %q", err, truncateForLog(input, 200))
		}
		if !bytes.HasPrefix(out, []byte(render.Header)) {
			t.Fatalf("rendered file lacks header")
		}
	})
}

// FuzzExtractNoHang checks that extraction finishes on any input.
func FuzzExtractNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("package p\n\ntype A B\ntype B A\n\n//hasheq:generate\ntype T struct{ X A }\n"))
	f.Add([]byte("package p\n\ntype T struct{ T }\n"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _, _, _ = extractInput(input)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("extract hang detected: took longer than %v\ninput (%d bytes): %q",
				pipelineTimeout, len(input), truncateForLog(input, 200))
		}
	})
}
