package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hasheq/internal/project"
	"hasheq/internal/trace"
)

func mkPackages(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		dir := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		src := "package " + filepath.Base(dir) + "\n\n//hasheq:generate\ntype V struct{ N int }\n"
		if err := os.WriteFile(filepath.Join(dir, "v.go"), []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandPatterns(t *testing.T) {
	root := t.TempDir()
	mkPackages(t, root, "a", "a/b", "c", "c/testdata/x", "_skip", ".hidden", "vendor/v")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ExpandPatterns(context.Background(), []string{root + "/...", filepath.Join(root, "a")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "a"), filepath.Join(root, "a", "b"), filepath.Join(root, "c")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dirs (-want +got):\n%s", diff)
	}

	if _, err := ExpandPatterns(context.Background(), []string{filepath.Join(root, "a", "v.go")}); err == nil {
		t.Error("a file is not a package directory")
	}
	if _, err := ExpandPatterns(context.Background(), []string{filepath.Join(root, "missing")}); err == nil {
		t.Error("missing directory must fail")
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func TestGenerateAllReportsProgress(t *testing.T) {
	root := t.TempDir()
	mkPackages(t, root, "a", "b")
	bad := filepath.Join(root, "bad")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	src := "package bad\n\ntype T struct {\n\tA int //hasheq:include\n\tB int //hasheq:ignore\n}\n"
	if err := os.WriteFile(filepath.Join(bad, "t.go"), []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	dirs := []string{filepath.Join(root, "a"), filepath.Join(root, "b"), bad}
	jobs := make([]Job, 0, len(dirs))
	for _, dir := range dirs {
		jobs = append(jobs, Job{Dir: dir, Options: Options{Config: project.Default()}})
	}
	sink := &recordingSink{}
	results, err := GenerateAll(context.Background(), jobs, 2, sink)
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range results {
		if res.Dir != dirs[i] {
			t.Errorf("result %d is for %s", i, res.Dir)
		}
	}

	final := make(map[string]Status)
	stages := make(map[string][]Stage)
	for i, evt := range sink.events {
		if i < len(dirs) && evt.Status != StatusQueued {
			t.Errorf("event %d = %+v, want queued first", i, evt)
		}
		switch evt.Status {
		case StatusWorking:
			stages[evt.Dir] = append(stages[evt.Dir], evt.Stage)
		case StatusDone, StatusError:
			final[evt.Dir] = evt.Status
		}
	}
	wantFinal := map[string]Status{dirs[0]: StatusDone, dirs[1]: StatusDone, bad: StatusError}
	if diff := cmp.Diff(wantFinal, final); diff != "" {
		t.Errorf("final status (-want +got):\n%s", diff)
	}
	wantStages := []Stage{StageLoad, StageExtract, StageSynth, StageRender}
	if diff := cmp.Diff(wantStages, stages[dirs[0]]); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantStages[:3], stages[bad]); diff != "" {
		t.Errorf("conflicting package stages (-want +got):\n%s", diff)
	}
}

func TestGenerateAllCancelled(t *testing.T) {
	root := t.TempDir()
	mkPackages(t, root, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{Dir: filepath.Join(root, "a"), Options: Options{Config: project.Default()}}}
	if _, err := GenerateAll(ctx, jobs, 1, nil); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestGenerateAllNestsPackageSpans(t *testing.T) {
	root := t.TempDir()
	mkPackages(t, root, "a", "b")
	ring := trace.NewRingTracer(256, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	jobs := []Job{
		{Dir: filepath.Join(root, "a"), Options: Options{Config: project.Default()}},
		{Dir: filepath.Join(root, "b"), Options: Options{Config: project.Default()}},
	}
	if _, err := GenerateAll(ctx, jobs, 2, nil); err != nil {
		t.Fatal(err)
	}

	var runID uint64
	packages := 0
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		switch ev.Name {
		case "generate_all":
			runID = ev.SpanID
		case "generate_package":
			packages++
			if runID == 0 || ev.ParentID != runID {
				t.Errorf("package span parent = %d, want run span %d", ev.ParentID, runID)
			}
		}
	}
	if packages != len(jobs) {
		t.Errorf("saw %d package spans, want %d", packages, len(jobs))
	}
}
