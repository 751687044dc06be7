package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	load := tm.Begin("load")
	tm.End(load, "3 files")
	ext := tm.Begin("extract")
	time.Sleep(time.Millisecond)
	tm.End(ext, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d", len(r.Phases))
	}
	if r.Phases[0].Name != "load" || r.Phases[0].Note != "3 files" {
		t.Errorf("phase 0 = %+v", r.Phases[0])
	}
	if r.Phases[1].DurationMS <= 0 {
		t.Error("extract should have a positive duration")
	}
	if r.TotalMS < r.Phases[1].DurationMS {
		t.Errorf("total %.3f < phase %.3f", r.TotalMS, r.Phases[1].DurationMS)
	}

	s := tm.Summary()
	for _, want := range []string{"timings:", "load", "// 3 files", "extract", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Error("nil timer must report nothing")
	}
}
