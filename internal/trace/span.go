package trace

import (
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seq   atomic.Uint64
	spans atomic.Uint64
)

// NextSeq numbers events in emission order across all tracers of the process.
func NextSeq() uint64 {
	return seq.Add(1)
}

// Span is one timed step of a run: a package, a pass over it, or the synthesis
// of one value type. A span that the tracer filters out is inert and all of
// its methods are no-ops.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin opens a span under parent (0 for a root) and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      spans.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Name:     name,
	})
	return s
}

// WithExtra attaches key=value to the end event, e.g. the type name or the
// number of bytes rendered.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// End emits the end event and returns how long the span was open. The
// duration is also recorded under the "elapsed" extra.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	dur := time.Since(s.started)
	s.WithExtra("elapsed", strconv.FormatInt(dur.Microseconds(), 10)+"µs")
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return dur
}

// ID returns the span ID; an inert span has ID 0, so children become roots.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
