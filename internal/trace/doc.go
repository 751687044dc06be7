// Package trace provides a tracing subsystem for the hasheq generator.
//
// Tracing answers "where did the time go" and "which type is it stuck on"
// without a debugger. It is the only logging layer the generator has:
// diagnostics go to the user, trace events go to whoever asked for them.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	hasheq gen --trace=- --trace-level=detail ./shapes
//
// # Architecture
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer, dumped when generation fails
//   - MultiTracer: fans events out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: ring buffer only, dumped on failure
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-file events
//   - LevelDebug: everything including per-type synthesis
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "extract", parentID)
//	defer span.End("")
package trace
