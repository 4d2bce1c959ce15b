// Package trace records what the lowering engine does while it runs.
//
// A driver attaches a Tracer to its context and the compiler emits span
// and point events for the program, each pass over the declarations, and
// each declaration lowered:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "libfuncs", parentID)
//	defer span.End("")
//
// Tracers:
//
//   - Nop: disabled tracing, no allocation per event
//   - StreamTracer: writes each event as it arrives (text or NDJSON)
//   - RingTracer: keeps the last N events in memory
//   - MultiTracer: fans out to several tracers
//
// Levels select scopes: LevelPhase keeps driver and pass events,
// LevelDetail adds one event per declaration, LevelDebug adds
// instruction-level events from body emission.
package trace
