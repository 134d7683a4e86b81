// Package trace records what the patch compiler is doing while it does it.
//
// Tracers receive begin/end/point events scoped to the driver, a pass, a
// block or an IR slot. The level decides which scopes are kept:
//
//   - phase: driver and pass boundaries
//   - detail: plus per-block lowering and linking
//   - debug: plus per-slot scheduling
//
// StreamTracer writes text or NDJSON immediately, RingTracer keeps the tail in
// memory for crash dumps, and OTelTracer forwards spans to an OTLP collector.
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "typegraph", parent)
//	defer span.End("")
package trace
