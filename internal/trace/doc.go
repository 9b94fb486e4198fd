// Package trace records what the compiler does and in which order.
//
// Enable it from the command line:
//
//	rfc lower --trace=- --trace-level=detail app.rfast
//
// Implementations:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events and dumps them when a unit fails
//   - MultiTracer: fans out to several tracers
//
// Levels gate scopes: phase shows driver and pass boundaries, detail adds
// per-function lowering, debug adds node-level points.
//
// The tracer travels through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "analyze", 0)
//	defer span.End("")
package trace
