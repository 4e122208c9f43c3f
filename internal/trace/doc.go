// Package trace records what dnt does while it transforms a module graph.
//
// Tracing exists to answer two questions: where the time goes (slow remote
// hosts, large modules) and what a stuck run is waiting on.
//
//	dnt transform mod.ts --out npm --trace=- --trace-level=module
//
// Tracers:
//
//   - Nop: used when tracing is off
//   - StreamTracer: writes each event as it happens
//   - RingTracer: keeps the last N events for a dump on failure
//   - MultiTracer: fans out to several tracers
//
// Scopes go from coarse to fine: ScopeDriver (the CLI command), ScopeStage
// (load, map, rewrite, write) and ScopeModule (one module in one stage).
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tr)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "load", 0)
//	defer span.End("")
package trace
