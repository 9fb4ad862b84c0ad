// Package audit records security-relevant and state-changing actions
// performed on behalf of tenants.
//
// Emitters build an Event and hand it to a Sink. A Sink never returns an
// error and must not block the operation that produced the event, so slow
// or fallible destinations sit behind Async or JobSink.
//
// Sinks:
//
//   - LogSink writes structured slog records ("audit_event").
//   - MetricsSink counts events by action and outcome in Prometheus.
//   - JobSink enqueues events for PersistTask, which writes them to Store.
//   - Async buffers events in memory and drops them when full.
//   - Multi fans out to several sinks; Nop discards everything.
//
// A typical wiring:
//
//	sink := audit.NewAsync(audit.Multi(
//	    audit.NewLogSink(log),
//	    metrics,
//	    audit.NewJobSink(jobs, audit.NewLogSink(log)),
//	))
//	defer sink.Close(ctx)
package audit
