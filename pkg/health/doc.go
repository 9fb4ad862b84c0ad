// Package health serves liveness and readiness probes.
//
// Liveness only proves the process answers. Readiness probes the gateway's
// dependencies (object store, and the database and Redis when configured)
// concurrently and reports each one:
//
//	{"status":"unhealthy","checks":{"storage":{"status":"unhealthy","error":"...","duration_ms":12}}}
//
// The handlers are mounted by internal.WithHealthChecks.
package health
