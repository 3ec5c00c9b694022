// Package server provides the optional HTTP status server of a sync session.
//
// The server is read-only and exposes what the session already records:
//
//   - GET /api/status: the latest status snapshot as JSON
//   - GET /api/sse: every new snapshot via Server-Sent Events
//   - GET /metrics: the session's Prometheus collectors
//   - GET /healthz: liveness probe
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the livesync library should not need to interact with this
// package directly. The server is started by [livesync.Syncer.Run] when an
// address is configured.
package server
