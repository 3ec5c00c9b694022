// Package livesync keeps a local directory in sync with a remote log and
// metrics endpoint.
//
// A [Syncer] probes the endpoint once, then polls it on a fixed interval and
// materializes every response into plain files that other tools can watch:
//
//   - live_logs.json, live_metrics.json: bounded JSON archives of fetched batches
//   - logs_readable.txt: a human-readable digest of the latest logs
//   - LIVE_SUMMARY.txt: the run summary
//   - sync_status.json: the current status snapshot
//   - sync_metrics.prom: Prometheus metrics in the text exposition format
//
// # Quick Start
//
//	s, _ := livesync.New(
//	    livesync.WithEndpoint("https://example.com/api/elk-data"),
//	    livesync.WithInterval(30 * time.Second),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	s.Run(ctx) // blocks until ctx is cancelled
//
// # Lifecycle
//
// The status snapshot moves through STARTING, then one of ACTIVE, LISTENING
// or ERROR per cycle, and ends in STOPPED (context cancelled) or CRASHED
// (unexpected failure). A failed cycle is retried on the next tick; there is
// no other retry or backoff.
//
// # Architecture
//
// The internal packages are:
//
//   - internal/poller: HTTP client, endpoint queries and the cycle loop
//   - internal/store: bounded archives and atomic file writes
//   - internal/render: digest and summary templates
//   - internal/metrics: Prometheus collectors and textfile output
//   - internal/logging: slog construction with optional file rotation
//   - internal/server: optional HTTP status server ([WithStatusAddr])
//
// The internal packages are not part of the public API and may change
// without notice.
package livesync
