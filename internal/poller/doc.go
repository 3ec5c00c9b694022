// Package poller provides the HTTP side of the sync loop.
//
// This package is internal to livesync and handles talking to the remote
// data endpoint and pacing the fetch cycles.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [API]: Typed access to the health and data queries of the endpoint
//   - [Loop]: Runs one cycle at a time, sleeping a full interval in between
//
// Users of the livesync library should not need to interact with this
// package directly. Configuration is done through the main livesync package.
package poller
