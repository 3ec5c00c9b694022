package livesync

import "time"

// Status is the run state recorded in the status snapshot.
type Status string

const (
	// StatusStarting is written once the connectivity check passed, before
	// the first cycle.
	StatusStarting Status = "STARTING"

	// StatusActive means the last cycle fetched at least one record.
	StatusActive Status = "ACTIVE"

	// StatusListening means the last cycle succeeded but fetched nothing.
	StatusListening Status = "LISTENING"

	// StatusError means the last cycle failed. The loop keeps running and
	// retries on the next tick.
	StatusError Status = "ERROR"

	// StatusStopped is written on graceful shutdown.
	StatusStopped Status = "STOPPED"

	// StatusCrashed is written when the loop terminated on an unexpected failure.
	StatusCrashed Status = "CRASHED"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Snapshot is the body of the status file. It is fully overwritten on every
// state change; no history is kept.
type Snapshot struct {
	// Timestamp is when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`

	// Status is the current run state.
	Status Status `json:"status"`

	// LastSync is the time of the last successful cycle, nil before the first.
	LastSync *time.Time `json:"last_sync"`

	// SyncInterval is the pause between cycles in seconds.
	SyncInterval float64 `json:"sync_interval"`

	// TotalRecordsSynced is the cumulative record count of this run.
	TotalRecordsSynced int `json:"total_records_synced"`

	// NewRecordsThisSync is the number of logs plus metrics fetched by the
	// cycle that produced this snapshot.
	NewRecordsThisSync int `json:"new_records_this_sync"`

	// APIURL is the polled endpoint.
	APIURL string `json:"api_url"`

	// LocalDirectory is where artifacts are written.
	LocalDirectory string `json:"local_directory"`

	// Running is true while the loop is active.
	Running bool `json:"running"`

	// Error carries the failure detail for ERROR and CRASHED snapshots.
	Error *string `json:"error"`

	// Cause is the typed failure behind Error: a [*FetchError] for ERROR
	// and a [*CrashError] for CRASHED. It is not serialized.
	Cause error `json:"-"`

	// RunID identifies the process run that wrote the snapshot.
	RunID string `json:"run_id"`
}
