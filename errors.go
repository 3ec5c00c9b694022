package livesync

import (
	"errors"
	"fmt"
)

// ErrConnectivity is matched by the error [Syncer.Run] returns when the
// pre-loop connectivity check fails.
var ErrConnectivity = errors.New("connectivity check failed")

// ConnectivityError reports a failed health probe. The loop is never entered.
type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity check failed for %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectivityError) Unwrap() []error {
	return []error{ErrConnectivity, e.Err}
}

// FetchError reports a failed cycle. Its message is the ERROR snapshot's
// detail and it is handed to status callbacks as [Snapshot.Cause]; the cycle
// is retried on the next tick.
type FetchError struct {
	// StatusCode is the HTTP status for non-200 answers, zero otherwise.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CrashError reports that the loop terminated on an unexpected failure.
type CrashError struct {
	// CorrelationID matches the id logged alongside the failure.
	CorrelationID string
	Cause         error
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("sync crashed (correlation_id: %s): %v", e.CorrelationID, e.Cause)
}

func (e *CrashError) Unwrap() error {
	return e.Cause
}
