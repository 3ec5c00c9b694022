package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// PanicError is returned by [Loop.Run] when a cycle panics.
type PanicError struct {
	// CorrelationID ties the user-facing error to the logged stack trace.
	CorrelationID string

	// Value is the recovered panic value.
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("cycle panic: %v (correlation_id: %s)", e.Value, e.CorrelationID)
}

// CycleFunc performs one fetch cycle. A non-nil error stops the loop.
type CycleFunc func(ctx context.Context) error

// Loop runs cycles one at a time on a fixed cadence.
//
// The first cycle runs immediately. After each cycle the loop sleeps for the
// full interval, so the effective period is interval plus cycle duration and
// cycles never overlap.
type Loop struct {
	interval time.Duration
	logger   *slog.Logger
}

// NewLoop creates a [Loop] that sleeps interval between cycles.
func NewLoop(interval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		interval: interval,
		logger:   logger,
	}
}

// Run executes cycle until ctx is cancelled or cycle fails.
//
// ctx is checked at the top of every iteration and observed during the sleep,
// so cancellation never waits for the remainder of an interval. Returns nil
// when stopped through ctx, the cycle's error when it fails, or a
// [*PanicError] when it panics.
func (l *Loop) Run(ctx context.Context, cycle CycleFunc) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := l.safeCycle(ctx, cycle); err != nil {
			return err
		}

		if !Sleep(ctx, l.interval) {
			return nil
		}
	}
}

// safeCycle calls cycle with panic recovery.
// The full stack trace is logged with a correlation ID that is also carried
// by the returned error.
func (l *Loop) safeCycle(ctx context.Context, cycle CycleFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			l.logger.Error("cycle panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			err = &PanicError{CorrelationID: correlationID, Value: r}
		}
	}()
	return cycle(ctx)
}

// Sleep blocks for d or until ctx is done. It reports whether the full
// duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
