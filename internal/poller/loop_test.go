package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestLoop_FirstCycleRunsImmediately verifies no interval elapses before the
// first cycle.
func TestLoop_FirstCycleRunsImmediately(t *testing.T) {
	loop := NewLoop(time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	ran := make(chan struct{}, 1)

	go func() {
		done <- loop.Run(ctx, func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first cycle did not run immediately")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancellation during sleep")
	}
}

func TestLoop_RepeatsOnInterval(t *testing.T) {
	loop := NewLoop(10*time.Millisecond, testLogger())

	var count atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := loop.Run(ctx, func(ctx context.Context) error {
		if count.Add(1) == 3 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if count.Load() != 3 {
		t.Errorf("cycles = %d, want 3", count.Load())
	}
}

func TestLoop_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewLoop(time.Millisecond, testLogger()).Run(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if called {
		t.Error("cycle ran with an already-cancelled context")
	}
}

func TestLoop_CycleErrorStopsLoop(t *testing.T) {
	wantErr := errors.New("disk full")
	calls := 0

	err := NewLoop(time.Millisecond, testLogger()).Run(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// TestLoop_PanicRecovered verifies a panicking cycle surfaces as a PanicError
// carrying a correlation ID instead of crashing the process.
func TestLoop_PanicRecovered(t *testing.T) {
	err := NewLoop(time.Millisecond, testLogger()).Run(context.Background(), func(ctx context.Context) error {
		panic("nil map write")
	})

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Run() error = %v, want *PanicError", err)
	}
	if panicErr.CorrelationID == "" {
		t.Error("CorrelationID is empty")
	}
	if !strings.Contains(panicErr.Error(), "nil map write") {
		t.Errorf("Error() = %q, want panic value included", panicErr.Error())
	}
}

func TestSleep(t *testing.T) {
	if !Sleep(context.Background(), time.Millisecond) {
		t.Error("Sleep() = false, want true when the duration elapses")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if Sleep(ctx, time.Hour) {
		t.Error("Sleep() = true, want false when cancelled")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Sleep() returned after %v, want prompt return on cancel", elapsed)
	}
}
