package livesync

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithStatusCallback_ReceivesSnapshots(t *testing.T) {
	_, server := newRemote(t, always(http.StatusOK, clickBody))
	dir := t.TempDir()

	rec, err := runUntil(t, server, dir, StatusActive)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	starting, ok := rec.first(StatusStarting)
	if !ok {
		t.Fatalf("no STARTING snapshot, got %v", rec.statuses())
	}
	if starting.APIURL != server.URL+"/api/elk-data" {
		t.Errorf("APIURL = %q", starting.APIURL)
	}
	if starting.LocalDirectory != dir {
		t.Errorf("LocalDirectory = %q, want %q", starting.LocalDirectory, dir)
	}
	if starting.SyncInterval != 0.02 {
		t.Errorf("SyncInterval = %v, want 0.02", starting.SyncInterval)
	}
	if starting.LastSync != nil {
		t.Errorf("LastSync = %v, want nil", starting.LastSync)
	}
	if starting.RunID == "" {
		t.Error("RunID is empty")
	}
	if starting.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
}

func TestWithStatusCallback_PanicRecovered(t *testing.T) {
	_, server := newRemote(t, always(http.StatusOK, clickBody))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var secondCalls atomic.Int32
	s, err := New(
		WithEndpoint(server.URL),
		WithDirectory(t.TempDir()),
		WithInterval(10*time.Millisecond),
		WithLogger(logger),
		WithStatusCallback(func(Snapshot) {
			panic("callback exploded")
		}),
		WithStatusCallback(func(snap Snapshot) {
			secondCalls.Add(1)
			if snap.Status == StatusActive {
				cancel()
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	// STARTING, ACTIVE, STOPPED
	if got := secondCalls.Load(); got != 3 {
		t.Errorf("second callback calls = %d, want 3", got)
	}
	if !strings.Contains(buf.String(), "status callback panicked") {
		t.Error("callback panic was not logged")
	}
}
