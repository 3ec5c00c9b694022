package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/livesync"
	"github.com/jpalmerr/livesync/example/mockelk"
)

func main() {
	// start mock endpoint (see mockelk)
	mux := http.NewServeMux()
	mux.Handle("/api/elk-data", mockelk.New(time.Now().UnixNano()))
	go func() {
		if err := http.ListenAndServe(":9999", mux); err != nil {
			slog.Error("mock server error", "error", err)
			os.Exit(1)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	syncer, err := livesync.New(
		livesync.WithEndpoint("http://localhost:9999/api/elk-data"),
		livesync.WithDirectory("./example_data"),
		livesync.WithInterval(5*time.Second),
		livesync.WithLogger(logger),
		livesync.WithStatusCallback(func(s livesync.Snapshot) {
			fmt.Printf("  %-9s +%d records (total %d)\n", s.Status, s.NewRecordsThisSync, s.TotalRecordsSynced)
		}),
	)
	if err != nil {
		slog.Error("failed to create syncer", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  livesync demo")
	fmt.Println()
	fmt.Println("  Syncing http://localhost:9999/api/elk-data every 5s")
	fmt.Println("  into ./example_data")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := syncer.Run(ctx); err != nil {
		slog.Error("sync error", "error", err)
		os.Exit(1)
	}
}
