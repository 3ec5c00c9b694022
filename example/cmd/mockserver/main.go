// Standalone mock elk-data server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/livesync run -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/livesync/example/mockelk"
)

func main() {
	fmt.Println("Mock elk-data server starting on :9999")
	fmt.Println("Every 10th data query fails with 503")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	mock := mockelk.New(time.Now().UnixNano())
	mock.FailEvery = 10

	mux := http.NewServeMux()
	mux.Handle("/api/elk-data", mock)

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
