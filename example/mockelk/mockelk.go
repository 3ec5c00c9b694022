// Package mockelk serves a fake elk-data endpoint for demos and manual
// testing of the sync client.
//
// Health queries (type=health) always report healthy. Data queries
// (type=both) return a few random logs and metrics per request, and every
// FailEvery-th data query answers 503 so the ERROR path can be observed.
package mockelk

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

var (
	eventTypes  = []string{"page_view", "click", "add_to_cart", "purchase", "search", "error"}
	users       = []string{"u-1001", "u-1002", "u-1003", ""}
	metricNames = []string{"response_time_ms", "active_users", "cpu_percent", "orders_per_minute"}
)

// Server is a fake elk-data endpoint.
type Server struct {
	// FailEvery makes every n-th data query fail with 503. Zero disables it.
	FailEvery int

	mu       sync.Mutex
	rng      *rand.Rand
	requests int
}

// New creates a Server seeded with seed.
func New(seed int64) *Server {
	return &Server{rng: rand.New(rand.NewSource(seed))}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch q.Get("type") {
	case "health":
		writeJSON(w, http.StatusOK, map[string]any{
			"status":              "healthy",
			"elk_healthy":         true,
			"realtime_sync_ready": true,
			"data_prep_kit_ready": true,
		})
	case "both", "logs", "metrics":
		s.serveData(w, q.Get("type"), q.Get("limit"))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown type"})
	}
}

func (s *Server) serveData(w http.ResponseWriter, kind, rawLimit string) {
	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	s.requests++
	if s.FailEvery > 0 && s.requests%s.FailEvery == 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "elasticsearch unavailable"})
		return
	}

	now := time.Now().UTC()
	data := map[string]any{}
	var types []string
	total := 0

	if kind == "both" || kind == "logs" {
		logs := s.logs(min(s.rng.Intn(6), limit), now)
		data["logs"] = map[string]any{"count": len(logs), "items": logs}
		types = append(types, "logs")
		total += len(logs)
	}
	if kind == "both" || kind == "metrics" {
		ms := s.metrics(min(s.rng.Intn(4), limit), now)
		data["metrics"] = map[string]any{"count": len(ms), "items": ms}
		types = append(types, "metrics")
		total += len(ms)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp":     now.Format(time.RFC3339),
		"realtime_mode": true,
		"data":          data,
		"summary": map[string]any{
			"total_records": total,
			"data_types":    types,
		},
		"sync_info": map[string]any{
			"next_update_in_seconds":       30,
			"recommended_polling_interval": "30s",
		},
	})
}

// logs must be called with s.mu held.
func (s *Server) logs(n int, now time.Time) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		event := eventTypes[s.rng.Intn(len(eventTypes))]
		level := "info"
		msg := fmt.Sprintf("%s event recorded", event)
		if event == "error" {
			level = "error"
			msg = "checkout failed: payment gateway timeout"
		}

		entry := map[string]any{
			"timestamp":  now.Add(-time.Duration(s.rng.Intn(30)) * time.Second).Format(time.RFC3339),
			"event_type": event,
			"level":      level,
			"message":    msg,
		}
		if u := users[s.rng.Intn(len(users))]; u != "" {
			entry["user_id"] = u
		}
		out = append(out, entry)
	}
	return out
}

// metrics must be called with s.mu held.
func (s *Server) metrics(n int, now time.Time) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"timestamp": now.Format(time.RFC3339),
			"name":      metricNames[s.rng.Intn(len(metricNames))],
			"value":     s.rng.Float64() * 100,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
