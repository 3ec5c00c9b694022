package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/livesync/internal/record"
)

func TestBuildDigest_Counts(t *testing.T) {
	logs := []record.Record{
		{"event_type": "click", "level": "info"},
		{"event_type": "click", "level": "info"},
		{"event_type": "checkout", "level": "error", "message": "card declined"},
		{"level": "ERROR"},
	}

	d := BuildDigest(DigestInput{Logs: logs})

	if d.Total != 4 {
		t.Errorf("Total = %d, want 4", d.Total)
	}
	if d.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", d.ErrorCount)
	}
	if d.ErrorRate != 50 {
		t.Errorf("ErrorRate = %v, want 50", d.ErrorRate)
	}

	want := []EventCount{{"checkout", 1}, {"click", 2}, {"unknown", 1}}
	if len(d.EventTypes) != len(want) {
		t.Fatalf("EventTypes = %v, want %v", d.EventTypes, want)
	}
	for i := range want {
		if d.EventTypes[i] != want[i] {
			t.Errorf("EventTypes[%d] = %v, want %v", i, d.EventTypes[i], want[i])
		}
	}
}

// TestBuildDigest_NoLogs verifies the zero-logs case renders a 0% error rate
// instead of dividing by zero.
func TestBuildDigest_NoLogs(t *testing.T) {
	d := BuildDigest(DigestInput{})

	if d.Total != 0 || d.ErrorCount != 0 {
		t.Errorf("Total/ErrorCount = %d/%d, want 0/0", d.Total, d.ErrorCount)
	}
	if d.ErrorRate != 0 {
		t.Errorf("ErrorRate = %v, want 0", d.ErrorRate)
	}

	var sb strings.Builder
	if err := WriteDigest(&sb, DigestInput{}); err != nil {
		t.Fatalf("WriteDigest() error = %v", err)
	}
	out := sb.String()
	for _, want := range []string{"Total Events: 0", "Error Rate: 0.0%", "Event Types: none"} {
		if !strings.Contains(out, want) {
			t.Errorf("digest missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ERROR DETAILS") {
		t.Error("digest should not contain an error details block without errors")
	}
}

func TestBuildDigest_LatestLimitedToTwenty(t *testing.T) {
	var logs []record.Record
	for i := 0; i < 25; i++ {
		logs = append(logs, record.Record{"event_name": fmt.Sprintf("ev-%d", i)})
	}

	d := BuildDigest(DigestInput{Logs: logs})

	if len(d.Latest) != 20 {
		t.Fatalf("len(Latest) = %d, want 20", len(d.Latest))
	}
	if d.Latest[0].Name != "ev-5" || d.Latest[19].Name != "ev-24" {
		t.Errorf("Latest spans %s..%s, want ev-5..ev-24", d.Latest[0].Name, d.Latest[19].Name)
	}
}

func TestBuildDigest_ErrorsLimitedToTen(t *testing.T) {
	var logs []record.Record
	for i := 0; i < 15; i++ {
		logs = append(logs, record.Record{"level": "error", "message": fmt.Sprintf("boom-%d", i)})
	}

	d := BuildDigest(DigestInput{Logs: logs})

	if d.ErrorCount != 15 {
		t.Errorf("ErrorCount = %d, want 15", d.ErrorCount)
	}
	if len(d.Errors) != 10 {
		t.Fatalf("len(Errors) = %d, want 10", len(d.Errors))
	}
	if d.Errors[0].Message != "boom-5" {
		t.Errorf("Errors[0].Message = %q, want boom-5", d.Errors[0].Message)
	}
}

func TestBuildDigest_DisplayDefaults(t *testing.T) {
	long := strings.Repeat("é", 200)
	d := BuildDigest(DigestInput{Logs: []record.Record{
		{},
		{"event_type": "click", "message": long, "user_id": "u1", "level": "warn"},
	}})

	empty := d.Latest[0]
	if empty.Timestamp != "N/A" || empty.Level != "INFO" || empty.Name != "unknown" ||
		empty.User != "anonymous" || empty.Message != "No message" {
		t.Errorf("defaults = %+v", empty)
	}

	full := d.Latest[1]
	if full.Name != "click" {
		t.Errorf("Name = %q, want event_type fallback %q", full.Name, "click")
	}
	if full.Level != "WARN" {
		t.Errorf("Level = %q, want WARN", full.Level)
	}
	if got := len([]rune(full.Message)); got != 150 {
		t.Errorf("message runes = %d, want 150", got)
	}
}

func TestWriteDigest_Content(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	in := DigestInput{
		GeneratedAt: now,
		Source:      "https://example.com/api/elk-data",
		Interval:    30 * time.Second,
		Logs: []record.Record{
			{"timestamp": "2024-03-02T09:59:00Z", "event_type": "checkout", "event_name": "pay",
				"level": "error", "user_id": "u7", "message": "card declined"},
		},
		Files:      Files{Logs: "d/live_logs.json", Metrics: "d/live_metrics.json", Readable: "d/logs_readable.txt", Status: "d/sync_status.json"},
		NextUpdate: now.Add(30 * time.Second),
		Running:    true,
	}

	var sb strings.Builder
	if err := WriteDigest(&sb, in); err != nil {
		t.Fatalf("WriteDigest() error = %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"Generated: 2024-03-02 10:00:00",
		"Source: https://example.com/api/elk-data",
		"Update Interval: 30 seconds",
		"RECENT ACTIVITY (1 new events):",
		"Error Rate: 100.0%",
		"  checkout: 1",
		"[2024-03-02T09:59:00Z] ERROR",
		"Event: pay",
		"User: u7",
		"!! ERROR DETECTED",
		"ERROR DETAILS (1 errors):",
		"Error: card declined",
		"- Raw JSON: d/live_logs.json",
		"NEXT UPDATE: 10:00:30",
		"LIVE STATUS: ACTIVE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("digest missing %q:\n%s", want, out)
		}
	}
}
