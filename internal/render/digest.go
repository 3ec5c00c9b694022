package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/jpalmerr/livesync/internal/record"
)

const (
	// latestEventsShown is how many of the newest log entries the digest lists.
	latestEventsShown = 20

	// errorDetailsShown is how many of the newest errors get a detail block.
	errorDetailsShown = 10

	// messageMaxRunes truncates long messages in the event list.
	messageMaxRunes = 150
)

// Files lists the artifact paths mentioned in the reports.
type Files struct {
	Logs     string
	Metrics  string
	Readable string
	Summary  string
	Status   string
}

// DigestInput is everything the readable log digest is rendered from.
type DigestInput struct {
	GeneratedAt time.Time
	Source      string
	Interval    time.Duration
	Logs        []record.Record
	Files       Files
	NextUpdate  time.Time
	Running     bool
}

// EventCount is one row of the event type tally.
type EventCount struct {
	Type  string
	Count int
}

// Event is a log entry prepared for display.
type Event struct {
	Timestamp string
	Level     string
	Name      string
	User      string
	Message   string
	IsError   bool
}

// Digest holds the statistics computed from a batch of logs.
type Digest struct {
	DigestInput

	Total      int
	ErrorCount int
	ErrorRate  float64
	EventTypes []EventCount
	Latest     []Event
	Errors     []Event
}

// BuildDigest computes the digest statistics for in.Logs.
//
// ErrorRate is 0 when there are no logs.
func BuildDigest(in DigestInput) Digest {
	d := Digest{DigestInput: in, Total: len(in.Logs)}

	counts := make(map[string]int)
	var errs []record.Record
	for _, l := range in.Logs {
		counts[l.String("event_type", "unknown")]++
		if isError(l) {
			errs = append(errs, l)
		}
	}

	d.ErrorCount = len(errs)
	if d.Total > 0 {
		d.ErrorRate = float64(d.ErrorCount) / float64(d.Total) * 100
	}

	d.EventTypes = make([]EventCount, 0, len(counts))
	for t, c := range counts {
		d.EventTypes = append(d.EventTypes, EventCount{Type: t, Count: c})
	}
	sort.Slice(d.EventTypes, func(i, j int) bool {
		return d.EventTypes[i].Type < d.EventTypes[j].Type
	})

	for _, l := range tail(in.Logs, latestEventsShown) {
		d.Latest = append(d.Latest, toEvent(l, true))
	}
	for _, l := range tail(errs, errorDetailsShown) {
		d.Errors = append(d.Errors, toEvent(l, false))
	}
	return d
}

// WriteDigest renders the readable log digest for in to w.
func WriteDigest(w io.Writer, in DigestInput) error {
	if err := digestTmpl.Execute(w, BuildDigest(in)); err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	return nil
}

func isError(l record.Record) bool {
	return strings.EqualFold(l.String("level", ""), "error")
}

// toEvent prepares a record for display. The event list applies display
// defaults and truncation; the error details show raw values.
func toEvent(l record.Record, listing bool) Event {
	if !listing {
		return Event{
			Timestamp: l.String("timestamp", "N/A"),
			Name:      eventName(l, "N/A"),
			User:      l.String("user_id", "N/A"),
			Message:   l.String("message", "N/A"),
			IsError:   true,
		}
	}
	return Event{
		Timestamp: l.String("timestamp", "N/A"),
		Level:     strings.ToUpper(l.String("level", "info")),
		Name:      eventName(l, "unknown"),
		User:      l.String("user_id", "anonymous"),
		Message:   truncate(l.String("message", "No message"), messageMaxRunes),
		IsError:   isError(l),
	}
}

// eventName prefers event_name and falls back to event_type.
func eventName(l record.Record, fallback string) string {
	if l.Has("event_name") {
		return l.String("event_name", fallback)
	}
	return l.String("event_type", fallback)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var funcs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04:05") },
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
	"secs":  func(d time.Duration) string { return fmt.Sprintf("%g", d.Seconds()) },
	"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
	"join":  strings.Join,
}

var digestTmpl = template.Must(template.New("digest").Funcs(funcs).Parse(`
LIVE LOGS - REAL-TIME VIEW
Generated: {{stamp .GeneratedAt}}
Source: {{.Source}}
Update Interval: {{secs .Interval}} seconds
=========================================

RECENT ACTIVITY ({{.Total}} new events):

SUMMARY:
--------
Total Events: {{.Total}}
Error Events: {{.ErrorCount}}
Error Rate: {{pct .ErrorRate}}
Event Types:{{if not .EventTypes}} none{{end}}
{{- range .EventTypes}}
  {{.Type}}: {{.Count}}
{{- end}}

LATEST EVENTS:
--------------
{{- range .Latest}}

[{{.Timestamp}}] {{.Level}}
Event: {{.Name}}
User: {{.User}}
Message: {{.Message}}
{{- if .IsError}}
!! ERROR DETECTED
{{- end}}
---
{{- end}}
{{- if .Errors}}


ERROR DETAILS ({{.ErrorCount}} errors):
==========================================
{{- range .Errors}}

Time: {{.Timestamp}}
Event: {{.Name}}
User: {{.User}}
Error: {{.Message}}
---
{{- end}}
{{- end}}


FILE LOCATIONS:
===============
- Raw JSON: {{.Files.Logs}}
- Metrics: {{.Files.Metrics}}
- This file: {{.Files.Readable}}
- Status: {{.Files.Status}}

NEXT UPDATE: {{clock .NextUpdate}}
LIVE STATUS: {{if .Running}}ACTIVE{{else}}STOPPED{{end}}
`))
