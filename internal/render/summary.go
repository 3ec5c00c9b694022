package render

import (
	"fmt"
	"io"
	"text/template"
	"time"
)

// SummaryInput is everything the run summary is rendered from.
type SummaryInput struct {
	UpdatedAt   time.Time
	Website     string
	Directory   string
	Interval    time.Duration
	TotalSynced int

	// RemoteTotal and DataTypes come from the server's summary block.
	RemoteTotal int
	DataTypes   []string
	Realtime    bool

	// LastSync is zero when no cycle has succeeded yet.
	LastSync   time.Time
	NextUpdate time.Time
	Running    bool
	Files      Files
}

// WriteSummary renders the run summary for in to w.
func WriteSummary(w io.Writer, in SummaryInput) error {
	if err := summaryTmpl.Execute(w, in); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}

var summaryTmpl = template.Must(template.New("summary").Funcs(funcs).Parse(`
REAL-TIME DATA SYNC
================================
Last Updated: {{.UpdatedAt.Format "2006-01-02T15:04:05.000000Z07:00"}}
Website: {{.Website}}
Local Directory: {{.Directory}}
Sync Interval: {{secs .Interval}} seconds
Total Records Synced: {{.TotalSynced}}

CURRENT STATUS:
- Total Records: {{.RemoteTotal}}
- Data Types: {{join .DataTypes ", "}}
- Real-time Mode: {{if .Realtime}}ENABLED{{else}}DISABLED{{end}}
- Last Sync: {{if .LastSync.IsZero}}Never{{else}}{{stamp .LastSync}}{{end}}

FILES UPDATED:
- {{.Files.Logs}}  -> Raw log data (JSON format)
- {{.Files.Metrics}}  -> Raw metrics data (JSON format)
- {{.Files.Readable}}  -> Human-readable log summary
- {{.Files.Summary}}  -> This summary file
- {{.Files.Status}}  -> Technical sync status

AUTOMATIC UPDATES:
This process polls the remote endpoint and updates these local files
whenever new logs or metrics are generated.

CONTROL:
- Stop sync: press Ctrl+C in the terminal
- Check status: look at {{.Files.Status}}

NEXT UPDATE: {{clock .NextUpdate}}
STATUS: {{if .Running}}RUNNING{{else}}STOPPED{{end}}
`))
