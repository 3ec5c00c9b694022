package livesync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/livesync/internal/metrics"
	"github.com/jpalmerr/livesync/internal/poller"
	"github.com/jpalmerr/livesync/internal/record"
	"github.com/jpalmerr/livesync/internal/render"
	"github.com/jpalmerr/livesync/internal/server"
	"github.com/jpalmerr/livesync/internal/store"
)

const (
	defaultDirectory     = "./cogniview_realtime_data"
	defaultInterval      = 30 * time.Second
	defaultHealthTimeout = 10 * time.Second
	defaultFetchTimeout  = 30 * time.Second
	defaultLimit         = 5000
	defaultMetricsFile   = "sync_metrics.prom"
)

// Artifact file names inside the data directory.
const (
	LogsFile     = "live_logs.json"
	MetricsFile  = "live_metrics.json"
	ReadableFile = "logs_readable.txt"
	SummaryFile  = "LIVE_SUMMARY.txt"
	StatusFile   = "sync_status.json"
)

// Syncer polls the remote endpoint and materializes each response into the
// data directory.
//
// A Syncer is one sync session: it owns the last-sync time, the running
// total and the current status for the lifetime of [Syncer.Run]. It is
// created with [New] and driven by a single goroutine.
//
//	s, err := livesync.New(livesync.WithEndpoint("https://example.com/api/elk-data"))
//	if err != nil {
//	    return err
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	return s.Run(ctx) // blocks until ctx is cancelled
type Syncer struct {
	endpoint  string
	website   string
	directory string
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	callbacks []func(Snapshot)

	client        *poller.Client
	api           *poller.API
	logArchive    *store.Archive
	metricArchive *store.Archive
	metrics       *metrics.Metrics
	metricsPath   string
	statusServer  *server.Server
	files         render.Files
	runID         string

	mu      sync.Mutex
	started bool

	// session state, only touched by the Run goroutine
	lastSync    time.Time
	totalSynced int
	running     bool
}

// New creates a [Syncer] with the given options.
//
// [WithEndpoint] is required. Other options have defaults:
//   - Directory: ./cogniview_realtime_data
//   - Interval: 30 seconds
//   - Health timeout: 10 seconds, fetch timeout: 30 seconds
//   - Limit: 5000 records, archive cap: 1000 batches
func New(opts ...Option) (*Syncer, error) {
	cfg := &syncConfig{
		directory:     defaultDirectory,
		interval:      defaultInterval,
		healthTimeout: defaultHealthTimeout,
		fetchTimeout:  defaultFetchTimeout,
		limit:         defaultLimit,
		archiveCap:    store.DefaultArchiveCap,
		metricsFile:   defaultMetricsFile,
		now:           time.Now,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.endpoint == "" {
		return nil, errors.New("an endpoint is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	website := cfg.website
	if website == "" {
		website = siteOf(cfg.endpoint)
	}

	files := render.Files{
		Logs:     filepath.Join(cfg.directory, LogsFile),
		Metrics:  filepath.Join(cfg.directory, MetricsFile),
		Readable: filepath.Join(cfg.directory, ReadableFile),
		Summary:  filepath.Join(cfg.directory, SummaryFile),
		Status:   filepath.Join(cfg.directory, StatusFile),
	}

	var metricsPath string
	if cfg.metricsFile != "" {
		metricsPath = filepath.Join(cfg.directory, cfg.metricsFile)
	}

	client := poller.NewClient()
	m := metrics.New()

	var statusServer *server.Server
	if cfg.statusAddr != "" {
		statusServer = server.NewServer(cfg.statusAddr, m.Handler(), logger)
	}

	return &Syncer{
		endpoint:  cfg.endpoint,
		website:   website,
		directory: cfg.directory,
		interval:  cfg.interval,
		logger:    logger,
		now:       cfg.now,
		callbacks: cfg.callbacks,
		client:    client,
		api: poller.NewAPI(client, poller.APIConfig{
			Endpoint:      cfg.endpoint,
			HealthTimeout: cfg.healthTimeout,
			FetchTimeout:  cfg.fetchTimeout,
			Limit:         cfg.limit,
		}),
		logArchive:    store.NewLogArchive(files.Logs, cfg.archiveCap),
		metricArchive: store.NewMetricArchive(files.Metrics, cfg.archiveCap),
		metrics:       m,
		metricsPath:   metricsPath,
		statusServer:  statusServer,
		files:         files,
		runID:         uuid.NewString(),
	}, nil
}

// Endpoint returns the polled endpoint URL.
func (s *Syncer) Endpoint() string {
	return s.endpoint
}

// Directory returns the directory artifacts are written to.
func (s *Syncer) Directory() string {
	return s.directory
}

// Interval returns the pause between cycles.
func (s *Syncer) Interval() time.Duration {
	return s.interval
}

// StatusAddr returns the bound address of the status server, or "" when
// it is disabled.
func (s *Syncer) StatusAddr() string {
	if s.statusServer == nil {
		return ""
	}
	return s.statusServer.Addr()
}

// RunID returns the identifier recorded in every snapshot of this session.
func (s *Syncer) RunID() string {
	return s.runID
}

// Run checks connectivity and then syncs until ctx is cancelled.
//
// Lifecycle:
//  1. The data directory is created.
//  2. The health query runs once; on failure Run returns a
//     [*ConnectivityError] without entering the loop.
//  3. A STARTING snapshot is written and cycles run every interval.
//  4. Cancelling ctx aborts any in-flight request, writes a STOPPED snapshot
//     and returns nil.
//
// A cycle panic or a failure to write the status snapshot writes a CRASHED
// snapshot (best effort) and returns a [*CrashError]. Run may only be called
// once per Syncer.
func (s *Syncer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("syncer already started")
	}
	s.started = true
	s.mu.Unlock()

	defer s.client.Close()

	if err := os.MkdirAll(s.directory, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	s.logger.Info("sync starting",
		"run_id", s.runID,
		"endpoint", s.endpoint,
		"directory", s.directory,
		"interval", s.interval.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	if s.statusServer != nil {
		// lives until Run returns, including the final snapshot
		srvCtx, cancelSrv := context.WithCancel(context.Background())
		defer cancelSrv()
		if err := s.statusServer.Start(srvCtx); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
	}

	if _, err := s.CheckConnectivity(ctx); err != nil {
		if ctx.Err() != nil {
			return s.stop()
		}
		return err
	}

	s.running = true
	if err := s.saveStatus(StatusStarting, 0, nil); err != nil {
		return s.crash(err)
	}

	s.logger.Info("real-time sync started", "directory", absOr(s.directory))

	if err := poller.NewLoop(s.interval, s.logger).Run(ctx, s.cycle); err != nil {
		return s.crash(err)
	}
	return s.stop()
}

// HealthReport is the outcome of a successful connectivity check.
type HealthReport struct {
	Status            string
	ELKHealthy        bool
	RealtimeSyncReady bool
	DataPrepKitReady  bool
}

// CheckConnectivity runs the health query once.
//
// Returns a [*ConnectivityError] on any transport failure, non-200 status or
// undecodable body.
func (s *Syncer) CheckConnectivity(ctx context.Context) (HealthReport, error) {
	s.logger.Info("testing connection", "endpoint", s.endpoint)

	h, err := s.api.Health(ctx)
	if err != nil {
		s.logger.Error("connection failed",
			"error", err.Error(),
			"hint", "make sure the remote site is deployed and running",
		)
		return HealthReport{}, &ConnectivityError{Endpoint: s.endpoint, Err: err}
	}

	s.logger.Info("connection successful",
		"status", h.Status,
		"elk_healthy", h.ELKHealthy,
		"realtime_sync_ready", h.RealtimeSyncReady,
		"data_prep_kit_ready", h.DataPrepKitReady,
	)
	return HealthReport{
		Status:            h.Status,
		ELKHealthy:        h.ELKHealthy,
		RealtimeSyncReady: h.RealtimeSyncReady,
		DataPrepKitReady:  h.DataPrepKitReady,
	}, nil
}

// cycle performs one fetch and materialization. Only a failure to write the
// status snapshot is returned; everything else is recorded as ERROR.
func (s *Syncer) cycle(ctx context.Context) error {
	now := s.now()
	days := LookbackDays(s.lastSync, now)
	s.logger.Debug("fetching", "days", days)

	newRecords, err := s.fetchAndMaterialize(ctx, days, now)
	if err != nil {
		if ctx.Err() != nil {
			// interrupted: Run records STOPPED
			return nil
		}

		fetchErr := &FetchError{Err: err}
		var httpErr *poller.HTTPError
		if errors.As(err, &httpErr) {
			fetchErr.StatusCode = httpErr.StatusCode
		}

		s.logger.Warn("sync failed",
			"error", fetchErr.Error(),
			"status_code", fetchErr.StatusCode,
		)
		s.metrics.ObserveCycle(StatusError.String())
		return s.saveStatus(StatusError, 0, fetchErr)
	}

	status := StatusListening
	if newRecords > 0 {
		status = StatusActive
	}

	s.logger.Info("sync cycle",
		"status", status.String(),
		"new_records", newRecords,
		"total", s.totalSynced,
	)
	s.metrics.ObserveCycle(status.String())
	return s.saveStatus(status, newRecords, nil)
}

// fetchAndMaterialize fetches one window and writes every artifact except the
// status snapshot. Session totals are updated once the archives are written.
func (s *Syncer) fetchAndMaterialize(ctx context.Context, days float64, now time.Time) (int, error) {
	data, err := s.api.FetchData(ctx, days)
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveFetch(data.Latency)

	if data.SyncInfo != nil && data.SyncInfo.RecommendedPollingInterval != "" {
		s.logger.Debug("server polling hint",
			"recommended_interval", data.SyncInfo.RecommendedPollingInterval,
			"next_update_in_seconds", data.SyncInfo.NextUpdateInSeconds,
		)
	}

	if err := s.appendArchives(data, now); err != nil {
		return 0, err
	}
	if err := s.writeDigest(data.Logs(), now); err != nil {
		return 0, err
	}

	newRecords := data.RecordCount()
	s.lastSync = s.now()
	s.totalSynced += newRecords
	s.metrics.SetLastSync(s.lastSync)

	if err := s.writeSummary(data, now); err != nil {
		return newRecords, err
	}
	return newRecords, nil
}

// appendArchives adds one batch per stream present in data. Every archive is
// read and encoded before any is written, so a stream that cannot be
// prepared leaves all archives untouched and the window is retried whole.
func (s *Syncer) appendArchives(data *poller.DataResponse, ts time.Time) error {
	type pendingStream struct {
		name    string
		count   int
		archive *store.Archive
		pending *store.PendingAppend
	}

	streams := []struct {
		name    string
		present bool
		items   []record.Record
		archive *store.Archive
	}{
		{"logs", data.Data.Logs != nil, data.Logs(), s.logArchive},
		{"metrics", data.Data.Metrics != nil, data.Metrics(), s.metricArchive},
	}

	var prepared []pendingStream
	for _, st := range streams {
		if !st.present {
			continue
		}
		p, err := st.archive.Prepare(store.Batch{SyncTimestamp: ts, Items: st.items})
		if err != nil {
			return fmt.Errorf("append %s: %w", st.name, err)
		}
		prepared = append(prepared, pendingStream{st.name, len(st.items), st.archive, p})
	}

	for _, st := range prepared {
		res, err := st.pending.Commit()
		if err != nil {
			return fmt.Errorf("append %s: %w", st.name, err)
		}
		if res.Recovered {
			s.logger.Debug("archive unreadable, started a new one", "file", st.archive.Path())
		}

		s.metrics.AddRecords(st.name, st.count)
		s.metrics.SetArchiveEntries(st.name, res.Entries)
	}
	return nil
}

func (s *Syncer) writeDigest(logs []record.Record, now time.Time) error {
	return s.writeText(s.files.Readable, func(w io.Writer) error {
		return render.WriteDigest(w, render.DigestInput{
			GeneratedAt: now,
			Source:      s.endpoint,
			Interval:    s.interval,
			Logs:        logs,
			Files:       s.files,
			NextUpdate:  now.Add(s.interval),
			Running:     s.running,
		})
	})
}

func (s *Syncer) writeSummary(data *poller.DataResponse, now time.Time) error {
	return s.writeText(s.files.Summary, func(w io.Writer) error {
		return render.WriteSummary(w, render.SummaryInput{
			UpdatedAt:   now,
			Website:     s.website,
			Directory:   s.directory,
			Interval:    s.interval,
			TotalSynced: s.totalSynced,
			RemoteTotal: data.Summary.TotalRecords,
			DataTypes:   data.Summary.DataTypes,
			Realtime:    data.RealtimeMode,
			LastSync:    s.lastSync,
			NextUpdate:  now.Add(s.interval),
			Running:     s.running,
			Files:       s.files,
		})
	})
}

func (s *Syncer) writeText(path string, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	return store.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// saveStatus overwrites the status snapshot, refreshes the metrics file and
// notifies callbacks. A non-nil cause becomes the snapshot's error detail.
// Only the snapshot write can fail.
func (s *Syncer) saveStatus(status Status, newRecords int, cause error) error {
	snap := Snapshot{
		Timestamp:          s.now(),
		Status:             status,
		SyncInterval:       s.interval.Seconds(),
		TotalRecordsSynced: s.totalSynced,
		NewRecordsThisSync: newRecords,
		APIURL:             s.endpoint,
		LocalDirectory:     s.directory,
		Running:            s.running,
		Cause:              cause,
		RunID:              s.runID,
	}
	if cause != nil {
		detail := cause.Error()
		snap.Error = &detail
	}
	if !s.lastSync.IsZero() {
		last := s.lastSync
		snap.LastSync = &last
	}

	if err := store.WriteJSON(s.files.Status, snap); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}

	if s.metricsPath != "" {
		if err := s.metrics.WriteTextfile(s.metricsPath); err != nil {
			s.logger.Warn("failed to write metrics file", "error", err.Error())
		}
	}

	if s.statusServer != nil {
		s.statusServer.Publish(snap)
	}

	for _, cb := range s.callbacks {
		invokeCallbackSafe(cb, snap, s.logger)
	}
	return nil
}

// stop records a graceful shutdown.
func (s *Syncer) stop() error {
	s.running = false
	s.logger.Info("shutting down sync", "total", s.totalSynced)

	if err := s.saveStatus(StatusStopped, 0, nil); err != nil {
		s.logger.Warn("failed to write final status", "error", err.Error())
	}
	return nil
}

// crash records an unexpected termination of the loop.
func (s *Syncer) crash(cause error) error {
	s.running = false

	crashErr := &CrashError{Cause: cause}
	var panicErr *poller.PanicError
	if errors.As(cause, &panicErr) {
		crashErr.CorrelationID = panicErr.CorrelationID
	} else {
		crashErr.CorrelationID = uuid.NewString()
	}

	s.logger.Error("sync crashed",
		"error", cause.Error(),
		"correlation_id", crashErr.CorrelationID,
	)

	if err := s.saveStatus(StatusCrashed, 0, crashErr); err != nil {
		s.logger.Error("failed to write crash status", "error", err.Error())
	}
	return crashErr
}

// invokeCallbackSafe calls a status callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status callback panicked",
				"panic", r,
				"status", snap.Status.String(),
			)
		}
	}()
	cb(snap)
}

func absOr(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
