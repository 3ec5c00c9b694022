package livesync

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// syncConfig holds mutable state during Syncer construction.
type syncConfig struct {
	endpoint      string
	website       string
	directory     string
	interval      time.Duration
	healthTimeout time.Duration
	fetchTimeout  time.Duration
	limit         int
	archiveCap    int
	metricsFile   string
	statusAddr    string
	logger        *slog.Logger
	now           func() time.Time
	callbacks     []func(Snapshot)
}

// Option is a function that configures a [Syncer] during construction.
//
// Options return an error if validation fails. Built-in options:
// [WithEndpoint], [WithDirectory], [WithInterval], [WithHealthTimeout],
// [WithFetchTimeout], [WithLimit], [WithArchiveCap], [WithWebsite],
// [WithMetricsFile], [WithStatusAddr], [WithLogger], [WithStatusCallback], [WithClock].
type Option func(*syncConfig) error

// WithEndpoint sets the base URL of the data endpoint. Required.
//
// The health and data queries are built by adding query parameters to this
// URL. Existing query parameters are preserved.
//
// Returns an error if the URL is not an absolute http or https URL.
func WithEndpoint(rawURL string) Option {
	return func(cfg *syncConfig) error {
		if err := validateHTTPURL(rawURL); err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		cfg.endpoint = rawURL
		return nil
	}
}

// WithDirectory sets the local directory artifacts are written to.
// Defaults to "./cogniview_realtime_data". The directory is created by
// [Syncer.Run] if missing.
func WithDirectory(dir string) Option {
	return func(cfg *syncConfig) error {
		if dir == "" {
			return errors.New("directory cannot be empty")
		}
		cfg.directory = dir
		return nil
	}
}

// WithInterval sets the pause between the end of one cycle and the start of
// the next. Defaults to 30 seconds.
func WithInterval(d time.Duration) Option {
	return func(cfg *syncConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithHealthTimeout bounds the connectivity check. Defaults to 10 seconds.
func WithHealthTimeout(d time.Duration) Option {
	return func(cfg *syncConfig) error {
		if d <= 0 {
			return errors.New("health timeout must be positive")
		}
		cfg.healthTimeout = d
		return nil
	}
}

// WithFetchTimeout bounds each data request. Defaults to 30 seconds.
func WithFetchTimeout(d time.Duration) Option {
	return func(cfg *syncConfig) error {
		if d <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		cfg.fetchTimeout = d
		return nil
	}
}

// WithLimit sets the limit query parameter of data requests. Defaults to 5000.
func WithLimit(n int) Option {
	return func(cfg *syncConfig) error {
		if n <= 0 {
			return errors.New("limit must be positive")
		}
		cfg.limit = n
		return nil
	}
}

// WithArchiveCap sets how many batches each archive keeps. Defaults to 1000.
func WithArchiveCap(n int) Option {
	return func(cfg *syncConfig) error {
		if n <= 0 {
			return errors.New("archive cap must be positive")
		}
		cfg.archiveCap = n
		return nil
	}
}

// WithWebsite sets the site URL shown in the run summary. Defaults to the
// scheme and host of the endpoint.
func WithWebsite(site string) Option {
	return func(cfg *syncConfig) error {
		cfg.website = site
		return nil
	}
}

// WithMetricsFile sets the file name, relative to the data directory, that
// Prometheus metrics are written to after every snapshot. Defaults to
// "sync_metrics.prom". An empty name disables the file.
func WithMetricsFile(name string) Option {
	return func(cfg *syncConfig) error {
		cfg.metricsFile = name
		return nil
	}
}

// WithStatusAddr enables the local HTTP status server on addr, e.g.
// "127.0.0.1:9100". It serves the latest snapshot at /api/status, a snapshot
// stream at /api/sse and the sync metrics at /metrics. Disabled by default.
func WithStatusAddr(addr string) Option {
	return func(cfg *syncConfig) error {
		cfg.statusAddr = addr
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *syncConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStatusCallback registers a function called after every status
// snapshot is written.
//
// Callbacks run synchronously on the sync loop and must not block. Panics
// are recovered and logged. Nil callbacks are ignored.
func WithStatusCallback(cb func(Snapshot)) Option {
	return func(cfg *syncConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

// WithClock replaces time.Now as the source of timestamps and lookback
// windows.
func WithClock(now func() time.Time) Option {
	return func(cfg *syncConfig) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.now = now
		return nil
	}
}

func validateHTTPURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}

// siteOf returns the scheme and host of an endpoint URL.
func siteOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Scheme + "://" + u.Host
}
