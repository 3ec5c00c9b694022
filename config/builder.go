package config

import (
	"github.com/jpalmerr/livesync"
	"github.com/jpalmerr/livesync/internal/logging"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger and status callbacks are not part of the file format; callers
// append [livesync.WithLogger] and friends to the returned slice.
func BuildOptions(cfg *Config) []livesync.Option {
	opts := []livesync.Option{
		livesync.WithEndpoint(cfg.Endpoint),
		livesync.WithDirectory(cfg.Directory),
		livesync.WithInterval(cfg.Interval.Duration()),
		livesync.WithHealthTimeout(cfg.HealthTimeout.Duration()),
		livesync.WithFetchTimeout(cfg.FetchTimeout.Duration()),
		livesync.WithLimit(cfg.Limit),
		livesync.WithArchiveCap(cfg.ArchiveCap),
	}

	if cfg.Website != "" {
		opts = append(opts, livesync.WithWebsite(cfg.Website))
	}

	if cfg.StatusAddr != "" {
		opts = append(opts, livesync.WithStatusAddr(cfg.StatusAddr))
	}

	switch {
	case cfg.DisableMetrics:
		opts = append(opts, livesync.WithMetricsFile(""))
	case cfg.MetricsFile != "":
		opts = append(opts, livesync.WithMetricsFile(cfg.MetricsFile))
	}

	return opts
}

// LoggingConfig converts the log section into the logger factory's config.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
