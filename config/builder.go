package config

import (
	"log/slog"

	"github.com/jpalmerr/triageboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// logger may be nil, in which case the SDK default is used.
func BuildOptions(cfg *Config, logger *slog.Logger) []triageboard.Option {
	opts := []triageboard.Option{
		triageboard.WithBaseURL(cfg.BaseURL),
		triageboard.WithPort(cfg.Port),
		triageboard.WithPollingInterval(cfg.PollInterval.Duration()),
		triageboard.WithRequestTimeout(cfg.Timeout.Duration()),
		triageboard.WithReportedDoctorSummary(cfg.Reported()),
	}

	if cfg.Title != "" {
		opts = append(opts, triageboard.WithTitle(cfg.Title))
	}
	if logger != nil {
		opts = append(opts, triageboard.WithLogger(logger))
	}

	for f, p := range map[triageboard.Feed]string{
		triageboard.FeedQueues:  cfg.Paths.Queues,
		triageboard.FeedStats:   cfg.Paths.Stats,
		triageboard.FeedDoctors: cfg.Paths.Doctors,
	} {
		if p != "" {
			opts = append(opts, triageboard.WithFeedPath(f, p))
		}
	}

	return opts
}
