package triageboard

import (
	"errors"
	"fmt"
	"net/url"
)

// Feed names one of the three backend endpoints polled on every tick.
type Feed string

const (
	// FeedQueues serves [QueueCounts].
	FeedQueues Feed = "filas"

	// FeedStats serves [CompletionStats].
	FeedStats Feed = "stats"

	// FeedDoctors serves a [DoctorRoster].
	FeedDoctors Feed = "medicos"
)

// Feeds lists every feed in dispatch order.
var Feeds = []Feed{FeedQueues, FeedStats, FeedDoctors}

// DefaultPath returns the backend path a feed is served on by default.
func DefaultPath(f Feed) string {
	switch f {
	case FeedQueues:
		return "/api/filas/"
	case FeedStats:
		return "/api/stats/"
	case FeedDoctors:
		return "/api/medicos/"
	default:
		return ""
	}
}

// Valid reports whether f is one of [Feeds].
func (f Feed) Valid() bool {
	return DefaultPath(f) != ""
}

// TickError reports a failed tick. Transport errors, non-2xx responses,
// undecodable bodies and rosters that break the configured doctor contract
// all fail a tick the same way.
type TickError struct {
	// Feed is the feed that failed, empty if the failure was not specific to one.
	Feed Feed
	Err  error
}

func (e *TickError) Error() string {
	if e.Feed == "" {
		return fmt.Sprintf("tick failed: %v", e.Err)
	}
	return fmt.Sprintf("tick failed: feed %s: %v", e.Feed, e.Err)
}

func (e *TickError) Unwrap() error {
	return e.Err
}

// parseBaseURL validates the backend base URL.
func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("base URL must include a host")
	}
	return u, nil
}

// resolveFeedURLs resolves every feed path against base. Absolute paths
// replace the base path; relative paths are joined to it.
func resolveFeedURLs(base *url.URL, paths map[Feed]string) (map[Feed]string, error) {
	urls := make(map[Feed]string, len(Feeds))
	for _, f := range Feeds {
		p := paths[f]
		if p == "" {
			p = DefaultPath(f)
		}
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path for feed %s: %w", f, err)
		}
		urls[f] = base.ResolveReference(ref).String()
	}
	return urls, nil
}
