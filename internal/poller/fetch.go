package poller

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Request names one feed to fetch and the value its JSON body decodes into.
type Request struct {
	// Name identifies the feed in errors (e.g. "filas").
	Name string

	// URL is the absolute URL to GET.
	URL string

	// Target is a pointer the response body is decoded into.
	Target any
}

// FeedError reports which feed of a [FetchAll] call failed.
type FeedError struct {
	Feed string
	Err  error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.Feed, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// FetchAll issues every request concurrently and waits for all of them.
//
// The join is all-or-nothing: the first failure cancels the remaining
// requests and is returned as a [*FeedError]. Targets of a failed call must
// be treated as garbage.
func FetchAll(ctx context.Context, c *Client, timeout time.Duration, reqs ...Request) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, r := range reqs {
		g.Go(func() error {
			if err := c.FetchJSON(gctx, r.URL, timeout, r.Target); err != nil {
				return &FeedError{Feed: r.Name, Err: err}
			}
			return nil
		})
	}

	return g.Wait()
}
