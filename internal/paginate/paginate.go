// Package paginate walks cursor-paginated list endpoints and applies the
// rate-limit retry discipline shared by every remote call.
package paginate

import (
	"context"
	"log/slog"
	"time"

	"github.com/m96-chan/slackline/internal/model"
)

const (
	// DefaultRetryAfter is used when a rate-limit response carries no delay.
	DefaultRetryAfter = time.Second
	// DefaultProgressEvery is the page interval between progress callbacks.
	DefaultProgressEvery = 10
)

// Page is one page of a list call.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// PageFunc fetches the page at cursor. The first call receives "".
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type options struct {
	progressEvery int
	onProgress    func(count int)
	onRateLimit   func(wait time.Duration, count int)
	sleep         SleepFunc
}

// Option configures FetchAll and Do.
type Option func(*options)

// WithProgress calls fn with the number of items accumulated so far after
// every `every` pages. Values below 1 use DefaultProgressEvery.
func WithProgress(every int, fn func(count int)) Option {
	return func(o *options) {
		if every < 1 {
			every = DefaultProgressEvery
		}
		o.progressEvery = every
		o.onProgress = fn
	}
}

// WithRateLimitNotify calls fn before each backoff sleep.
func WithRateLimitNotify(fn func(wait time.Duration, count int)) Option {
	return func(o *options) {
		o.onRateLimit = fn
	}
}

// WithSleep replaces the backoff sleeper.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{
		progressEvery: DefaultProgressEvery,
		sleep:         Sleep,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FetchAll calls list with an empty cursor and then with every returned
// cursor until one comes back empty, returning all items in cursor order.
//
// A rate-limited page is retried with the same cursor after the requested
// delay. Any other error stops the walk: the items gathered so far are
// returned together with the error.
func FetchAll[T any](ctx context.Context, list PageFunc[T], opts ...Option) ([]T, error) {
	o := buildOptions(opts)

	var (
		all    []T
		cursor string
		pages  int
	)
	for {
		page, err := list(ctx, cursor)
		if err != nil {
			wait, limited := model.RetryAfter(err)
			if !limited {
				return all, err
			}
			if wait <= 0 {
				wait = DefaultRetryAfter
			}
			slog.Debug("rate limited during pagination", "wait", wait, "loaded", len(all))
			if o.onRateLimit != nil {
				o.onRateLimit(wait, len(all))
			}
			if err := o.sleep(ctx, wait); err != nil {
				return all, err
			}
			continue
		}

		all = append(all, page.Items...)
		pages++
		if o.onProgress != nil && pages%o.progressEvery == 0 {
			o.onProgress(len(all))
		}

		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// Do runs a single non-paginated call under the same rate-limit retry
// discipline as FetchAll.
func Do[T any](ctx context.Context, call func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	o := buildOptions(opts)
	for {
		v, err := call(ctx)
		if err == nil {
			return v, nil
		}
		wait, limited := model.RetryAfter(err)
		if !limited {
			return v, err
		}
		if wait <= 0 {
			wait = DefaultRetryAfter
		}
		if o.onRateLimit != nil {
			o.onRateLimit(wait, 0)
		}
		if err := o.sleep(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}
}

// Sleep blocks for d, returning early with ctx.Err() if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
