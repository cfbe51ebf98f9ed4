package model

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed remote call.
type Kind int

const (
	// KindTransient covers network and unknown failures. The caller's loop
	// may retry on its next turn; the callee does not.
	KindTransient Kind = iota
	// KindRateLimited means the server asked us to wait RetryAfter.
	KindRateLimited
	// KindFatal abandons the current operation (e.g. post rejected).
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// Error is the error type returned by every remote operation.
type Error struct {
	Op         string
	Kind       Kind
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindRateLimited {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Op, e.RetryAfter)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimited builds a KindRateLimited error.
func RateLimited(op string, after time.Duration) *Error {
	return &Error{Op: op, Kind: KindRateLimited, RetryAfter: after}
}

// RetryAfter reports whether err is a rate-limit signal and how long to
// wait. A zero delay means the server did not say.
func RetryAfter(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimited {
		return e.RetryAfter, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind. Errors that are not
// *Error count as KindTransient.
func IsKind(err error, k Kind) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return k == KindTransient
}
