package source

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound means the user does not exist, is suspended, or has no public activity
	ErrNotFound = errors.New("user not found or has no public activity")

	// ErrRateLimited means Reddit throttled the request; retry later with the same cursor
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized means credentials were rejected; never retried
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidUsername means the input is not a Reddit profile URL or username
	ErrInvalidUsername = errors.New("invalid reddit username")
)

// RateLimitError carries the delay Reddit asked for
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter)
}

// Unwrap lets errors.Is(err, ErrRateLimited) match
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// RetryAfter returns the advertised delay of a rate-limit error, or fallback
func RetryAfter(err error, fallback time.Duration) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return fallback
}
