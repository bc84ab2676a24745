package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ppiankov/persona/internal/util"
)

// Backoff between attempts for 5xx and transport failures
var retryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// retrySleep waits d or until ctx is done; replaced in tests
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const (
	defaultRateLimitDelay = 10 * time.Second
	maxRateLimitDelay     = 60 * time.Second
)

// requester performs rate-limited GETs and maps HTTP failures onto the error taxonomy
type requester struct {
	client    *http.Client
	limiter   *util.Limiter
	userAgent string
	logger    *zap.Logger
}

// get returns the response body of rawURL, retrying 5xx and transport errors
func (r *requester) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			delay := retryDelays[attempt-1]
			r.logger.Debug("retrying request",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := retrySleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, retry, err := r.once(ctx, rawURL, accept)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "giving up after %d attempts", len(retryDelays)+1)
}

func (r *requester) once(ctx context.Context, rawURL, accept string) ([]byte, bool, error) {
	if err := r.limiter.Wait(ctx, rawURL); err != nil {
		return nil, false, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := r.client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, false, errors.Wrapf(ErrUnauthorized, "token request rejected: %v", retrieveErr)
		}
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, errors.Wrap(err, "fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, errors.Wrapf(ErrUnauthorized, "status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		return nil, false, errors.Wrapf(ErrNotFound, "status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, &RateLimitError{RetryAfter: rateLimitDelay(resp.Header)}
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, errors.Wrap(err, "read body")
	}
	return body, false, nil
}

// rateLimitDelay reads Retry-After, then X-Ratelimit-Reset, capped at a minute
func rateLimitDelay(h http.Header) time.Duration {
	delay := defaultRateLimitDelay
	for _, key := range []string{"Retry-After", "X-Ratelimit-Reset"} {
		if v := h.Get(key); v != "" {
			if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
				delay = time.Duration(secs * float64(time.Second))
				break
			}
		}
	}
	if delay > maxRateLimitDelay {
		delay = maxRateLimitDelay
	}
	return delay
}
