package summarize

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RetryConfig controls the exponential backoff behavior for API calls.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// isRetryable reports whether the status code warrants a retry.
func isRetryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryWithBackoff executes fn with exponential backoff on transport errors
// and retryable status codes. The caller owns the returned response body.
func (c *Client) retryWithBackoff(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	backoff := c.retry.InitialBackoff

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying summarization request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * c.retry.Multiplier)
			if backoff > c.retry.MaxBackoff {
				backoff = c.retry.MaxBackoff
			}
		}

		resp, err := fn()
		if err != nil {
			lastErr = err
			continue
		}

		if !isRetryable(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("received status %d", resp.StatusCode)
		resp.Body.Close()
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", c.retry.MaxRetries+1, lastErr)
}
