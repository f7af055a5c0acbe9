package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// RetryPolicy controls how many times an outbound request is attempted and
// how long to wait between attempts. It is a standalone value so callers
// can unit-test the schedule without issuing requests.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is the schedule used by all provider clients:
// 3 attempts total, waiting 500ms then 1s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:        3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Backoff returns the delay to wait after the given completed attempt
// (0-based): InitialInterval * 2^attempt, capped at MaxInterval.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
	if p.MaxInterval > 0 && delay > p.MaxInterval {
		delay = p.MaxInterval
	}
	return delay
}

// HTTPClientConfig bundles the HTTP client and retry settings shared by the
// provider clients.
type HTTPClientConfig struct {
	Client *http.Client
	Retry  RetryPolicy
}

var (
	// ErrNetwork marks transport-level failures (connection refused, DNS,
	// timeouts on the socket).
	ErrNetwork = errors.New("network error")
	// ErrProvider marks upstream failures: non-2xx status or a payload
	// that cannot be decoded.
	ErrProvider = errors.New("provider error")
	// ErrNoResults is returned when the provider answers with an empty
	// result set where one was expected.
	ErrNoResults = errors.New("no results")

	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newCircuitBreaker creates a circuit breaker with the settings shared by
// all provider clients.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequestWithResilience executes the HTTP request with retries,
// exponential backoff, and a circuit breaker. A request is retried only if
// the transport fails or the upstream returns a non-2xx status; the caller
// receives the last error once the policy is exhausted.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	attempts := cfg.Retry.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrNetwork, execErr)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: unexpected status %d", ErrProvider, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// An open circuit fails fast; waiting out the backoff would not help.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(cfg.Retry.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
