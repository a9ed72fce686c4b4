package llm

import (
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerMinute = 60
	defaultBurst             = 5
)

// newPacer returns a token bucket that admits requestsPerMinute calls with
// short bursts. A negative rate disables pacing.
func newPacer(requestsPerMinute, burst int) *rate.Limiter {
	if requestsPerMinute < 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if requestsPerMinute == 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}
