package webhook

import (
	"math/rand"
	"time"
)

// Retry delays for in-process exponential backoff.
// Deliveries live in memory, so the schedule stays short.
var retryDelays = []time.Duration{
	2 * time.Second,
	10 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
}

const (
	// DefaultMaxAttempts is the default maximum delivery attempts.
	DefaultMaxAttempts = 5

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay returns the backoff after failed attempt number attempt
// (1-based), with ±20% jitter.
func NextRetryDelay(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryDelays) {
		idx = len(retryDelays) - 1
	}

	base := retryDelays[idx]
	jitter := (rand.Float64()*2 - 1) * float64(base) * JitterFactor
	return time.Duration(float64(base) + jitter)
}

// IsExhausted returns true if max attempts have been reached.
func IsExhausted(attempts, maxAttempts int) bool {
	return attempts >= maxAttempts
}
