package outbox

import "time"

const (
	baseBackoff = time.Second
	maxBackoff  = 60 * time.Second
)

// Backoff is the delay before the next attempt of an action that failed
// attempts times: min(60s, 1s * 2^attempts).
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	// 2^6s already exceeds the cap
	if attempts >= 6 {
		return maxBackoff
	}
	d := baseBackoff << uint(attempts)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
