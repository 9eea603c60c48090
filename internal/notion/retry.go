package notion

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	// 500ms << 6 already exceeds the cap.
	attempt = min(max(attempt, 0), 6)
	base := time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > time.Minute {
		d = time.Minute
	}
	return d
}
