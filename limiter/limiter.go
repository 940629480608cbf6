package limiter

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// defaultRetryAfter is used when a 429 arrives without a Retry-After header.
const defaultRetryAfter = 60 * time.Second

// New creates a Limiter allowing perSecond requests per second on average,
// with bursts of up to burst requests. A non-positive perSecond disables
// pacing, leaving only Retry-After handling.
func New(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{rate: rate.NewLimiter(limit, burst)}
}

// Limiter paces outgoing requests, and holds every request back after the
// server asks us to slow down.
type Limiter struct {
	rate *rate.Limiter

	mu     sync.Mutex
	nextAt time.Time
}

// Wait blocks until a request may be sent, or ctx is done.
func (lim *Limiter) Wait(ctx context.Context) error {
	lim.mu.Lock()
	nextAt := lim.nextAt
	lim.mu.Unlock()

	if dur := time.Until(nextAt); !nextAt.IsZero() && dur > 0 {
		if dur > time.Second {
			log.Info().
				Dur("wait", dur.Truncate(time.Second)).
				Str("until", nextAt.Format(time.StampMilli)).
				Msg("waiting for server backoff")
		}

		timer := time.NewTimer(dur)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := lim.rate.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// SetNextAt holds requests back for the number of seconds in a Retry-After
// header value, plus a second of slack. An empty value means a minute.
func (lim *Limiter) SetNextAt(retryAfter string) (time.Duration, error) {
	wait := defaultRetryAfter
	if retryAfter != "" {
		seconds, err := strconv.ParseInt(retryAfter, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad Retry-After '%s': %w", retryAfter, err)
		}
		wait = time.Duration(seconds)*time.Second + time.Second
	}

	lim.mu.Lock()
	defer lim.mu.Unlock()

	if nextAt := time.Now().Add(wait); nextAt.After(lim.nextAt) {
		lim.nextAt = nextAt
	}
	return wait, nil
}
