package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a minimum delay between successive requests to the
// same host. Each host gets its own token bucket; the first request to a
// host goes through immediately.
type HostLimiter struct {
	mu       sync.Mutex
	delay    time.Duration
	limiters map[string]*rate.Limiter
}

// NewHostLimiter builds a limiter with the given per-host minimum delay.
// A non-positive delay disables waiting.
func NewHostLimiter(delay time.Duration) *HostLimiter {
	return &HostLimiter{
		delay:    delay,
		limiters: map[string]*rate.Limiter{},
	}
}

// Wait blocks until the host's bucket allows another request or the context
// is cancelled.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h == nil || h.delay <= 0 {
		return nil
	}
	return h.limiterFor(host).Wait(ctx)
}

func (h *HostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if lim, ok := h.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Every(h.delay), 1)
	h.limiters[host] = lim
	return lim
}
