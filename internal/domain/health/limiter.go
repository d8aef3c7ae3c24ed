package health

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces requests to the same host. Each host gets its own
// token bucket the first time it is seen.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	fallback time.Duration
}

// NewHostLimiter creates a limiter; fallback is used for hosts whose
// source declares no interval. Zero disables limiting for those hosts.
func NewHostLimiter(fallback time.Duration) *HostLimiter {
	return &HostLimiter{limiters: make(map[string]*rate.Limiter), fallback: fallback}
}

// Wait blocks until a request to rawURL may be issued.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string, interval time.Duration) error {
	if h == nil {
		return ctx.Err()
	}
	if interval <= 0 {
		interval = h.fallback
	}
	if interval <= 0 {
		return ctx.Err()
	}
	return h.limiter(hostOf(rawURL), interval).Wait(ctx)
}

func (h *HostLimiter) limiter(host string, interval time.Duration) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(interval), 1)
		h.limiters[host] = l
		return l
	}
	if want := rate.Every(interval); l.Limit() > want {
		l.SetLimit(want)
	}
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
