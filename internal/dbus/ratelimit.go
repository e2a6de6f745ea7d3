package dbus

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxLimiters bounds the per-app table. It is reset when full.
const maxLimiters = 1024

// appLimiter throttles Notify calls per application name.
type appLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// newAppLimiter allows perSecond notifications per app with the given
// burst. A non-positive rate disables throttling.
func newAppLimiter(perSecond float64, burst int) *appLimiter {
	if burst < 1 {
		burst = 1
	}
	return &appLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether app may send another notification now.
func (l *appLimiter) Allow(app string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[app]
	if !ok {
		if len(l.limiters) >= maxLimiters {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[app] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
