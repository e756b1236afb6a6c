package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// pruneAbove is the map size at which idle limiters are dropped.
const pruneAbove = 10000

// requestLimiter keeps one token bucket per user.
type requestLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newRequestLimiter(perSecond float64, burst int) *requestLimiter {
	return &requestLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *requestLimiter) allow(user string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[user]
	if !ok {
		if len(l.limiters) >= pruneAbove {
			l.pruneLocked()
		}
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[user] = lim
	}
	return lim.Allow()
}

// pruneLocked drops limiters whose bucket has refilled.
func (l *requestLimiter) pruneLocked() {
	for user, lim := range l.limiters {
		if lim.Tokens() >= float64(l.burst) {
			delete(l.limiters, user)
		}
	}
}
