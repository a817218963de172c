package gamews

import (
	"sync"
	"time"

	"github.com/justanothervoicechat/server-go/internal/domain"
)

// callRateLimiter bounds how often a single handle may start calls, a
// sliding window per handle.
type callRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.Handle][]time.Time
	limit    int
	interval time.Duration
}

func newCallRateLimiter(limit int, interval time.Duration) *callRateLimiter {
	return &callRateLimiter{
		history:  make(map[domain.Handle][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *callRateLimiter) Allow(handle domain.Handle) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[handle]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[handle] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[handle] = fresh
	return true
}

func (rl *callRateLimiter) Forget(handle domain.Handle) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, handle)
}
