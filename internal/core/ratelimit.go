package core

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a key may go unused before its limiter is evicted.
const idleAfter = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client key, see throttleKey.
type rateLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	bkts      map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(rps float64, burst int, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		bkts:      make(map[string]*bucket),
		lastSweep: now(),
		now:       now,
	}
}

func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > idleAfter {
		rl.sweep(now)
	}

	bkt, ok := rl.bkts[key]
	if !ok {
		bkt = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.bkts[key] = bkt
	}
	bkt.lastSeen = now
	return bkt.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) sweep(now time.Time) {
	for k, b := range rl.bkts {
		if now.Sub(b.lastSeen) > idleAfter {
			delete(rl.bkts, k)
		}
	}
	rl.lastSweep = now
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.bkts)
}
