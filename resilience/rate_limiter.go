package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by Execute when no token is available.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig is a token bucket: Rate tokens per second, Burst deep.
type RateLimiterConfig struct {
	Name  string
	Rate  float64
	Burst int
}

// WindowConfig expresses "limit requests per window" as a bucket that
// starts full and refills evenly across the window.
func WindowConfig(name string, limit int, window time.Duration) RateLimiterConfig {
	return RateLimiterConfig{
		Name:  name,
		Rate:  float64(limit) / window.Seconds(),
		Burst: limit,
	}
}

func (c RateLimiterConfig) withDefaults() RateLimiterConfig {
	if c.Rate <= 0 {
		c.Rate = 10
	}
	if c.Burst <= 0 {
		c.Burst = max(1, int(c.Rate))
	}
	return c
}

// RateLimiter wraps a rate.Limiter with an injectable clock.
type RateLimiter struct {
	config RateLimiterConfig
	lim    *rate.Limiter
	now    func() time.Time
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return newRateLimiter(config, time.Now)
}

func newRateLimiter(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	config = config.withDefaults()
	return &RateLimiter{
		config: config,
		lim:    rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
		now:    now,
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	return rl.lim.AllowN(rl.now(), 1)
}

// Wait blocks until a token is taken or ctx is done, returning ctx.Err().
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for !rl.Allow() {
		timer := time.NewTimer(rl.RetryAfter())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Execute runs fn only if a token is available.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// RetryAfter is how long until the next token, without consuming one.
func (rl *RateLimiter) RetryAfter() time.Duration {
	missing := 1 - rl.Tokens()
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / rl.config.Rate * float64(time.Second))
}

func (rl *RateLimiter) Tokens() float64 {
	return rl.lim.TokensAt(rl.now())
}

// idleAfter is how long an untouched bucket takes to refill completely.
func (rl *RateLimiter) idleAfter() time.Duration {
	return time.Duration(float64(rl.config.Burst) / rl.config.Rate * float64(time.Second))
}

// KeyedRateLimiter keeps one bucket per client key, normally the remote
// IP. A bucket idle long enough to be full again is indistinguishable
// from a new one, so it is evicted.
type KeyedRateLimiter struct {
	config RateLimiterConfig
	idle   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

type bucket struct {
	*RateLimiter
	lastSeen time.Time
}

func NewKeyedRateLimiter(config RateLimiterConfig) *KeyedRateLimiter {
	return newKeyedRateLimiter(config, time.Now)
}

func newKeyedRateLimiter(config RateLimiterConfig, now func() time.Time) *KeyedRateLimiter {
	probe := newRateLimiter(config, now)
	return &KeyedRateLimiter{
		config:  probe.config,
		idle:    probe.idleAfter(),
		now:     now,
		buckets: make(map[string]*bucket),
		swept:   now(),
	}
}

func (k *KeyedRateLimiter) Allow(key string) bool {
	return k.get(key).Allow()
}

// RetryAfter reports how long key should wait before its next request.
func (k *KeyedRateLimiter) RetryAfter(key string) time.Duration {
	return k.get(key).RetryAfter()
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

func (k *KeyedRateLimiter) get(key string) *RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.swept) >= k.idle {
		for name, b := range k.buckets {
			if now.Sub(b.lastSeen) >= k.idle {
				delete(k.buckets, name)
			}
		}
		k.swept = now
	}

	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{RateLimiter: newRateLimiter(k.config, k.now)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	return b.RateLimiter
}
