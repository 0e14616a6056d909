// Package rate provides token bucket limiters for outbound collector
// requests and per-client inbound API limits.
package rate

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket. It supports blocking (Wait) and
// non-blocking (Allow) use.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  int
	tokens float64
	last   time.Time
	now    func() time.Time
}

// New creates a limiter refilling rate tokens per second with the given
// burst capacity. The bucket starts full.
func New(rate float64, burst int) *Limiter {
	return newWithClock(rate, burst, time.Now)
}

// PerMinute creates a limiter allowing n operations per minute with a
// burst of n.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	return New(float64(n)/60, n)
}

func newWithClock(rate float64, burst int, now func() time.Time) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst),
		last:   now(),
		now:    now,
	}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		wait, ok := l.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	_, ok := l.reserve()
	return ok
}

// reserve takes a token, or reports how long until one is available.
func (l *Limiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}
	need := (1 - l.tokens) / l.rate
	return time.Duration(need * float64(time.Second)), false
}

// RetryAfter reports how long a rejected caller should wait.
func (l *Limiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance()
	if l.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
}

// Tokens returns the currently available tokens.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance()
	return l.tokens
}

func (l *Limiter) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}

func (l *Limiter) Burst() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// must hold l.mu
func (l *Limiter) advance() {
	now := l.now()
	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.rate
		if l.tokens > float64(l.burst) {
			l.tokens = float64(l.burst)
		}
	}
	l.last = now
}

// KeyedLimiter keeps one bucket per key (for example a client IP).
// Idle buckets are dropped by Sweep once they have fully refilled.
type KeyedLimiter struct {
	mu      sync.Mutex
	rate    float64
	burst   int
	buckets map[string]*Limiter
	now     func() time.Time
}

// NewKeyed creates a per-key limiter allowing perMinute operations per
// key per minute.
func NewKeyed(perMinute int) *KeyedLimiter {
	return newKeyedWithClock(perMinute, time.Now)
}

func newKeyedWithClock(perMinute int, now func() time.Time) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &KeyedLimiter{
		rate:    float64(perMinute) / 60,
		burst:   perMinute,
		buckets: make(map[string]*Limiter),
		now:     now,
	}
}

func (k *KeyedLimiter) bucket(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.buckets[key]
	if !ok {
		b = newWithClock(k.rate, k.burst, k.now)
		k.buckets[key] = b
	}
	return b
}

// Allow consumes a token for key. When rejected it returns how long the
// caller should wait.
func (k *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	b := k.bucket(key)
	if b.Allow() {
		return true, 0
	}
	return false, b.RetryAfter()
}

// Sweep drops buckets that are full again and returns how many were removed.
func (k *KeyedLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for key, b := range k.buckets {
		if b.Tokens() >= float64(b.Burst()) {
			delete(k.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
