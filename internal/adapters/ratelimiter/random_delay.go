package ratelimiter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// RandomDelayLimiter реализует RateLimiterPort: случайная пауза из [min, max]
// перед каждым запросом, чтобы не нарваться на блокировку провайдера.
// Границы - read-only конфигурация; min = max = 0 дает мгновенный возврат.
type RandomDelayLimiter struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomDelayLimiter(min, max time.Duration) (*RandomDelayLimiter, error) {
	if min < 0 || max < 0 {
		return nil, fmt.Errorf("rate limiter bounds cannot be negative")
	}
	if min > max {
		return nil, fmt.Errorf("rate limiter min bound %v exceeds max bound %v", min, max)
	}
	return &RandomDelayLimiter{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Wait блокирует вызывающего на случайную длительность либо до отмены контекста.
func (l *RandomDelayLimiter) Wait(ctx context.Context) error {
	delay := l.pick()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *RandomDelayLimiter) pick() time.Duration {
	if l.max == l.min {
		return l.min
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.min + time.Duration(l.rng.Int63n(int64(l.max-l.min)+1))
}
