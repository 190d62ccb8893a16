package pool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// Limiter manages per-owner fetch rate limits so one tenant's burst cannot
// draw platform attention to the whole pool.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// LimiterConfig holds rate limiter configuration. An RPS of zero disables
// limiting.
type LimiterConfig struct {
	OwnerRPS   float64
	OwnerBurst int
}

// NewLimiter creates a new Limiter.
func NewLimiter(cfg LimiterConfig) *Limiter {
	r := rate.Limit(cfg.OwnerRPS)
	if cfg.OwnerRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.OwnerBurst
	if burst <= 0 {
		burst = 1
	}
	metrics.Init()
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the owner, respecting the context.
func (l *Limiter) Wait(ctx context.Context, ownerID string) error {
	l.mu.Lock()
	limiter, exists := l.limiters[ownerID]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[ownerID] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > 0 {
		metrics.ObserveOwnerRateLimitDelay(waited)
	}
	return nil
}
