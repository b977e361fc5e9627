package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginRateLimiter limita intentos de login por clave (email normalizado).
// Reset se llama tras un login correcto.
type LoginRateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Reset(ctx context.Context, key string)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryLoginRateLimiter es un token bucket por clave; max intentos por ventana.
type memoryLoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	r        rate.Limit
	burst    int
	window   time.Duration
}

const maxTrackedLoginKeys = 10000

// NewMemoryLoginRateLimiter crea el limiter en memoria usado cuando no hay Redis.
func NewMemoryLoginRateLimiter(window time.Duration, max int) LoginRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryLoginRateLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
	}
}

func (l *memoryLoginRateLimiter) Allow(_ context.Context, key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) >= maxTrackedLoginKeys {
		l.evictIdle(now)
	}
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.r, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *memoryLoginRateLimiter) Reset(_ context.Context, key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}

// evictIdle descarta claves sin actividad durante mas de una ventana; su bucket ya esta lleno.
func (l *memoryLoginRateLimiter) evictIdle(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.window {
			delete(l.limiters, k)
		}
	}
}
