package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cuenta el intento y devuelve {intentos, ms restantes de la ventana}.
// La ventana arranca con el primer intento; si la clave quedo sin TTL se lo vuelve a poner.
const redisLoginAttemptScript = `
local attempts = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {attempts, ttl}
`

const redisLoginTimeout = 500 * time.Millisecond

type redisLoginClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisLoginRateLimiter cuenta intentos por email en una ventana fija compartida entre instancias.
type redisLoginRateLimiter struct {
	client redisLoginClient
	window time.Duration
	max    int64
	prefix string
	logger *zap.Logger
}

func NewRedisLoginRateLimiter(client *redis.Client, window time.Duration, max int, logger *zap.Logger) LoginRateLimiter {
	if client == nil {
		return nil
	}
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisLoginRateLimiter{
		client: client,
		window: window,
		max:    int64(max),
		prefix: "orga:login:attempts:",
		logger: logger,
	}
}

func (l *redisLoginRateLimiter) key(email string) string {
	return l.prefix + strings.ToLower(strings.TrimSpace(email))
}

// Allow falla abierto si Redis no responde: el login no depende de Redis.
func (l *redisLoginRateLimiter) Allow(ctx context.Context, email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	if strings.TrimSpace(email) == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, redisLoginTimeout)
	defer cancel()

	res, err := l.client.Eval(ctx, redisLoginAttemptScript, []string{l.key(email)}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		l.logger.Warn("login rate limiter unavailable", zap.Error(err))
		return true
	}
	if res[0] > l.max {
		l.logger.Info("login attempts exceeded",
			zap.Int64("attempts", res[0]),
			zap.Duration("retry_after", time.Duration(res[1])*time.Millisecond),
		)
		return false
	}
	return true
}

// Reset borra el contador despues de un login correcto.
func (l *redisLoginRateLimiter) Reset(ctx context.Context, email string) {
	if l == nil || l.client == nil || strings.TrimSpace(email) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisLoginTimeout)
	defer cancel()
	if err := l.client.Del(ctx, l.key(email)).Err(); err != nil {
		l.logger.Warn("login rate limiter reset failed", zap.Error(err))
	}
}
