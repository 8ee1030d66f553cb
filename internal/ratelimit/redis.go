package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixedWindowScript increments the key and stamps the window TTL only when
// the counter is fresh, so the window does not slide on every hit.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Redis shares fixed-window budgets across replicas. When redis errors the
// limiter falls back to the local window rather than failing the request.
type Redis struct {
	client   *redis.Client
	fallback *Local
	logger   *zap.Logger
}

func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, fallback: NewLocal(), logger: logger}
}

func (r *Redis) Allow(ctx context.Context, key string, limit int) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, r.client,
		[]string{"galynx:ratelimit:" + key},
		Window.Milliseconds(),
	).Int64()
	if err != nil {
		r.logger.Warn("rate limit redis unavailable, using local window", zap.Error(err))
		return r.fallback.Allow(ctx, key, limit)
	}
	return count <= int64(limit), nil
}
