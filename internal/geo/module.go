package geo

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/quickserve/dispatch/internal/config"
)

// Module wires the Redis client and the rider locator.
var Module = fx.Options(
	fx.Provide(newRedisClient),
	fx.Provide(NewRiderLocator),
	fx.Invoke(registerLifecycle),
)

type redisParams struct {
	fx.In

	Config *config.Config
}

func newRedisClient(p redisParams) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: p.Config.RedisAddress})
}

func registerLifecycle(lc fx.Lifecycle, rdb *redis.Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
}
