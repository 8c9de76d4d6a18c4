package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisCheck pings the task broker.
func RedisCheck(client redis.UniversalClient) Check {
	return namedCheck{
		name: "redis",
		fn: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
