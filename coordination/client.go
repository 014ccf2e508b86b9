package coordination

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/busanbank/live-support-api/config"
)

// NewClient uses the values from the config and returns a connected redis client
func NewClient(ctx context.Context, conf *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
