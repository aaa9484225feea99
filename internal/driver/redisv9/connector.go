package redisv9

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/TykTechnologies/keyscope/model"
)

func (r *RedisV9) Disconnect(ctx context.Context) error {
	return r.client.Close()
}

// Ping returns the raw reply. An error reply from the server is returned as
// the reply itself, only transport failures are errors.
func (r *RedisV9) Ping(ctx context.Context) (string, error) {
	reply, err := r.client.Ping(ctx).Result()
	if err == nil {
		return reply, nil
	}

	var rerr redis.Error
	if errors.As(err, &rerr) {
		return rerr.Error(), nil
	}

	return "", wrap(err)
}

func (r *RedisV9) Type() string {
	return model.RedisV9Type
}

// As converts i to driver-specific types.
// redisv9 connector supports only *redis.UniversalClient.
// Same concept as https://gocloud.dev/concepts/as/ but for connectors.
func (r *RedisV9) As(i interface{}) bool {
	if x, ok := i.(*redis.UniversalClient); ok {
		*x = r.client
		return true
	}

	return false
}
