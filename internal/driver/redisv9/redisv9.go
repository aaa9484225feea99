package redisv9

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TykTechnologies/keyscope/internal/helper"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

const (
	defaultTimeout = 5 * time.Second
	// poolSize applies per cluster node and not for the whole cluster.
	poolSize = 4
)

type RedisV9 struct {
	client redis.UniversalClient
}

// NewRedisV9 returns a driver for desc. No connection is made until the first command.
func NewRedisV9(desc model.Descriptor) (*RedisV9, error) {
	if len(desc.Addrs) == 0 {
		return nil, keyerr.ErrInvalidConfiguration
	}

	universalOpts := universalOptions(desc)

	var client redis.UniversalClient

	switch desc.Topology {
	case model.UnixSocket:
		opts := universalOpts.Simple()
		opts.Network = model.NetworkUnix
		client = redis.NewClient(opts)
	case model.Sentinel:
		if desc.MasterName == "" {
			return nil, keyerr.ErrMasterNameRequired
		}

		client = redis.NewFailoverClient(universalOpts.Failover())
	case model.Cluster:
		client = redis.NewClusterClient(universalOpts.Cluster())
	default:
		client = redis.NewClient(universalOpts.Simple())
	}

	return &RedisV9{client: client}, nil
}

func universalOptions(desc model.Descriptor) *redis.UniversalOptions {
	timeout := defaultTimeout
	if desc.Timeout > 0 {
		timeout = desc.Timeout
	}

	opts := &redis.UniversalOptions{
		Addrs:           append([]string(nil), desc.Addrs...),
		MasterName:      desc.MasterName,
		ClientName:      desc.ClientName,
		DB:              desc.Database,
		DialTimeout:     timeout,
		ReadTimeout:     timeout,
		WriteTimeout:    timeout,
		ConnMaxIdleTime: 240 * timeout,
		PoolSize:        poolSize,
		TLSConfig:       helper.HandleTLS(desc),
	}

	switch desc.Auth.Mode {
	case model.AuthUserPassword:
		opts.Username = desc.Auth.Username
		opts.Password = string(desc.Auth.Password)
	case model.AuthPassword:
		opts.Password = string(desc.Auth.Password)
	}

	return opts
}

// wrap classifies a transport failure as a connection error.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.ErrClosed) {
		return &keyerr.ConnectionError{Cause: keyerr.ErrClosedConnection}
	}

	return keyerr.Connection(err)
}
