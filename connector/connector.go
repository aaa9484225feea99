package connector

import (
	"context"

	"go.uber.org/zap"

	"github.com/TykTechnologies/keyscope/internal/driver/local"
	"github.com/TykTechnologies/keyscope/internal/driver/redisv9"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

var (
	_ model.Conn = (*redisv9.RedisV9)(nil)
	_ model.Conn = (*local.LocalConnector)(nil)
)

// LocalStore is the in-process key space served by the local connector.
type LocalStore = local.LockFreeStore

func NewLocalStore() *LocalStore {
	return local.NewLockFreeStore()
}

// NewConnector returns a new connection to desc based on the type.
// The local type serves a fresh, empty store.
func NewConnector(connType string, desc model.Descriptor) (model.Conn, error) {
	switch connType {
	case model.RedisV9Type:
		conn, err := redisv9.NewRedisV9(desc)
		if err != nil {
			return nil, err
		}

		return conn, nil
	case model.LocalType:
		return local.NewLocalConnector(local.NewLockFreeStore()), nil

	default:
		return nil, keyerr.ErrInvalidHandlerType
	}
}

// NewDialer returns a model.Dialer opening connections of the given type.
// Every connection of a local dialer shares one store.
func NewDialer(connType string, options ...model.Option) (model.Dialer, error) {
	switch connType {
	case model.RedisV9Type:
	case model.LocalType:
		return NewLocalDialer(NewLocalStore(), options...), nil
	default:
		return nil, keyerr.ErrInvalidHandlerType
	}

	log := model.NewBaseConfig(options...).Logger

	return model.DialerFunc(func(ctx context.Context, desc model.Descriptor) (model.Conn, error) {
		log.Debug("dialing", zap.String("type", connType), zap.Stringer("target", desc))
		return NewConnector(connType, desc)
	}), nil
}

// NewLocalDialer returns a dialer whose connections all serve store.
func NewLocalDialer(store *LocalStore, options ...model.Option) model.Dialer {
	log := model.NewBaseConfig(options...).Logger

	return model.DialerFunc(func(ctx context.Context, desc model.Descriptor) (model.Conn, error) {
		log.Debug("dialing", zap.String("type", model.LocalType), zap.Stringer("target", desc))
		return local.NewLocalConnector(store), nil
	})
}
