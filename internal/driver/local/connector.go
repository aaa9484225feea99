package local

import (
	"context"
	"sync"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

const pong = "PONG"

// LocalConnector serves a KVStore in-process, with the same semantics as a
// single redis node.
type LocalConnector struct {
	Store     KVStore
	mutex     sync.RWMutex
	connected bool
}

func NewLocalConnector(store KVStore) *LocalConnector {
	return &LocalConnector{Store: store, connected: true}
}

// Disconnect disconnects from the backend
func (api *LocalConnector) Disconnect(context.Context) error {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	api.connected = false
	return nil
}

// Ping executes a ping to the backend
func (api *LocalConnector) Ping(context.Context) (string, error) {
	if err := api.check(); err != nil {
		return "", err
	}

	return pong, nil
}

// Type returns the  connector type
func (api *LocalConnector) Type() string {
	return model.LocalType
}

// As converts i to driver-specific types.
// Same concept as https://gocloud.dev/concepts/as/ but for connectors.
func (api *LocalConnector) As(i interface{}) bool {
	if x, ok := i.(*KVStore); ok {
		*x = api.Store
		return true
	}

	return false
}

func (api *LocalConnector) check() error {
	api.mutex.RLock()
	defer api.mutex.RUnlock()

	if !api.connected {
		return &keyerr.ConnectionError{Cause: keyerr.ErrClosedConnection}
	}

	return nil
}
