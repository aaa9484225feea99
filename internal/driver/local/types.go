package local

import (
	"time"

	"github.com/TykTechnologies/keyscope/model"
)

type Object struct {
	Exp   time.Time
	Type  model.KeyType
	NoExp bool
	Value interface{}
}

func (o *Object) IsExpired() bool {
	if o.NoExp {
		return false
	}

	return time.Now().After(o.Exp)
}

func (o *Object) SetExpire(d time.Duration) {
	o.Exp = time.Now().Add(d)
	o.NoExp = false
}

// KVStore holds the objects served by a LocalConnector.
type KVStore interface {
	Get(key string) (*Object, error)
	Set(key string, value *Object) error
	Delete(key string) error
	Keys() []string
	FlushAll() error
}
