package local

import (
	"time"

	"github.com/dustinxie/lockfree"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

type LockFreeStore struct {
	store lockfree.HashMap
}

func NewLockFreeStore() *LockFreeStore {
	return &LockFreeStore{
		store: lockfree.NewHashMap(),
	}
}

// Get returns the live object under key, or nil. Expired objects are removed.
func (m *LockFreeStore) Get(key string) (*Object, error) {
	v, ok := m.store.Get(key)
	if !ok || v == nil {
		return nil, nil
	}

	o := v.(*Object)
	if o.IsExpired() {
		m.store.Del(key)
		return nil, nil
	}

	return o, nil
}

func (m *LockFreeStore) Set(key string, value *Object) error {
	if key == "" {
		return keyerr.ErrKeyEmpty
	}

	m.store.Set(key, value)

	return nil
}

// Put stores value under key with type kt. A ttl of zero or less never expires.
func (m *LockFreeStore) Put(key string, kt model.KeyType, value interface{}, ttl time.Duration) error {
	o := &Object{Type: kt, Value: value, NoExp: true}
	if ttl > 0 {
		o.SetExpire(ttl)
	}

	return m.Set(key, o)
}

func (m *LockFreeStore) Delete(key string) error {
	m.store.Del(key)
	return nil
}

// Keys returns every live key in no particular order.
func (m *LockFreeStore) Keys() []string {
	var keys, expired []string

	m.store.Lock()
	for k, v, ok := m.store.Next(); ok; k, v, ok = m.store.Next() {
		o, isObject := v.(*Object)
		if !isObject || o == nil {
			continue
		}

		if o.IsExpired() {
			expired = append(expired, k.(string))
			continue
		}

		keys = append(keys, k.(string))
	}
	m.store.Unlock()

	for _, k := range expired {
		m.store.Del(k)
	}

	return keys
}

func (m *LockFreeStore) FlushAll() error {
	delList := []interface{}{}

	m.store.Lock()
	for k, _, ok := m.store.Next(); ok; k, _, ok = m.store.Next() {
		delList = append(delList, k)
	}
	m.store.Unlock()

	for _, k := range delList {
		m.store.Del(k)
	}

	return nil
}
