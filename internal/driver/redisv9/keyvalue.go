package redisv9

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

// clusterCursorSeparator joins a master address and its node cursor.
const clusterCursorSeparator = "#"

// Scan returns one batch of keys. On a cluster the masters are walked one
// after another in address order and the cursor is "addr#cursor".
func (r *RedisV9) Scan(ctx context.Context,
	cursor model.Cursor,
	pattern string,
	count int64,
) ([]string, model.Cursor, error) {
	switch client := r.client.(type) {
	case *redis.ClusterClient:
		return r.scanCluster(ctx, client, cursor, pattern, count)
	case *redis.Client:
		start, err := parseNodeCursor(string(cursor))
		if err != nil {
			return nil, cursor, err
		}

		keys, next, err := client.Scan(ctx, start, pattern, count).Result()
		if err != nil {
			return nil, cursor, wrap(err)
		}

		return keys, model.Cursor(strconv.FormatUint(next, 10)), nil
	default:
		return nil, cursor, keyerr.ErrInvalidRedisClient
	}
}

func (r *RedisV9) scanCluster(ctx context.Context,
	client *redis.ClusterClient,
	cursor model.Cursor,
	pattern string,
	count int64,
) ([]string, model.Cursor, error) {
	masters, err := clusterMasters(ctx, client)
	if err != nil {
		return nil, cursor, err
	}

	addrs := make([]string, 0, len(masters))
	for addr := range masters {
		addrs = append(addrs, addr)
	}

	sort.Strings(addrs)

	if len(addrs) == 0 {
		return nil, model.TerminalCursor, nil
	}

	idx, start := 0, uint64(0)

	if !cursor.IsStart() && !cursor.IsTerminal() {
		sep := strings.LastIndex(string(cursor), clusterCursorSeparator)
		if sep < 0 {
			return nil, cursor, keyerr.ErrInvalidCursor
		}

		addr := string(cursor)[:sep]

		idx = sort.SearchStrings(addrs, addr)
		if idx == len(addrs) || addrs[idx] != addr {
			return nil, cursor, fmt.Errorf("%w: unknown node %s", keyerr.ErrInvalidCursor, addr)
		}

		if start, err = parseNodeCursor(string(cursor)[sep+1:]); err != nil {
			return nil, cursor, err
		}
	}

	keys, next, err := masters[addrs[idx]].Scan(ctx, start, pattern, count).Result()
	if err != nil {
		return nil, cursor, wrap(err)
	}

	switch {
	case next != 0:
		return keys, clusterCursor(addrs[idx], next), nil
	case idx+1 < len(addrs):
		return keys, clusterCursor(addrs[idx+1], 0), nil
	default:
		return keys, model.TerminalCursor, nil
	}
}

func clusterMasters(ctx context.Context, client *redis.ClusterClient) (map[string]*redis.Client, error) {
	masters := make(map[string]*redis.Client)

	var mutex sync.Mutex

	err := client.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		mutex.Lock()
		masters[node.Options().Addr] = node
		mutex.Unlock()

		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}

	return masters, nil
}

func clusterCursor(addr string, cursor uint64) model.Cursor {
	return model.Cursor(addr + clusterCursorSeparator + strconv.FormatUint(cursor, 10))
}

func parseNodeCursor(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", keyerr.ErrInvalidCursor, s)
	}

	return n, nil
}

// Keys returns all keys matching the given pattern
func (r *RedisV9) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var mutex sync.Mutex
	var firstError error

	switch client := r.client.(type) {
	case *redis.ClusterClient:
		err := client.ForEachMaster(ctx, func(ctx context.Context, client *redis.Client) error {
			nodeKeys, err := client.Keys(ctx, pattern).Result()

			mutex.Lock()
			defer mutex.Unlock()

			if err != nil {
				if firstError == nil {
					firstError = err
				}
				return nil // continue with other nodes
			}

			keys = append(keys, nodeKeys...)

			return nil
		})

		if firstError != nil {
			return nil, wrap(firstError)
		}
		if err != nil {
			return nil, wrap(err)
		}

	case *redis.Client:
		nodeKeys, err := client.Keys(ctx, pattern).Result()
		if err != nil {
			return nil, wrap(err)
		}

		keys = nodeKeys

	default:
		return nil, keyerr.ErrInvalidRedisClient
	}

	return keys, nil
}

// KeyType returns the data type stored under key
func (r *RedisV9) KeyType(ctx context.Context, key string) (model.KeyType, error) {
	if key == "" {
		return model.KeyTypeUnknown, keyerr.ErrKeyEmpty
	}

	reply, err := r.client.Type(ctx, key).Result()
	if err != nil {
		return model.KeyTypeUnknown, wrap(err)
	}

	return model.ParseKeyType(reply), nil
}

// TTL returns the remaining time to live of key
func (r *RedisV9) TTL(ctx context.Context, key string) (model.TTL, error) {
	if key == "" {
		return model.TTL{}, keyerr.ErrKeyEmpty
	}

	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return model.TTL{}, wrap(err)
	}

	// go-redis passes the -2 and -1 markers through as raw durations.
	switch d {
	case -2, -2 * time.Second:
		return model.TTL{Missing: true}, nil
	case -1, -1 * time.Second:
		return model.TTL{Persistent: true}, nil
	}

	return model.TTL{Remaining: d}, nil
}

// Info returns the raw INFO report of the node serving the connection
func (r *RedisV9) Info(ctx context.Context) (string, error) {
	info, err := r.client.Info(ctx).Result()
	if err != nil {
		return "", wrap(err)
	}

	return info, nil
}

// DBSize returns the number of keys in the selected database, summed over
// every master on a cluster
func (r *RedisV9) DBSize(ctx context.Context) (int64, error) {
	switch client := r.client.(type) {
	case *redis.ClusterClient:
		var total int64
		var mutex sync.Mutex

		err := client.ForEachMaster(ctx, func(ctx context.Context, client *redis.Client) error {
			n, err := client.DBSize(ctx).Result()
			if err != nil {
				return err
			}

			mutex.Lock()
			total += n
			mutex.Unlock()

			return nil
		})
		if err != nil {
			return 0, wrap(err)
		}

		return total, nil

	case *redis.Client:
		n, err := client.DBSize(ctx).Result()
		if err != nil {
			return 0, wrap(err)
		}

		return n, nil

	default:
		return 0, keyerr.ErrInvalidRedisClient
	}
}
