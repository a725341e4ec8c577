package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"stoop/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: it tries to fill dest from Redis,
// and on a miss calls load (which must populate dest) and stores the result.
// Redis failures degrade to a plain load, never to an error for the caller.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	prefix := keyPrefix(key)

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheResults.WithLabelValues(prefix, "hit").Inc()
			return nil
		}
		// Stale or corrupt entry; drop it and reload.
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable mid-flight: serve from the database.
		return load()
	}

	observability.CacheResults.WithLabelValues(prefix, "miss").Inc()

	if err := load(); err != nil {
		return err
	}

	if raw, err := json.Marshal(dest); err == nil {
		client.Set(ctx, key, raw, ttl)
	}
	return nil
}

func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
