package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/cache"
)

// listTTL bounds the read-side caches for list and lookup responses; writes
// evict the affected keys explicitly, the TTL only covers crashes between
// write and eviction.
const listTTL = 10 * time.Minute

// cached is the read-through helper for JSON-cacheable responses. Cache
// failures degrade to a direct load; a load error is never stored.
func cached[T any](ctx context.Context, kv cache.KeyValue, key string, log zerolog.Logger, load func(context.Context) (T, error)) (T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("response cache read failed")
	} else if ok {
		var out T
		if json.Unmarshal([]byte(raw), &out) == nil {
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}

	if encoded, err := json.Marshal(out); err == nil {
		if err := kv.Put(ctx, key, string(encoded), listTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("response cache write failed")
		}
	}
	return out, nil
}

// evict drops response-cache keys, logging rather than failing: read caches
// carry a TTL bound, so a missed eviction heals, unlike the validation cache.
func evict(ctx context.Context, kv cache.KeyValue, log zerolog.Logger, keys ...string) {
	if err := kv.Evict(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("response cache eviction failed")
	}
}
