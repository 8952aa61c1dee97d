package sidegate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"
)

const cacheTimeSuffix = "_cache_time"

// cachedFetch reads a value and its capture timestamp from the store and
// returns the cached value while it is younger than ttl. A miss, a stale
// entry, or an entry that fails to decode falls through to fetch; a
// corrupted cache entry must never block a fresh fetch. Nothing is cached
// on fetch failure.
//
// Two concurrent callers on a cold cache may both fetch; the last Set
// wins, which is acceptable for idempotent reads of the same remote truth.
func cachedFetch[T any](
	ctx context.Context,
	kv Store,
	logger *slog.Logger,
	key string,
	ttl time.Duration,
	now func() time.Time,
	fetch func(ctx context.Context) (T, error),
) (T, error) {
	timeKey := key + cacheTimeSuffix

	if raw, err := kv.Get(ctx, timeKey); err == nil {
		captured, parseErr := strconv.ParseInt(string(raw), 10, 64)
		if parseErr == nil {
			age := now().Unix() - captured
			if age >= 0 && time.Duration(age)*time.Second < ttl {
				if data, err := kv.Get(ctx, key); err == nil {
					var cached T
					if err := json.Unmarshal(data, &cached); err == nil {
						logger.Debug("cache hit", "key", key, "age_seconds", age)
						return cached, nil
					}
					logger.Warn("cache entry undecodable, fetching fresh", "key", key)
				}
			} else {
				logger.Debug("cache expired", "key", key, "age_seconds", age)
			}
		}
	} else if !errors.Is(err, ErrStoreKeyNotFound) {
		logger.Warn("cache read failed, fetching fresh", "key", key, "error", err)
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := kv.Set(ctx, key, data); err != nil {
			logger.Warn("cache write failed", "key", key, "error", err)
		} else if err := kv.Set(ctx, timeKey, []byte(strconv.FormatInt(now().Unix(), 10))); err != nil {
			logger.Warn("cache timestamp write failed", "key", key, "error", err)
		}
	}

	return value, nil
}
