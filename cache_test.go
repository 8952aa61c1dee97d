package sidegate

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func cacheClock(start time.Time) (func() time.Time, func(time.Duration)) {
	current := start
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestCachedFetchColdThenFresh(t *testing.T) {
	kv := newMemStore()
	logger := slog.New(slog.DiscardHandler)
	now, _ := cacheClock(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) ([]string, error) {
		fetches++
		return []string{"one"}, nil
	}

	got, err := cachedFetch(ctx, kv, logger, "things", time.Minute, now, fetch)
	if err != nil {
		t.Fatalf("cold fetch: %v", err)
	}
	if len(got) != 1 || got[0] != "one" {
		t.Fatalf("unexpected value: %v", got)
	}
	if fetches != 1 {
		t.Fatalf("expected 1 fetch, got %d", fetches)
	}

	// Within the TTL the store serves the value and fetch never runs.
	if _, err := cachedFetch(ctx, kv, logger, "things", time.Minute, now, fetch); err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("expected cached read, got %d fetches", fetches)
	}
}

func TestCachedFetchExpires(t *testing.T) {
	kv := newMemStore()
	logger := slog.New(slog.DiscardHandler)
	now, advance := cacheClock(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) (int, error) {
		fetches++
		return fetches, nil
	}

	if _, err := cachedFetch(ctx, kv, logger, "counter", time.Minute, now, fetch); err != nil {
		t.Fatalf("cold fetch: %v", err)
	}

	advance(2 * time.Minute)

	got, err := cachedFetch(ctx, kv, logger, "counter", time.Minute, now, fetch)
	if err != nil {
		t.Fatalf("stale fetch: %v", err)
	}
	if got != 2 || fetches != 2 {
		t.Fatalf("expected refetch after expiry, got value=%d fetches=%d", got, fetches)
	}

	// The timestamp was refreshed; the next read is a hit again.
	if _, err := cachedFetch(ctx, kv, logger, "counter", time.Minute, now, fetch); err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected refreshed timestamp to serve cached value, got %d fetches", fetches)
	}
}

func TestCachedFetchCorruptEntry(t *testing.T) {
	kv := newMemStore()
	logger := slog.New(slog.DiscardHandler)
	now, _ := cacheClock(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	if err := kv.Set(ctx, "things", []byte("{not json")); err != nil {
		t.Fatalf("seed value: %v", err)
	}
	if err := kv.Set(ctx, "things_cache_time", []byte("1700000000")); err != nil {
		t.Fatalf("seed timestamp: %v", err)
	}

	fetches := 0
	got, err := cachedFetch(ctx, kv, logger, "things", time.Hour, now, func(context.Context) ([]string, error) {
		fetches++
		return []string{"fresh"}, nil
	})
	if err != nil {
		t.Fatalf("fetch over corrupt entry: %v", err)
	}
	if fetches != 1 || len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("expected fresh fetch, got %v fetches=%d", got, fetches)
	}
}

func TestCachedFetchErrorCachesNothing(t *testing.T) {
	kv := newMemStore()
	logger := slog.New(slog.DiscardHandler)
	now, _ := cacheClock(time.Unix(1_700_000_000, 0))
	ctx := context.Background()

	boom := errors.New("portal down")
	_, err := cachedFetch(ctx, kv, logger, "things", time.Minute, now, func(context.Context) ([]string, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	if _, err := kv.Get(ctx, "things"); !errors.Is(err, ErrStoreKeyNotFound) {
		t.Fatalf("expected nothing cached, got %v", err)
	}
	if _, err := kv.Get(ctx, "things_cache_time"); !errors.Is(err, ErrStoreKeyNotFound) {
		t.Fatalf("expected no timestamp cached, got %v", err)
	}
}
