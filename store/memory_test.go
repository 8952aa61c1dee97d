package store

import (
	"context"
	"errors"
	"testing"

	sidegate "github.com/sidegate/sidegate"
)

func TestMemoryRoundTrip(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	if err := st.Set(ctx, "ids", []byte(`["a","b"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := st.Get(ctx, "ids")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `["a","b"]` {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestMemoryMissingKey(t *testing.T) {
	st := NewMemory()

	_, err := st.Get(context.Background(), "absent")
	if !errors.Is(err, sidegate.ErrStoreKeyNotFound) {
		t.Fatalf("expected ErrStoreKeyNotFound, got %v", err)
	}
}

func TestMemoryValueIsolation(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	src := []byte("original")
	if err := st.Set(ctx, "k", src); err != nil {
		t.Fatalf("set: %v", err)
	}
	src[0] = 'X'

	got, err := st.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}

	got[0] = 'Y'
	again, err := st.Get(ctx, "k")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if string(again) != "original" {
		t.Fatalf("read value aliased internal slice: %s", again)
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	st := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := st.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
