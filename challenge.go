package sidegate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// challengeBroker is the one-shot rendezvous between a login blocked on a
// second factor and the UI surface that eventually delivers the code.
// Waiters are keyed by request id; a waiter is deregistered on every exit
// path so a late delivery can never land on a resolved request.
type challengeBroker struct {
	timeout time.Duration

	mu      sync.Mutex
	waiters map[string]chan string
	closed  bool
	done    chan struct{}
}

func newChallengeBroker(timeout time.Duration) *challengeBroker {
	return &challengeBroker{
		timeout: timeout,
		waiters: make(map[string]chan string),
		done:    make(chan struct{}),
	}
}

// Request registers a waiter, invokes notify exactly once with the request
// id, then blocks the calling goroutine until a code is delivered, the
// challenge window elapses, the context is cancelled, or the broker shuts
// down.
func (b *challengeBroker) Request(ctx context.Context, notify func(requestID string)) (string, error) {
	requestID := uuid.NewString()
	ch := make(chan string, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return "", ErrChallengeDisconnected
	}
	b.waiters[requestID] = ch
	b.mu.Unlock()
	defer b.deregister(requestID)

	notify(requestID)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case code := <-ch:
		return stripQuotes(code), nil
	case <-timer.C:
		return "", ErrChallengeTimeout
	case <-b.done:
		return "", ErrChallengeDisconnected
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Deliver routes a code to the waiter registered under requestID. The
// waiter is removed before the send, so exactly one delivery is consumed;
// later deliveries see ErrChallengeNotPending. Deliver never blocks.
func (b *challengeBroker) Deliver(requestID, code string) error {
	b.mu.Lock()
	ch, ok := b.waiters[requestID]
	if ok {
		delete(b.waiters, requestID)
	}
	b.mu.Unlock()
	if !ok {
		return ErrChallengeNotPending
	}
	ch <- code
	return nil
}

// Close wakes every blocked waiter with ErrChallengeDisconnected and
// rejects future requests.
func (b *challengeBroker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()
}

func (b *challengeBroker) deregister(requestID string) {
	b.mu.Lock()
	delete(b.waiters, requestID)
	b.mu.Unlock()
}

// stripQuotes removes one leading and one trailing quote character left by
// the transport. Code format is the provider's concern, not ours.
func stripQuotes(code string) string {
	code = strings.TrimPrefix(code, `"`)
	return strings.TrimSuffix(code, `"`)
}
