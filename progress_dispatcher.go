package sidegate

import (
	"context"
	"sync"
	"sync/atomic"
)

// progressDispatcher decouples staged operations from the sink. A single
// consumer goroutine drains a buffered channel, which keeps events in
// emission order across all operations without holding emitters on a slow
// sink.
type progressDispatcher struct {
	cfg       ProgressConfig
	sink      ProgressSink
	ch        chan ProgressEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newProgressDispatcher(cfg ProgressConfig, sink ProgressSink) *progressDispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &progressDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan ProgressEvent, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *progressDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an event. It reports ErrProgressClosed once the dispatcher
// has shut down: a staged operation treats that as a fatal infrastructure
// failure. With DropIfFull, a full buffer drops the event and counts it
// instead of blocking the emitter.
func (d *progressDispatcher) Emit(ctx context.Context, event ProgressEvent) error {
	if d == nil || d.closed.Load() {
		return ErrProgressClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
			return ErrProgressClosed
		default:
			d.dropped.Add(1)
		}
		return nil
	}

	select {
	case d.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrProgressClosed
	}
}

// Close drains buffered events into the sink and stops the consumer.
func (d *progressDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded under DropIfFull.
func (d *progressDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
