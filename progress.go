package sidegate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// StageStatus is the lifecycle state of one stage of a staged operation.
type StageStatus uint8

const (
	// StagePending is the state of a stage before Start.
	StagePending StageStatus = iota
	// StageRunning is the state between Start and Complete/Fail.
	StageRunning
	// StageCompleted is a terminal per-stage state.
	StageCompleted
	// StageFailed is a terminal per-stage state.
	StageFailed
)

// MarshalJSON renders the status as its lowercase name so serialized
// events stay readable.
func (s StageStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s StageStatus) String() string {
	switch s {
	case StageRunning:
		return "running"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ProgressEvent is one stage transition of a staged operation. Events of a
// single operation arrive at the sink in the exact order the transitions
// happened.
type ProgressEvent struct {
	Timestamp   time.Time   `json:"timestamp"`
	OperationID string      `json:"operation_id"`
	Operation   string      `json:"operation"`
	Stage       string      `json:"stage"`
	Status      StageStatus `json:"status"`
	// Terminal marks the final event of a completed operation.
	Terminal bool `json:"terminal,omitempty"`
	// Message carries the failure description on StageFailed events.
	Message string `json:"message,omitempty"`
}

// ProgressSink receives stage transition events. Emit must not block
// indefinitely; slow sinks should rely on the dispatcher's buffering.
type ProgressSink interface {
	Emit(ctx context.Context, event ProgressEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit implements ProgressSink.
func (NoOpSink) Emit(context.Context, ProgressEvent) {}

// ChannelSink forwards events to a buffered channel, for UIs that render
// progress from their own goroutine.
type ChannelSink struct {
	events chan ProgressEvent
}

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan ProgressEvent, buffer),
	}
}

// Emit implements ProgressSink.
func (s *ChannelSink) Emit(ctx context.Context, event ProgressEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan ProgressEvent {
	return s.events
}

// JSONWriterSink writes one JSON line per event.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements ProgressSink.
func (s *JSONWriterSink) Emit(ctx context.Context, event ProgressEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(append(data, '\n'))
}
