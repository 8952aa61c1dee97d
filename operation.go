package sidegate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation tracks one named multi-stage workflow. Stages are declared by
// the call sequence, not up front; each transition emits exactly one
// progress event, and events of one Operation are strictly ordered.
//
// An Operation becomes terminal on Fail or Complete. Every transition
// attempted afterwards returns ErrOperationDone.
type Operation struct {
	id         string
	name       string
	dispatcher *progressDispatcher

	mu       sync.Mutex
	terminal bool
}

func newOperation(name string, dispatcher *progressDispatcher) *Operation {
	return &Operation{
		id:         uuid.NewString(),
		name:       name,
		dispatcher: dispatcher,
	}
}

// ID returns the operation instance id carried on every event.
func (op *Operation) ID() string { return op.id }

// Name returns the operation name.
func (op *Operation) Name() string { return op.name }

// Start marks stage running and emits a stage-started event. A failed
// emission is an infrastructure error and must end the operation.
func (op *Operation) Start(ctx context.Context, stage string) error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.terminal {
		return ErrOperationDone
	}
	return op.emit(ctx, stage, StageRunning, false, "")
}

// Fail marks stage failed, emits a stage-failed event carrying message,
// and returns a *StageError for the caller to propagate. The operation is
// terminal afterwards.
func (op *Operation) Fail(ctx context.Context, stage, message string) error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.terminal {
		return ErrOperationDone
	}
	op.terminal = true
	if err := op.emit(ctx, stage, StageFailed, true, message); err != nil {
		return err
	}
	return &StageError{Operation: op.name, Stage: stage, Message: message}
}

// Check wires a fallible call into the operation: a nil error passes
// through untouched, a non-nil error fails the stage. This is the single
// point where external failures enter the state machine.
func (op *Operation) Check(ctx context.Context, stage string, err error) error {
	if err == nil {
		return nil
	}
	return op.Fail(ctx, stage, err.Error())
}

// StageResult is the value-carrying form of [Operation.Check]: v passes
// through unchanged when err is nil, otherwise the stage fails and the
// zero value is returned with the stage error.
func StageResult[T any](ctx context.Context, op *Operation, stage string, v T, err error) (T, error) {
	if err == nil {
		return v, nil
	}
	var zero T
	return zero, op.Fail(ctx, stage, err.Error())
}

// MoveOn atomically completes the current stage and starts the next,
// emitting one event per transition with no gap in between.
func (op *Operation) MoveOn(ctx context.Context, from, to string) error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.terminal {
		return ErrOperationDone
	}
	if err := op.emit(ctx, from, StageCompleted, false, ""); err != nil {
		return err
	}
	return op.emit(ctx, to, StageRunning, false, "")
}

// Complete marks the final stage completed and emits the terminal
// operation-completed event.
func (op *Operation) Complete(ctx context.Context, stage string) error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.terminal {
		return ErrOperationDone
	}
	op.terminal = true
	return op.emit(ctx, stage, StageCompleted, true, "")
}

// emit expects op.mu held.
func (op *Operation) emit(ctx context.Context, stage string, status StageStatus, terminal bool, message string) error {
	return op.dispatcher.Emit(ctx, ProgressEvent{
		Timestamp:   time.Now(),
		OperationID: op.id,
		Operation:   op.name,
		Stage:       stage,
		Status:      status,
		Terminal:    terminal,
		Message:     message,
	})
}
