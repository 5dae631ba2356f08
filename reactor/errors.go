package reactor

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminated is returned when sending to a machine that already took a terminal step
	ErrTerminated = errors.New("reactor reached a terminal state")

	// ErrClosed is returned when sending after Close
	ErrClosed = errors.New("reactor input is closed")

	// ErrStopped is returned when sending after the worker exited without a terminal step
	ErrStopped = errors.New("reactor worker stopped")

	// ErrAlreadyJoined is returned by every Join after the first successful one
	ErrAlreadyJoined = errors.New("reactor already joined")

	// ErrNotTerminated is reported by Join when the worker exited before a terminal step
	ErrNotTerminated = errors.New("reactor stopped before a terminal transition")

	// ErrWorkerPanic is reported by Join when Transition or Respond panicked
	ErrWorkerPanic = errors.New("reactor worker panicked")

	// ErrNilMachine is returned by New when no machine is provided
	ErrNilMachine = errors.New("machine is nil")

	// ErrInvalidOption is returned by New when an option value is out of range
	ErrInvalidOption = errors.New("invalid reactor option")
)

// SendError is returned when an event was not accepted. The event was never
// applied; it is handed back so the caller can decide what to do with it.
type SendError[E any] struct {
	Event E
	Err   error
}

func (e *SendError[E]) Error() string {
	return fmt.Sprintf("send %v: %v", e.Event, e.Err)
}

func (e *SendError[E]) Unwrap() error {
	return e.Err
}

// JoinError is returned when Join cannot hand out a final result.
type JoinError struct {
	Err error
}

func (e *JoinError) Error() string {
	return "join: " + e.Err.Error()
}

func (e *JoinError) Unwrap() error {
	return e.Err
}
