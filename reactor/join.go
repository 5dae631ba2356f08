package reactor

import (
	"context"

	"github.com/robbyt/go-reactor/internal/finitestate"
)

// Join blocks until the worker exits and returns the final Result. Only the
// first Join gets the result; later calls fail with ErrAlreadyJoined.
//
// When the worker exited without a terminal step the error wraps
// ErrNotTerminated or ErrWorkerPanic, and the Result holds the last state
// the machine was in.
func (r *Reactor[E, S, R]) Join() (Result[S, R], error) {
	return r.JoinContext(context.Background())
}

// JoinContext is Join bounded by ctx. Giving up on ctx does not consume the
// result; a later Join can still collect it.
func (r *Reactor[E, S, R]) JoinContext(ctx context.Context) (Result[S, R], error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return Result[S, R]{}, &JoinError{Err: ctx.Err()}
	}

	if !r.joined.CompareAndSwap(false, true) {
		return Result[S, R]{}, &JoinError{Err: ErrAlreadyJoined}
	}

	if r.err != nil {
		return r.result, &JoinError{Err: r.err}
	}

	if err := r.fsm.Transition(finitestate.StatusJoined); err != nil {
		r.logger.Error("Failed to transition to Joined state", "error", err)
	}
	r.logger.Debug("Joined", "state", r.result.State)
	return r.result, nil
}
