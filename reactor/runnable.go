package reactor

import (
	"context"
	"errors"
)

// Run blocks until the worker exits or ctx is done, in which case the input is
// closed and Run waits for the queue to drain. Run only reports worker panics;
// the full outcome, including ErrNotTerminated, is left for Join.
func (r *Reactor[E, S, R]) Run(ctx context.Context) error {
	select {
	case <-r.done:
	case <-ctx.Done():
		r.logger.Debug("Run context canceled, closing input")
		r.Close()
		<-r.done
	}

	if errors.Is(r.err, ErrWorkerPanic) {
		return r.err
	}
	return nil
}

// Stop closes the input and blocks until the worker exits.
func (r *Reactor[E, S, R]) Stop() {
	r.Close()
	<-r.done
}

// GetShutdownTrigger returns a channel that is closed once the machine takes
// its terminal step, so a supervisor can wind down the rest of the process.
func (r *Reactor[E, S, R]) GetShutdownTrigger() <-chan struct{} {
	return r.terminal
}
