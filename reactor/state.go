package reactor

import (
	"context"

	"github.com/robbyt/go-reactor/internal/finitestate"
)

// GetState returns the lifecycle phase of the reactor: New, Running,
// Terminal, Joined or Error. The user machine's own state is only observable
// through Respond and Join.
func (r *Reactor[E, S, R]) GetState() string {
	return r.fsm.GetState()
}

// GetStateChan returns a channel that will receive lifecycle phase updates.
func (r *Reactor[E, S, R]) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChanWithTimeout(ctx)
}

// IsTerminal returns true once the machine has taken a terminal step.
func (r *Reactor[E, S, R]) IsTerminal() bool {
	select {
	case <-r.terminal:
		return true
	default:
		return false
	}
}

// setStateError marks the FSM as being in the error state.
func (r *Reactor[E, S, R]) setStateError() {
	err := r.fsm.SetState(finitestate.StatusError)
	if err != nil {
		r.logger.Error("Failed to transition to Error state", "error", err)
	}
}
