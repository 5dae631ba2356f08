package finitestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/robbyt/go-fsm"
)

// Lifecycle phases of a reactor. These describe the engine hosting a user
// machine, not the user machine's own states.
const (
	StatusNew      = "New"
	StatusRunning  = "Running"
	StatusTerminal = "Terminal"
	StatusJoined   = "Joined"
	StatusError    = "Error"
)

// ReactorTransitions lists the allowed phase changes. A reactor either reaches
// Terminal through a halting step and is later Joined, or lands in Error when
// its worker exits any other way.
var ReactorTransitions = map[string][]string{
	StatusNew:      {StatusRunning, StatusError},
	StatusRunning:  {StatusTerminal, StatusError},
	StatusTerminal: {StatusJoined},
	StatusJoined:   {},
	StatusError:    {},
}

// Machine is a wrapper around go-fsm.Machine that provides additional functionality.
type Machine struct {
	*fsm.Machine
}

// GetStateChanWithTimeout returns a channel that emits the phase whenever it
// changes, giving slow readers up to five seconds before an update is dropped.
// The channel is closed when the provided context is canceled.
func (s *Machine) GetStateChanWithTimeout(ctx context.Context) <-chan string {
	return s.GetStateChanWithOptions(ctx, fsm.WithSyncTimeout(5*time.Second))
}

// New creates a lifecycle machine in the New phase, logging through handler.
func New(handler slog.Handler) (*Machine, error) {
	f, err := fsm.New(handler, StatusNew, ReactorTransitions)
	if err != nil {
		return nil, err
	}
	return &Machine{Machine: f}, nil
}
