package reactor

import "time"

// TransitionInfo describes one applied event. States are rendered with %v.
type TransitionInfo struct {
	Reactor   string
	From      string
	To        string // empty when Terminal is true
	Terminal  bool
	Responded bool
	Duration  time.Duration
}

// Observer receives notifications about a reactor's work. TransitionApplied,
// Discarded and Finished run on the worker goroutine; SendRejected runs on the
// goroutine that called Send. Implementations must not block.
type Observer interface {
	TransitionApplied(info TransitionInfo)
	SendRejected(reactor string, reason error)
	// Discarded reports events that were queued behind the terminal step and
	// dropped without being applied.
	Discarded(reactor string, count int)
	Finished(reactor string, err error)
}
