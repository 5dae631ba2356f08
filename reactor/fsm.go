package reactor

// FSM holds the transition logic of a user-defined state machine. It can
// describe both Mealy machines (output from the transition) and Moore
// machines (output derived from the state).
//
// A reactor calls both methods from a single worker goroutine, so
// implementations need no locking of their own.
type FSM[E, S comparable, R any] interface {
	// Transition maps the current state and an incoming event to a Step.
	// A Step without a next state terminates the machine. Implementations
	// should be total over every (state, event) pair; a panic here stops
	// the reactor with ErrWorkerPanic.
	Transition(old S, ev E) Step[S, R]

	// Respond is called for every Step that carries a response, before the
	// worker takes the next event. Slow implementations throttle the reactor.
	Respond(old S, step Step[S, R])
}

// Initializer is implemented by machines that do not start from the zero
// value of their state type.
type Initializer[S comparable] interface {
	Initial() S
}

// Step is the outcome of a single transition: an optional next state and an
// optional response. The zero value terminates the machine without a response.
//
//	type step = reactor.Step[State, string]
//
//	step{}.Goto(Running)              // move on silently
//	step{}.Goto(Idle).Emit("paused")  // move on and respond
//	step{}.Emit("bye")                // terminate with a response
type Step[S comparable, R any] struct {
	next    S
	hasNext bool
	resp    R
	hasResp bool
}

// Goto returns a copy of the step that moves the machine to next.
func (s Step[S, R]) Goto(next S) Step[S, R] {
	s.next = next
	s.hasNext = true
	return s
}

// Emit returns a copy of the step that carries resp.
func (s Step[S, R]) Emit(resp R) Step[S, R] {
	s.resp = resp
	s.hasResp = true
	return s
}

// Next returns the next state, and false when the step terminates the machine.
func (s Step[S, R]) Next() (S, bool) {
	return s.next, s.hasNext
}

// Response returns the response, and false when the step carries none.
func (s Step[S, R]) Response() (R, bool) {
	return s.resp, s.hasResp
}

// Terminal reports whether the step ends the machine.
func (s Step[S, R]) Terminal() bool {
	return !s.hasNext
}
