package reactor

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type toggleEvent int

const (
	E1 toggleEvent = iota
	E2
)

type toggleState int

const (
	S1 toggleState = iota
	S2
)

func (s toggleState) String() string {
	return [...]string{"S1", "S2"}[s]
}

func (e toggleEvent) String() string {
	return [...]string{"E1", "E2"}[e]
}

type toggleStep = Step[toggleState, string]

// response is one observed Respond call.
type response struct {
	old      toggleState
	next     toggleState
	terminal bool
	resp     string
}

// toggle is the two-state machine: E2 moves S1 to S2, S2 echoes, E1 in S2
// returns to S1, and E1 in S1 quits.
type toggle struct {
	mu        sync.Mutex
	responses []response
	initial   toggleState
}

func (m *toggle) Transition(old toggleState, ev toggleEvent) toggleStep {
	switch old {
	case S1:
		switch ev {
		case E1:
			return toggleStep{}.Emit("Quitting")
		case E2:
			return toggleStep{}.Goto(S2)
		}
	case S2:
		switch ev {
		case E1:
			return toggleStep{}.Goto(S1).Emit("S2@E1->S1")
		case E2:
			return toggleStep{}.Goto(S2).Emit("S2@E2->S2")
		}
	}
	panic(fmt.Sprintf("unhandled %v@%v", old, ev))
}

func (m *toggle) Respond(old toggleState, step toggleStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, ok := step.Next()
	resp, _ := step.Response()
	m.responses = append(m.responses, response{old: old, next: next, terminal: !ok, resp: resp})
}

func (m *toggle) observed() []response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]response(nil), m.responses...)
}

// startsInS2 is a toggle with a non-zero initial state.
type startsInS2 struct {
	toggle
}

func (m *startsInS2) Initial() toggleState {
	return S2
}

// sequenced events carry a sender id and a per-sender sequence number.
type sequenced struct {
	sender int
	seq    int
	halt   bool
}

// counter accepts every event, moves to the event's sequence number and
// responds with it, so the response stream shows application order.
type counter struct {
	mu   sync.Mutex
	seen []sequenced
	olds []int
}

func (m *counter) Transition(old int, ev sequenced) Step[int, sequenced] {
	if ev.halt {
		return Step[int, sequenced]{}
	}
	return Step[int, sequenced]{}.Goto(ev.seq).Emit(ev)
}

func (m *counter) Respond(old int, step Step[int, sequenced]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, _ := step.Response()
	m.seen = append(m.seen, resp)
	m.olds = append(m.olds, old)
}

func (m *counter) snapshot() ([]sequenced, []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sequenced(nil), m.seen...), append([]int(nil), m.olds...)
}

// gated blocks inside Transition until release is closed, and counts calls.
type gated struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func newGated() *gated {
	return &gated{release: make(chan struct{})}
}

func (m *gated) Transition(old string, ev string) Step[string, string] {
	<-m.release
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if ev == "halt" {
		return Step[string, string]{}.Emit("halted")
	}
	return Step[string, string]{}.Goto(ev)
}

func (m *gated) Respond(string, Step[string, string]) {}

func (m *gated) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// panicky panics on the event "boom".
type panicky struct{}

func (panicky) Transition(old string, ev string) Step[string, string] {
	if ev == "boom" {
		panic("unexpected event")
	}
	return Step[string, string]{}.Goto(ev)
}

func (panicky) Respond(string, Step[string, string]) {}

// panicsInRespond echoes every event and panics when asked to respond to "boom".
type panicsInRespond struct{}

func (panicsInRespond) Transition(old string, ev string) Step[string, string] {
	return Step[string, string]{}.Goto(ev).Emit(ev)
}

func (panicsInRespond) Respond(_ string, step Step[string, string]) {
	if resp, _ := step.Response(); resp == "boom" {
		panic("unexpected response")
	}
}

func quietHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}
