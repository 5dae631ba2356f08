package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robbyt/go-reactor/internal/finitestate"
)

// Result is what a terminated machine hands to Join: the state it was in when
// the terminal step was taken, and that step's response if it had one.
type Result[S comparable, R any] struct {
	State       S
	Response    R
	HasResponse bool
}

// Sender is the send-only view of a Reactor. It can be handed to other
// goroutines that feed the machine but must not join it.
type Sender[E comparable] interface {
	Send(ev E) error
	SendContext(ctx context.Context, ev E) error
}

// Reactor hosts one FSM on a dedicated worker goroutine. Events are applied
// strictly in the order they were accepted, one at a time.
type Reactor[E, S comparable, R any] struct {
	name     string
	machine  FSM[E, S, R]
	observer Observer

	// sendMu guards closed and makes closing events safe against concurrent senders
	sendMu sync.RWMutex
	closed bool
	events chan E

	terminal chan struct{} // closed after a terminal step
	done     chan struct{} // closed when the worker exits

	// written by the worker before done is closed
	result Result[S, R]
	err    error

	joined atomic.Bool

	fsm    *finitestate.Machine
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// Interface guards
var (
	_ Sender[string] = (*Reactor[string, string, string])(nil)
)

// New takes ownership of machine, starts its worker and returns a Reactor that
// accepts events immediately. The machine starts in the zero value of S, or in
// Initial() when it implements Initializer.
func New[E, S comparable, R any](machine FSM[E, S, R], opts ...Option) (*Reactor[E, S, R], error) {
	if machine == nil {
		return nil, ErrNilMachine
	}

	cfg := config{
		name:      fmt.Sprintf("%T", machine),
		queueSize: DefaultQueueSize,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueSize < 0 {
		return nil, fmt.Errorf("%w: queue size must not be negative, got %d", ErrInvalidOption, cfg.queueSize)
	}

	logger := slog.Default().WithGroup("reactor")
	if cfg.logHandler != nil {
		logger = slog.New(cfg.logHandler.WithGroup("reactor"))
	}
	logger = logger.With("name", cfg.name)

	fsmLogger := logger.WithGroup("fsm")
	lifecycle, err := finitestate.New(fsmLogger.Handler())
	if err != nil {
		return nil, fmt.Errorf("unable to create fsm: %w", err)
	}

	ctx, cancel := context.WithCancel(cfg.ctx)
	r := &Reactor[E, S, R]{
		name:     cfg.name,
		machine:  machine,
		observer: cfg.observer,
		events:   make(chan E, cfg.queueSize),
		terminal: make(chan struct{}),
		done:     make(chan struct{}),
		fsm:      lifecycle,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}

	var initial S
	if init, ok := machine.(Initializer[S]); ok {
		initial = init.Initial()
	}

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		cancel()
		return nil, fmt.Errorf("unable to start reactor: %w", err)
	}

	go r.run(initial)
	return r, nil
}

// String returns a string representation of the Reactor instance.
func (r *Reactor[E, S, R]) String() string {
	return fmt.Sprintf("Reactor<%s>", r.name)
}

// Send queues ev for the worker. It blocks only while the queue is full.
// It fails with a *SendError once the machine terminated, the worker stopped,
// or the input was closed; a rejected event is never applied.
//
// Events accepted into the queue before the terminal step became visible are
// discarded without being applied. With WithQueueSize(0) every send after
// the terminal step is rejected.
func (r *Reactor[E, S, R]) Send(ev E) error {
	return r.SendContext(context.Background(), ev)
}

// SendContext is Send with a context bounding the wait for queue space.
func (r *Reactor[E, S, R]) SendContext(ctx context.Context, ev E) error {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()

	if r.closed {
		return r.reject(ev, ErrClosed)
	}

	// done is closed after terminal on a clean exit, so terminal is checked alone first.
	if r.IsTerminal() {
		return r.reject(ev, ErrTerminated)
	}
	select {
	case <-r.done:
		return r.reject(ev, r.stopReason())
	default:
	}

	select {
	case r.events <- ev:
		return nil
	case <-r.terminal:
		return r.reject(ev, ErrTerminated)
	case <-r.done:
		return r.reject(ev, r.stopReason())
	case <-ctx.Done():
		return r.reject(ev, ctx.Err())
	}
}

// stopReason is the rejection reason once done is closed.
func (r *Reactor[E, S, R]) stopReason() error {
	if r.IsTerminal() {
		return ErrTerminated
	}
	return ErrStopped
}

// Sender returns a send-only handle sharing this reactor's input.
func (r *Reactor[E, S, R]) Sender() Sender[E] {
	return r
}

// Close closes the input. Events already queued are still applied. If the
// machine has not terminated by the time the queue is drained, the worker
// exits and Join reports ErrNotTerminated. Close is safe to call repeatedly.
func (r *Reactor[E, S, R]) Close() {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.events)
	r.logger.Debug("Input closed")
}

// Done returns a channel that is closed when the worker exits for any reason.
func (r *Reactor[E, S, R]) Done() <-chan struct{} {
	return r.done
}

func (r *Reactor[E, S, R]) reject(ev E, reason error) error {
	r.logger.Debug("Event rejected", "event", ev, "reason", reason)
	if r.observer != nil {
		r.observer.SendRejected(r.name, reason)
	}
	return &SendError[E]{Event: ev, Err: reason}
}

// run is the worker goroutine.
func (r *Reactor[E, S, R]) run(initial S) {
	defer close(r.done)
	defer r.cancel()

	r.logger.Debug("Worker started", "state", initial)
	res, err := r.loop(initial)
	r.finish(res, err)
}

// loop applies events until a terminal step, the input closing, the context
// ending, or a panic in user code.
func (r *Reactor[E, S, R]) loop(state S) (res Result[S, R], err error) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[S, R]{State: state}
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, p)
		}
	}()

	for {
		select {
		case <-r.ctx.Done():
			return Result[S, R]{State: state}, fmt.Errorf("%w: %w", ErrNotTerminated, context.Cause(r.ctx))
		case ev, ok := <-r.events:
			if !ok {
				return Result[S, R]{State: state}, fmt.Errorf("%w: input closed", ErrNotTerminated)
			}

			step := r.apply(state, ev)
			next, ok := step.Next()
			if !ok {
				resp, hasResp := step.Response()
				return Result[S, R]{State: state, Response: resp, HasResponse: hasResp}, nil
			}
			state = next
		}
	}
}

// apply runs one transition and, when it carries a response, the Respond hook.
func (r *Reactor[E, S, R]) apply(state S, ev E) Step[S, R] {
	start := time.Now()
	step := r.machine.Transition(state, ev)

	_, responded := step.Response()
	if responded {
		r.machine.Respond(state, step)
	}

	next, hasNext := step.Next()
	r.logger.Debug("Event applied",
		"event", ev,
		"from", state,
		"to", next,
		"terminal", !hasNext,
		"responded", responded)

	if r.observer != nil {
		info := TransitionInfo{
			Reactor:   r.name,
			From:      fmt.Sprint(state),
			Terminal:  !hasNext,
			Responded: responded,
			Duration:  time.Since(start),
		}
		if hasNext {
			info.To = fmt.Sprint(next)
		}
		r.observer.TransitionApplied(info)
	}
	return step
}

// finish records the outcome and moves the lifecycle machine. It runs on the
// worker before done is closed.
func (r *Reactor[E, S, R]) finish(res Result[S, R], err error) {
	r.result = res
	r.err = err

	if err != nil {
		r.logger.Warn("Worker exited without a terminal step", "state", res.State, "error", err)
		r.setStateError()
	} else {
		close(r.terminal)
		if e := r.fsm.Transition(finitestate.StatusTerminal); e != nil {
			r.logger.Error("Failed to transition to Terminal state", "error", e)
		}
		if dropped := r.discardQueued(); dropped > 0 {
			r.logger.Warn("Discarded events queued behind the terminal step", "count", dropped)
			if r.observer != nil {
				r.observer.Discarded(r.name, dropped)
			}
		}
		r.logger.Debug("Reached terminal state", "state", res.State)
	}

	if r.observer != nil {
		r.observer.Finished(r.name, err)
	}
}

// discardQueued drops events that were accepted behind the terminal step and
// returns how many there were. Senders still inside SendContext finish before
// the drain, so none of them can use the room it makes.
func (r *Reactor[E, S, R]) discardQueued() int {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	dropped := 0
	for {
		select {
		case _, ok := <-r.events:
			if !ok {
				return dropped
			}
			dropped++
		default:
			return dropped
		}
	}
}
