/*
Copyright 2024 Robert Terhaar <robbyt@robbyt.net>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ErrNoRunnables is returned by New when there is nothing to supervise.
var ErrNoRunnables = errors.New("no runnables provided")

// Supervisor runs a set of Runnables and winds them down together. Run
// returns when every runnable has finished, one fails, one requests
// shutdown, the context ends, or SIGINT/SIGTERM arrives.
type Supervisor struct {
	ctx                context.Context
	cancel             context.CancelFunc
	runnables          []Runnable
	SignalChan         chan os.Signal
	errorChan          chan error
	finishedChan       chan Runnable
	shutdownRequests   chan Runnable
	wg                 sync.WaitGroup
	signalListenerOnce sync.Once
	shutdownOnce       sync.Once
	subscribeSignals   []os.Signal
	stateMap           sync.Map
	logger             *slog.Logger
}

// Option represents a functional option for configuring a Supervisor.
type Option func(*Supervisor)

// WithLogHandler sets a custom slog handler for the Supervisor instance.
// For example, to use a custom JSON handler with debug level:
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	sv, err := supervisor.New(supervisor.WithRunnables(r), supervisor.WithLogHandler(handler))
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Supervisor) {
		if handler != nil {
			s.logger = slog.New(handler.WithGroup("Supervisor"))
		}
	}
}

// WithSignals replaces the OS signals the supervisor listens for. Only
// SIGINT and SIGTERM trigger a shutdown; anything else is logged.
func WithSignals(signals ...os.Signal) Option {
	return func(s *Supervisor) {
		s.subscribeSignals = signals
	}
}

// WithContext sets a parent context. Canceling it shuts the supervisor down.
func WithContext(ctx context.Context) Option {
	return func(s *Supervisor) {
		if ctx != nil {
			s.ctx, s.cancel = context.WithCancel(ctx)
		}
	}
}

// WithRunnables sets the runnables to be managed, started in the given order
// and stopped in reverse.
func WithRunnables(runnables ...Runnable) Option {
	return func(s *Supervisor) {
		if len(runnables) > 0 {
			s.runnables = runnables
		}
	}
}

// New creates a new Supervisor instance with the provided options.
func New(opts ...Option) (*Supervisor, error) {
	logger := slog.Default().WithGroup("Supervisor")
	ctx, cancel := context.WithCancel(context.Background())

	s := &Supervisor{
		ctx:              ctx,
		cancel:           cancel,
		SignalChan:       make(chan os.Signal, 1), // OS signals must be buffered
		subscribeSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		logger:           logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	if len(s.runnables) == 0 {
		s.cancel()
		return nil, ErrNoRunnables
	}

	// every runnable reports at most once on each channel
	s.errorChan = make(chan error, len(s.runnables))
	s.finishedChan = make(chan Runnable, len(s.runnables))
	s.shutdownRequests = make(chan Runnable, len(s.runnables))

	return s, nil
}

// String returns a string representation of the Supervisor instance.
func (s *Supervisor) String() string {
	return fmt.Sprintf("Supervisor<runnables: %d>", len(s.runnables))
}

// Run starts all runnables and blocks until the supervisor shuts down. It
// returns the first runnable error, or nil for any other reason to stop.
func (s *Supervisor) Run() error {
	s.logger.Debug("Starting...")
	defer s.logger.Debug("Goodbye!")

	s.listenForSignals()

	s.wg.Add(1)
	go s.startShutdownManager()

	s.wg.Add(1)
	go s.startStateMonitor()

	for _, r := range s.runnables {
		s.wg.Add(1)
		go s.startRunnable(r)
	}

	return s.reap()
}

// Shutdown stops every runnable in reverse order and waits for all
// supervisor goroutines. Only the first call has any effect.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Info("Graceful shutdown has been initiated...")
		signal.Stop(s.SignalChan)

		for i := len(s.runnables) - 1; i >= 0; i-- {
			r := s.runnables[i]
			s.logger.Debug("Stopping", "runnable", r)
			r.Stop()

			if stateable, ok := r.(Stateable); ok {
				finalState := stateable.GetState()
				s.stateMap.Store(r, finalState)
				s.logger.Debug("Post-shutdown state", "runnable", r, "state", finalState)
			}
		}

		s.logger.Debug("Waiting for runnables to complete...")
		s.cancel()
		s.wg.Wait()
		s.logger.Debug("Shutdown complete.")
	})
}

// listenForSignals starts listening for OS signals, sending them to SignalChan.
func (s *Supervisor) listenForSignals() {
	s.signalListenerOnce.Do(func() {
		s.logger.Debug("Listening for signals", "signals", s.subscribeSignals)
		signal.Notify(s.SignalChan, s.subscribeSignals...)
	})
}

// startRunnable runs r and reports how it ended.
func (s *Supervisor) startRunnable(r Runnable) {
	defer s.wg.Done()

	if stateable, ok := r.(Stateable); ok {
		initialState := stateable.GetState()
		s.stateMap.Store(r, initialState)
		s.logger.Debug("Initial state", "runnable", r, "state", initialState)
	}

	if err := r.Run(s.ctx); err != nil {
		s.logger.Error("Runnable failed", "runnable", r, "error", err)
		s.errorChan <- fmt.Errorf("%s: %w", r, err)
		return
	}
	s.logger.Debug("Runnable finished", "runnable", r)
	s.finishedChan <- r
}

// reap waits for a reason to stop, then shuts everything down.
func (s *Supervisor) reap() error {
	s.logger.Debug("Starting reap...")

	finished := 0
	for {
		select {
		case err := <-s.errorChan:
			s.Shutdown()
			return err
		case <-s.finishedChan:
			finished++
			if finished == len(s.runnables) {
				s.logger.Debug("All runnables finished")
				s.Shutdown()
				return nil
			}
		case r := <-s.shutdownRequests:
			s.logger.Info("Shutdown requested by runnable", "runnable", r)
			s.Shutdown()
			return nil
		case <-s.ctx.Done():
			s.logger.Debug("Supervisor context canceled")
			s.Shutdown()
			return nil
		case sig := <-s.SignalChan:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				s.logger.Debug("Received signal", "signal", sig)
				s.Shutdown()
				return nil
			default:
				s.logger.Debug("Unhandled signal received", "signal", sig)
			}
		}
	}
}
