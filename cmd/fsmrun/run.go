package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/robbyt/go-reactor/reactor"
	"github.com/robbyt/go-reactor/supervisor"
	"github.com/robbyt/go-reactor/table"
)

var runCmd = &cobra.Command{
	Use:   "run FILE [EVENT...]",
	Short: "Drive a transition table with events",
	Long: `Runs the table machine under a supervisor and sends it the given events,
or one event per stdin line when none are given. Every response is printed,
followed by the final state. Fails when input ends before the machine halts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler, err := newLogHandler(cmd)
		if err != nil {
			return err
		}
		queue, err := cmd.Flags().GetInt("queue")
		if err != nil {
			return err
		}

		var events eventSource = argEvents(args[1:])
		if len(args) == 1 {
			events = lineEvents{r: cmd.InOrStdin()}
		}
		return runTable(cmd.Context(), runConfig{
			path:    args[0],
			events:  events,
			out:     cmd.OutOrStdout(),
			handler: handler,
			queue:   queue,
		})
	},
}

func init() {
	runCmd.Flags().Int("queue", reactor.DefaultQueueSize, "Event queue size")
	rootCmd.AddCommand(runCmd)
}

type runConfig struct {
	path    string
	events  eventSource
	out     io.Writer
	handler slog.Handler
	queue   int
}

// eventSource yields events until it returns false.
type eventSource interface {
	each(fn func(ev string) bool) error
}

type argEvents []string

func (a argEvents) each(fn func(string) bool) error {
	for _, ev := range a {
		if !fn(ev) {
			return nil
		}
	}
	return nil
}

type lineEvents struct {
	r io.Reader
}

func (l lineEvents) each(fn func(string) bool) error {
	scanner := bufio.NewScanner(l.r)
	for scanner.Scan() {
		ev := strings.TrimSpace(scanner.Text())
		if ev == "" || strings.HasPrefix(ev, "#") {
			continue
		}
		if !fn(ev) {
			return nil
		}
	}
	return scanner.Err()
}

func runTable(ctx context.Context, cfg runConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.New(cfg.handler)

	def, err := table.Load(cfg.path)
	if err != nil {
		return err
	}
	machine, err := table.New(def,
		table.WithLogHandler(cfg.handler),
		table.WithResponder(func(old string, step table.Step) {
			resp, _ := step.Response()
			next, ok := step.Next()
			if !ok {
				next = "halt"
			}
			fmt.Fprintf(cfg.out, "%s -> %s: %s\n", old, next, resp)
		}),
	)
	if err != nil {
		return err
	}

	r, err := reactor.New[string, string, string](machine,
		reactor.WithName(def.Name),
		reactor.WithQueueSize(cfg.queue),
		reactor.WithLogHandler(cfg.handler),
	)
	if err != nil {
		return err
	}

	sv, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithRunnables(r),
		supervisor.WithLogHandler(cfg.handler),
	)
	if err != nil {
		return err
	}

	// The feeder records its error before closing the input, so it is visible
	// once the reactor exits. The feeder itself may still be blocked on stdin.
	var (
		feedMu  sync.Mutex
		feedErr error
	)
	go func() {
		err := feed(r, machine, cfg.events, logger)
		feedMu.Lock()
		feedErr = err
		feedMu.Unlock()
		r.Close()
	}()

	if err := sv.Run(); err != nil {
		return err
	}
	feedMu.Lock()
	err = feedErr
	feedMu.Unlock()
	if err != nil {
		return err
	}

	res, err := r.Join()
	if err != nil {
		return fmt.Errorf("machine %s did not halt: %w", def.Name, err)
	}
	fmt.Fprintf(cfg.out, "final state: %s\n", res.State)
	return nil
}

// feed sends every event to r until the source is exhausted or r stops
// accepting events. The caller closes the input afterwards, so a machine that
// never halts ends the run instead of waiting forever.
func feed(r reactor.Sender[string], m *table.Machine, events eventSource, logger *slog.Logger) error {
	var bad error
	err := events.each(func(ev string) bool {
		if !m.HasEvent(ev) {
			bad = fmt.Errorf("unknown event %q", ev)
			return false
		}
		if err := r.Send(ev); err != nil {
			if !errors.Is(err, reactor.ErrTerminated) {
				logger.Warn("Event not delivered", "event", ev, "error", err)
			}
			return false
		}
		return true
	})
	if bad != nil {
		return bad
	}
	return err
}
