package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-reactor/reactor"
)

type step = reactor.Step[string, string]

// echo moves to every event it receives and stops on "stop".
type echo struct{}

func (echo) Transition(old, ev string) step {
	if ev == "stop" {
		return step{}.Emit("stopped")
	}
	return step{}.Goto(ev).Emit(ev)
}

func (echo) Respond(string, step) {}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("registers collectors", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		_, err := New(reg, "test")
		require.NoError(t, err)
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := New(reg, "test")
		require.NoError(t, err)
		_, err = New(reg, "test")
		require.Error(t, err)
	})
}

func TestCollector_WithReactor(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := New(reg, "test")
	require.NoError(t, err)

	r, err := reactor.New[string, string, string](echo{},
		reactor.WithName("echo"),
		reactor.WithObserver(c),
		reactor.WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	for _, ev := range []string{"a", "b", "a", "stop"} {
		require.NoError(t, r.Send(ev))
	}
	_, err = r.Join()
	require.NoError(t, err)
	require.Error(t, r.Send("late"))

	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("echo", "", "a")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("echo", "a", "b")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("echo", "b", "a")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("echo", "a", HaltLabel)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(c.responses.WithLabelValues("echo")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.rejected.WithLabelValues("echo", "terminated")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.terminations.WithLabelValues("echo", "terminal")), 0)
	assert.Equal(t, 0, testutil.CollectAndCount(c.discarded))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))

	expected := `
# HELP test_reactor_terminations_total Worker exits, by outcome.
# TYPE test_reactor_terminations_total counter
test_reactor_terminations_total{outcome="terminal",reactor="echo"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_reactor_terminations_total"))
}

func TestLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "terminated", rejectReason(reactor.ErrTerminated))
	assert.Equal(t, "closed", rejectReason(reactor.ErrClosed))
	assert.Equal(t, "stopped", rejectReason(reactor.ErrStopped))
	assert.Equal(t, "canceled", rejectReason(context.DeadlineExceeded))
	assert.Equal(t, "other", rejectReason(errors.New("x")))

	assert.Equal(t, "terminal", outcome(nil))
	assert.Equal(t, "panic", outcome(reactor.ErrWorkerPanic))
	assert.Equal(t, "unterminated", outcome(reactor.ErrNotTerminated))
}

// held is echo that waits for release before every transition.
type held struct {
	echo
	release chan struct{}
}

func (h held) Transition(old, ev string) step {
	<-h.release
	return h.echo.Transition(old, ev)
}

func TestCollector_Discarded(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := New(reg, "test")
	require.NoError(t, err)

	machine := held{release: make(chan struct{})}
	r, err := reactor.New[string, string, string](machine,
		reactor.WithName("held"),
		reactor.WithObserver(c),
		reactor.WithQueueSize(8),
		reactor.WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	for _, ev := range []string{"stop", "x", "y"} {
		require.NoError(t, r.Send(ev))
	}
	close(machine.release)

	_, err = r.Join()
	require.NoError(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(c.discarded.WithLabelValues("held")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("held", "", HaltLabel)), 0)
}
