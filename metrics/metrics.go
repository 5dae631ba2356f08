// Package metrics exports reactor activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/robbyt/go-reactor/reactor"
)

// HaltLabel is the "to" label value of terminal steps.
const HaltLabel = "halt"

// Collector implements reactor.Observer on top of Prometheus collectors.
// One Collector can be shared by many reactors; they are told apart by the
// reactor label.
type Collector struct {
	transitions  *prometheus.CounterVec
	responses    *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	discarded    *prometheus.CounterVec
	terminations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

var _ reactor.Observer = (*Collector)(nil)

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactor_transitions_total",
			Help:      "Events applied, by source and target state.",
		}, []string{"reactor", "from", "to"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactor_responses_total",
			Help:      "Responses delivered to Respond.",
		}, []string{"reactor"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactor_rejected_sends_total",
			Help:      "Events refused by Send.",
		}, []string{"reactor", "reason"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactor_discarded_events_total",
			Help:      "Events queued behind the terminal step and never applied.",
		}, []string{"reactor"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactor_terminations_total",
			Help:      "Worker exits, by outcome.",
		}, []string{"reactor", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reactor_transition_duration_seconds",
			Help:      "Time spent in Transition and Respond per event.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"reactor"}),
	}

	for _, col := range []prometheus.Collector{c.transitions, c.responses, c.rejected, c.discarded, c.terminations, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register reactor metrics: %w", err)
		}
	}
	return c, nil
}

// TransitionApplied implements reactor.Observer.
func (c *Collector) TransitionApplied(info reactor.TransitionInfo) {
	to := info.To
	if info.Terminal {
		to = HaltLabel
	}
	c.transitions.WithLabelValues(info.Reactor, info.From, to).Inc()
	if info.Responded {
		c.responses.WithLabelValues(info.Reactor).Inc()
	}
	c.duration.WithLabelValues(info.Reactor).Observe(info.Duration.Seconds())
}

// SendRejected implements reactor.Observer.
func (c *Collector) SendRejected(name string, reason error) {
	c.rejected.WithLabelValues(name, rejectReason(reason)).Inc()
}

// Discarded implements reactor.Observer.
func (c *Collector) Discarded(name string, count int) {
	c.discarded.WithLabelValues(name).Add(float64(count))
}

// Finished implements reactor.Observer.
func (c *Collector) Finished(name string, err error) {
	c.terminations.WithLabelValues(name, outcome(err)).Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, reactor.ErrTerminated):
		return "terminated"
	case errors.Is(err, reactor.ErrClosed):
		return "closed"
	case errors.Is(err, reactor.ErrStopped):
		return "stopped"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "terminal"
	case errors.Is(err, reactor.ErrWorkerPanic):
		return "panic"
	default:
		return "unterminated"
	}
}
