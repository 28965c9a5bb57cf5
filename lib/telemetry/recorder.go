// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bureau-foundation/procsingleton/lib/singleton"
)

const namespace = "procsingleton"

// Recorder holds the singleton metrics.
type Recorder struct {
	Interactions     *prometheus.CounterVec
	Terminations     *prometheus.CounterVec
	TerminateErrors  *prometheus.CounterVec
	NotifySeconds    *prometheus.HistogramVec
	ReadersCompleted *prometheus.CounterVec
}

var _ singleton.Recorder = (*Recorder)(nil)

// New creates the metrics and registers them on registerer. It panics
// if a metric with the same name is already registered there.
func New(registerer prometheus.Registerer) *Recorder {
	factory := promauto.With(registerer)
	return &Recorder{
		Interactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_process_interactions_total",
				Help:      "Decisions taken about another process or its lock.",
			},
			[]string{"result"},
		),
		Terminations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hung_process_terminations_total",
				Help:      "Unresponsive profile owners killed, by reason.",
			},
			[]string{"reason"},
		),
		TerminateErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "terminate_errno_total",
				Help:      "kill(2) outcomes by errno, 0 for success.",
			},
			[]string{"errno"},
		),
		NotifySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "notify_duration_seconds",
				Help:      "Time spent notifying the owner or creating the singleton.",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 20, 40},
			},
			[]string{"outcome"},
		),
		ReadersCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_completed_total",
				Help:      "Accepted singleton connections by final state.",
			},
			[]string{"state"},
		),
	}
}

func (r *Recorder) RemoteProcessInteraction(result singleton.InteractionResult) {
	r.Interactions.WithLabelValues(result.String()).Inc()
}

func (r *Recorder) HungProcessTerminated(reason singleton.TerminateReason) {
	r.Terminations.WithLabelValues(reason.String()).Inc()
}

func (r *Recorder) TerminateErrorCode(code int) {
	r.TerminateErrors.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (r *Recorder) NotifyDuration(timing singleton.Timing, elapsed time.Duration) {
	r.NotifySeconds.WithLabelValues(string(timing)).Observe(elapsed.Seconds())
}

func (r *Recorder) ReaderFinished(state singleton.ReaderState) {
	r.ReadersCompleted.WithLabelValues(state.String()).Inc()
}
