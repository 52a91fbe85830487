// Package metrics exposes Prometheus metrics for workflow runs
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/celestiaorg/gcpiac/internal/events"
)

// Namespace prefixes every metric
const Namespace = "gcpiac"

// Metrics wraps the Prometheus collectors for workflow runs
type Metrics struct {
	registry *prometheus.Registry

	WorkflowRuns      *prometheus.CounterVec
	WorkflowDuration  *prometheus.HistogramVec
	ActiveWorkflows   prometheus.Gauge
	ReadinessAttempts *prometheus.CounterVec
	WorkspacesRemoved prometheus.Counter

	mu      sync.Mutex
	started map[string]time.Time
}

// New creates Metrics with its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		started:  make(map[string]time.Time),
		WorkflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "workflow_runs_total",
			Help:      "Total number of finished workflow runs",
		}, []string{"action", "state"}),
		WorkflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Duration of workflow runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"action"}),
		ActiveWorkflows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_workflows",
			Help:      "Number of workflows currently running",
		}),
		ReadinessAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "readiness_attempts_total",
			Help:      "Total number of readiness probe attempts",
		}, []string{"result"}),
		WorkspacesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "workspaces_removed_total",
			Help:      "Total number of workspaces removed after a destroy",
		}),
	}

	reg.MustRegister(
		m.WorkflowRuns,
		m.WorkflowDuration,
		m.ActiveWorkflows,
		m.ReadinessAttempts,
		m.WorkspacesRemoved,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReadinessAttempt counts one probe attempt
func (m *Metrics) ObserveReadinessAttempt(ok bool) {
	result := "closed"
	if ok {
		result = "open"
	}
	m.ReadinessAttempts.WithLabelValues(result).Inc()
}

// Subscribe wires the metrics to the workflow events published on bus
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventRunStarted, m.handleStarted)
	bus.Subscribe(events.EventRunFinished, m.handleFinished)
	bus.Subscribe(events.EventWorkspaceRemoved, m.handleRemoved)
}

func (m *Metrics) handleStarted(_ context.Context, e events.Event) error {
	m.mu.Lock()
	m.started[e.RunID] = e.Time
	m.mu.Unlock()
	m.ActiveWorkflows.Inc()
	return nil
}

func (m *Metrics) handleFinished(_ context.Context, e events.Event) error {
	m.mu.Lock()
	start, ok := m.started[e.RunID]
	delete(m.started, e.RunID)
	m.mu.Unlock()

	m.WorkflowRuns.WithLabelValues(e.Action, e.State).Inc()
	if ok {
		m.ActiveWorkflows.Dec()
		m.WorkflowDuration.WithLabelValues(e.Action).Observe(e.Time.Sub(start).Seconds())
	}
	return nil
}

func (m *Metrics) handleRemoved(_ context.Context, e events.Event) error {
	m.WorkspacesRemoved.Add(float64(len(e.Removed)))
	return nil
}
