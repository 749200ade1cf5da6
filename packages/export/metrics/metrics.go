// Package metrics records flow runs as Prometheus metrics.
//
// A Recorder owns its own registry, so several recorders can live in one
// process. Metrics are exposed over HTTP with Handler or written to a node
// exporter textfile with WriteTextfile.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hitflow"

// DefaultBuckets are the latency buckets in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Recorder collects metrics from flow results and bench summaries.
type Recorder struct {
	registry    *prometheus.Registry
	constLabels prometheus.Labels

	flows        *prometheus.CounterVec
	flowDuration *prometheus.HistogramVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	statusCodes  *prometheus.CounterVec
	rules        *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec

	benchOnce sync.Once
	bench     *benchVecs
}

// RecorderOption is a functional option for Recorder
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	buckets     []float64
	constLabels prometheus.Labels
}

// WithBuckets sets the latency histogram buckets in seconds.
func WithBuckets(buckets []float64) RecorderOption {
	return func(c *recorderConfig) {
		c.buckets = buckets
	}
}

// WithConstLabels adds labels to every metric, e.g. the environment name.
func WithConstLabels(labels map[string]string) RecorderOption {
	return func(c *recorderConfig) {
		c.constLabels = labels
	}
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder(opts ...RecorderOption) *Recorder {
	cfg := &recorderConfig{buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Recorder{
		registry:    prometheus.NewRegistry(),
		constLabels: cfg.constLabels,
		flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "flows_total",
			Help:        "Flow runs by flow name and final state.",
			ConstLabels: cfg.constLabels,
		}, []string{"flow", "state"}),
		flowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "flow_duration_seconds",
			Help:        "Wall time of flow runs.",
			Buckets:     cfg.buckets,
			ConstLabels: cfg.constLabels,
		}, []string{"flow"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "steps_total",
			Help:        "Steps by flow, step and outcome (passed, failed, error, skipped).",
			ConstLabels: cfg.constLabels,
		}, []string{"flow", "step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "step_duration_seconds",
			Help:        "Response time of executed steps.",
			Buckets:     cfg.buckets,
			ConstLabels: cfg.constLabels,
		}, []string{"flow", "step"}),
		statusCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "responses_total",
			Help:        "Responses by HTTP status code.",
			ConstLabels: cfg.constLabels,
		}, []string{"flow", "code"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rules_total",
			Help:        "Rule verdicts by rule name and verdict.",
			ConstLabels: cfg.constLabels,
		}, []string{"flow", "rule", "verdict"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "flow_last_success",
			Help:        "1 if the last run of the flow succeeded, 0 otherwise.",
			ConstLabels: cfg.constLabels,
		}, []string{"flow"}),
	}

	r.registry.MustRegister(
		r.flows,
		r.flowDuration,
		r.steps,
		r.stepDuration,
		r.statusCodes,
		r.rules,
		r.lastSuccess,
	)
	return r
}

// ObserveFlow records one finished run.
func (r *Recorder) ObserveFlow(result *flow.Result) {
	name := result.Name
	if name == "" {
		name = "flow"
	}

	r.flows.WithLabelValues(name, string(result.State)).Inc()
	r.flowDuration.WithLabelValues(name).Observe(result.Duration.Seconds())
	if result.Success {
		r.lastSuccess.WithLabelValues(name).Set(1)
	} else {
		r.lastSuccess.WithLabelValues(name).Set(0)
	}

	for _, s := range result.Steps {
		r.steps.WithLabelValues(name, s.Name, outcome(s)).Inc()
		if s.Skipped || s.StatusCode == 0 {
			continue
		}
		r.stepDuration.WithLabelValues(name, s.Name).Observe(s.Elapsed.Seconds())
		r.statusCodes.WithLabelValues(name, strconv.Itoa(s.StatusCode)).Inc()
		for _, rr := range s.Rules {
			r.rules.WithLabelValues(name, rr.RuleName, string(rr.Verdict)).Inc()
		}
	}
}

func outcome(s *flow.StepResult) string {
	switch {
	case s.Skipped:
		return "skipped"
	case s.Error != nil:
		return "error"
	case s.Success:
		return "passed"
	default:
		return "failed"
	}
}

// Gatherer exposes the recorder's registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the recorded metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics to path for the node exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
