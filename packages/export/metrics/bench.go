package metrics

import (
	"strconv"

	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/abdul-hamid-achik/hitflow/packages/stress"
	"github.com/prometheus/client_golang/prometheus"
)

// benchVecs are registered on first use so flow-only recorders stay small.
type benchVecs struct {
	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
	rules     *prometheus.CounterVec
	latency   *prometheus.GaugeVec
	rps       *prometheus.GaugeVec
}

func newBenchVecs(constLabels prometheus.Labels) *benchVecs {
	return &benchVecs{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "bench",
			Name:        "requests_total",
			Help:        "Bench requests by target and outcome (passed, failed, error, timeout).",
			ConstLabels: constLabels,
		}, []string{"target", "outcome"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "bench",
			Name:        "responses_total",
			Help:        "Bench responses by HTTP status code.",
			ConstLabels: constLabels,
		}, []string{"target", "code"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "bench",
			Name:        "rules_total",
			Help:        "Bench rule verdicts by rule and verdict.",
			ConstLabels: constLabels,
		}, []string{"target", "rule", "verdict"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "bench",
			Name:        "latency_seconds",
			Help:        "Bench latency percentiles; quantile 1 is the maximum.",
			ConstLabels: constLabels,
		}, []string{"target", "quantile"}),
		rps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "bench",
			Name:        "requests_per_second",
			Help:        "Achieved request rate of the bench run.",
			ConstLabels: constLabels,
		}, []string{"target"}),
	}
}

// ObserveBench records the summary of a bench run against target.
func (r *Recorder) ObserveBench(target string, s *stress.Summary) {
	if s == nil {
		return
	}
	r.benchOnce.Do(func() {
		r.bench = newBenchVecs(r.constLabels)
		r.registry.MustRegister(r.bench.requests, r.bench.responses, r.bench.rules, r.bench.latency, r.bench.rps)
	})
	b := r.bench

	b.requests.WithLabelValues(target, string(stress.OutcomePassed)).Add(float64(s.PassedCount))
	b.requests.WithLabelValues(target, string(stress.OutcomeFailed)).Add(float64(s.FailedCount))
	b.requests.WithLabelValues(target, string(stress.OutcomeError)).Add(float64(s.ErrorCount))
	b.requests.WithLabelValues(target, string(stress.OutcomeTimeout)).Add(float64(s.TimeoutCount))

	for code, n := range s.StatusCodes {
		b.responses.WithLabelValues(target, strconv.Itoa(code)).Add(float64(n))
	}
	for _, rc := range s.Rules {
		b.rules.WithLabelValues(target, rc.Name, string(rules.Pass)).Add(float64(rc.Passed))
		b.rules.WithLabelValues(target, rc.Name, string(rules.Fail)).Add(float64(rc.Failed))
	}

	b.latency.WithLabelValues(target, "0.5").Set(s.P50.Seconds())
	b.latency.WithLabelValues(target, "0.95").Set(s.P95.Seconds())
	b.latency.WithLabelValues(target, "0.99").Set(s.P99.Seconds())
	b.latency.WithLabelValues(target, "1").Set(s.Max.Seconds())
	b.rps.WithLabelValues(target).Set(s.RPS)
}
