package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner executes bench runs
type Runner struct {
	config   *Config
	executor flow.Executor
	rules    []rules.Config
	reporter *Reporter
	logger   *slog.Logger
	metrics  *Metrics
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithRules sets the rules each response is judged by. Without rules a
// response passes when its status is 2xx.
func WithRules(cfgs []rules.Config) RunnerOption {
	return func(r *Runner) {
		r.rules = cfgs
	}
}

// WithReporter sets the reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new bench runner
func NewRunner(config *Config, executor flow.Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:   config,
		executor: executor,
		metrics:  NewMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.reporter == nil {
		r.reporter = NewReporter()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Result holds the final result of a bench run
type Result struct {
	Summary    *Summary          `json:"summary"`
	Thresholds []ThresholdResult `json:"thresholds,omitempty"`
	Passed     bool              `json:"passed"`
}

// HasThresholdFailures returns true if any thresholds failed
func (r *Result) HasThresholdFailures() bool {
	for _, tr := range r.Thresholds {
		if !tr.Passed {
			return true
		}
	}
	return false
}

// Run sends desc repeatedly until the configured duration elapses or the
// request budget is spent. Requests are paced by the rate limiter and capped
// at Concurrency in flight.
func (r *Runner) Run(ctx context.Context, desc *request.Descriptor) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for i, cfg := range r.rules {
		if err := rules.ValidateConfig(cfg, nil); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}

	r.reporter.Header(desc, r.config)

	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if r.config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	}

	g := new(errgroup.Group)
	g.SetLimit(r.config.Concurrency)

	r.metrics.Start()
	sent := 0
	for r.config.Requests <= 0 || sent < r.config.Requests {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		sent++
		g.Go(func() error {
			r.execute(ctx, desc)
			return nil
		})
	}
	_ = g.Wait()
	r.metrics.Stop()

	r.logger.Debug("bench finished", "sent", sent, "url", desc.URL)

	summary := r.metrics.GetSummary()
	result := &Result{Summary: summary, Passed: true}
	if r.config.Thresholds.HasThresholds() {
		result.Thresholds = summary.EvaluateThresholds(r.config.Thresholds)
		result.Passed = !result.HasThresholdFailures()
	}

	r.reporter.Summary(summary, result.Thresholds)
	return result, nil
}

func (r *Runner) execute(ctx context.Context, desc *request.Descriptor) {
	resp, err := r.executor.Execute(ctx, desc, r.config.Timeout)
	if err != nil {
		var timeout *request.TimeoutError
		switch {
		case ctx.Err() != nil:
			// the run ended while this request was in flight
			return
		case errors.As(err, &timeout):
			r.metrics.Record(OutcomeTimeout, 0, 0, nil)
		default:
			r.metrics.Record(OutcomeError, 0, 0, nil)
		}
		r.logger.Debug("bench request failed", "error", err)
		return
	}

	outcome := OutcomePassed
	var results []rules.Result
	if len(r.rules) > 0 {
		results = rules.EvaluateAll(r.rules, rules.FromResponse(resp))
		if !rules.AllPassed(results) {
			outcome = OutcomeFailed
		}
	} else if !resp.IsSuccess() {
		outcome = OutcomeFailed
	}

	r.metrics.Record(outcome, resp.StatusCode, resp.Elapsed, results)
}
