package flow

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/abdul-hamid-achik/hitflow/packages/logging"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/google/uuid"
)

// DefaultTimeout is the per-request timeout handed to the executor.
const DefaultTimeout = 30 * time.Second

// Executor sends one request. Implementations return *request.TimeoutError
// or *request.TransportError when no response was obtained.
type Executor interface {
	Execute(ctx context.Context, desc *request.Descriptor, timeout time.Duration) (*request.Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, desc *request.Descriptor, timeout time.Duration) (*request.Response, error)

func (f ExecutorFunc) Execute(ctx context.Context, desc *request.Descriptor, timeout time.Duration) (*request.Response, error) {
	return f(ctx, desc, timeout)
}

type Runner struct {
	executor Executor
	timeout  time.Duration
	logger   *slog.Logger
	onStep   func(*StepResult)
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for run and step events.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStepHook registers fn to be called after each step finishes,
// including skipped steps.
func WithStepHook(fn func(*StepResult)) RunnerOption {
	return func(r *Runner) {
		r.onStep = fn
	}
}

func NewRunner(executor Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		executor: executor,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the flow's steps in order with a fresh context. It always
// returns a result; errors are reported in it.
func (r *Runner) Run(ctx context.Context, f *Flow) *Result {
	result := &Result{
		ID:        uuid.New(),
		Name:      f.Name,
		State:     StatePending,
		StartedAt: time.Now(),
	}
	vars := flowctx.New()
	log := logging.WithRunID(r.logger, result.ID.String()).With("flow", f.Name)

	log.Info("flow started", "steps", len(f.Steps))
	result.State = StateRunning

	for i, step := range f.Steps {
		if err := ctx.Err(); err != nil {
			result.Error = fmt.Errorf("flow cancelled before %s: %w", step.DisplayName(i), err)
			r.skipRemaining(result, f.Steps, i, "flow cancelled")
			break
		}

		result.Current = i
		sr := r.runStep(ctx, log, i, step, vars)
		result.Steps = append(result.Steps, sr)
		r.notify(sr)

		if sr.Error != nil {
			result.Error = fmt.Errorf("%s: %w", sr.Name, sr.Error)
			r.skipRemaining(result, f.Steps, i+1, "previous step failed")
			break
		}
	}

	result.Variables = vars.Snapshot()
	result.Duration = time.Since(result.StartedAt)
	result.Success = result.Error == nil
	for _, sr := range result.Steps {
		if !sr.Skipped && !sr.Success {
			result.Success = false
		}
	}

	if result.Error != nil {
		result.State = StateFailed
		log.Error("flow failed", "error", result.Error, "duration", result.Duration)
	} else {
		result.State = StateCompleted
		log.Info("flow completed", "success", result.Success, "duration", result.Duration)
	}
	return result
}

func (r *Runner) runStep(ctx context.Context, log *slog.Logger, index int, step Step, vars *flowctx.Context) *StepResult {
	sr := &StepResult{
		Index:     index,
		Name:      step.DisplayName(index),
		Extracted: make(map[string]jsonval.Value),
	}
	log = log.With("step", sr.Name)

	desc, err := step.build(vars)
	if err != nil {
		sr.Error = err
		log.Warn("step template could not be resolved", "error", err)
		return sr
	}
	sr.Method = desc.Method
	sr.URL = desc.URL
	sr.RequestHeaders = maps.Clone(desc.Headers)
	sr.HasBody = desc.HasBody()

	log.Debug("sending request", "method", desc.Method, "url", desc.URL)
	resp, err := r.executor.Execute(ctx, desc, r.timeout)
	if err != nil {
		sr.Error = err
		log.Warn("request failed", "error", err)
		return sr
	}
	sr.Response = resp
	sr.StatusCode = resp.StatusCode
	sr.Elapsed = resp.Elapsed

	ruleResp := rules.FromResponse(resp)
	switch {
	case len(step.Rules) > 0:
		sr.Rules = rules.EvaluateAll(step.Rules, ruleResp)
	case step.Baseline:
		sr.Rules = rules.Baseline(ruleResp)
	}
	if len(sr.Rules) > 0 {
		sr.Success = rules.AllPassed(sr.Rules)
	} else {
		sr.Success = resp.IsSuccess()
	}

	if len(step.Extract) > 0 && resp.JSON != nil {
		sr.Extracted = flowctx.Extract(resp.JSON, step.Extract)
		vars.Merge(sr.Extracted)
	}

	log.Info("step finished",
		"status", resp.StatusCode,
		"elapsed_ms", resp.ElapsedMs(),
		"rules", len(sr.Rules),
		"success", sr.Success,
		"extracted", len(sr.Extracted),
	)
	return sr
}

func (r *Runner) skipRemaining(result *Result, steps []Step, from int, reason string) {
	for i := from; i < len(steps); i++ {
		sr := &StepResult{
			Index:      i,
			Name:       steps[i].DisplayName(i),
			Skipped:    true,
			SkipReason: reason,
		}
		result.Steps = append(result.Steps, sr)
		r.notify(sr)
	}
}

func (r *Runner) notify(sr *StepResult) {
	if r.onStep != nil {
		r.onStep(sr)
	}
}
