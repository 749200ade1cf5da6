package flow

import (
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/google/uuid"
)

// State is the lifecycle state of a run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Result is the outcome of one flow run.
type Result struct {
	ID        uuid.UUID
	Name      string
	State     State
	Current   int
	Steps     []*StepResult
	Variables flowctx.Snapshot
	// Error is the error that stopped the run, or nil.
	Error     error
	Success   bool
	StartedAt time.Time
	Duration  time.Duration
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index      int
	Name       string
	Method     string
	URL        string
	StatusCode int
	Elapsed    time.Duration
	Rules      []rules.Result
	Extracted  map[string]jsonval.Value
	Error      error
	Success    bool
	Skipped    bool
	SkipReason string

	// copied from the descriptor, which is dropped once the request is sent
	RequestHeaders map[string]string
	HasBody        bool

	Response *request.Response
}

// Counts returns the number of passed, failed and skipped steps.
func (r *Result) Counts() (passed, failed, skipped int) {
	for _, s := range r.Steps {
		switch {
		case s.Skipped:
			skipped++
		case s.Success && s.Error == nil:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

// RuleCounts returns the number of passed and failed rules over all steps.
func (r *Result) RuleCounts() (passed, failed int) {
	for _, s := range r.Steps {
		for _, rr := range s.Rules {
			if rr.Passed() {
				passed++
			} else {
				failed++
			}
		}
	}
	return passed, failed
}

// Errors returns every step error. A run reports at most one.
func (r *Result) Errors() []error {
	var errs []error
	for _, s := range r.Steps {
		if s.Error != nil {
			errs = append(errs, s.Error)
		}
	}
	return errs
}
