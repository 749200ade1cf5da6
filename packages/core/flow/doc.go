// Package flow runs an ordered list of request steps that share one set of
// variables.
//
// Each step's template is filled from the run's variables, sent through an
// Executor, judged by its rules, and may capture values from the response
// for later steps. Rule failures are recorded and the run continues.
// Transport errors, timeouts, unresolved variables and templates that no
// longer parse stop the run; the steps after it are reported as skipped.
//
// Basic usage:
//
//	runner := flow.NewRunner(client, flow.WithTimeout(10*time.Second))
//	result := runner.Run(ctx, f)
//	if !result.Success {
//		// inspect result.Error and result.Steps
//	}
package flow
