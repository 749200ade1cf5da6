package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
)

// Exit codes for hitflow CLI
const (
	// ExitSuccess indicates all checks passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more rules or steps failed
	ExitTestFailure = 1

	// ExitParseError indicates a curl command or flow file could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration or rule definition error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError pins an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps err to a process exit code. An explicit exitError wins,
// otherwise the typed errors of the packages decide.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var (
		timeoutErr    *request.TimeoutError
		transportErr  *request.TransportError
		tokenizeErr   *curl.TokenizeError
		parseErr      *curl.ParseError
		unresolvedErr *flowctx.UnresolvedVariableError
		unknownErr    *rules.UnknownRuleTypeError
		validationErr *rules.ValidationError
	)
	switch {
	case errors.As(err, &timeoutErr), errors.As(err, &transportErr):
		return ExitNetworkError
	case errors.As(err, &tokenizeErr), errors.As(err, &parseErr), errors.Is(err, curl.ErrMissingURL):
		return ExitParseError
	case errors.As(err, &unresolvedErr), errors.As(err, &unknownErr), errors.As(err, &validationErr):
		return ExitConfigError
	default:
		return ExitTestFailure
	}
}
