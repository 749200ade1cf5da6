package curl

import (
	"errors"
	"fmt"
)

// ErrMissingURL is returned when a command contains no URL-looking token.
var ErrMissingURL = errors.New("no URL found in curl command")

// TokenizeError reports unbalanced quoting or a dangling escape.
type TokenizeError struct {
	Pos    int
	Reason string
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("failed to tokenize curl command at offset %d: %s", e.Pos, e.Reason)
}

// ParseError reports a flag that could not be applied.
type ParseError struct {
	Flag   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid curl command: %s: %s", e.Flag, e.Reason)
}
