package curl

import (
	"regexp"
	"strings"
	"unicode"
)

var continuationPattern = regexp.MustCompile(`\\[ \t]*\r?\n\s*`)

// joinContinuations folds backslash-newline sequences into a single space.
func joinContinuations(cmd string) string {
	return continuationPattern.ReplaceAllString(cmd, " ")
}

// tokenize splits a command into words following POSIX shell quoting rules.
func tokenize(cmd string) ([]string, error) {
	var (
		tokens      []string
		current     strings.Builder
		inToken     bool
		inSingle    bool
		inDouble    bool
		escaped     bool
		quoteOpened int
	)

	emit := func() {
		tokens = append(tokens, current.String())
		current.Reset()
		inToken = false
	}

	for i, r := range cmd {
		if escaped {
			// inside double quotes a backslash only escapes a few characters
			if inDouble && !strings.ContainsRune("\"\\$`", r) {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case inSingle:
			if r == '\'' {
				inSingle = false
			} else {
				current.WriteRune(r)
			}
		case inDouble:
			switch r {
			case '"':
				inDouble = false
			case '\\':
				escaped = true
			default:
				current.WriteRune(r)
			}
		default:
			switch {
			case r == '\\':
				escaped = true
				inToken = true
			case r == '\'':
				inSingle = true
				inToken = true
				quoteOpened = i
			case r == '"':
				inDouble = true
				inToken = true
				quoteOpened = i
			case unicode.IsSpace(r):
				if inToken {
					emit()
				}
			default:
				current.WriteRune(r)
				inToken = true
			}
		}
	}

	switch {
	case escaped:
		return nil, &TokenizeError{Pos: len(cmd), Reason: "no character after escape"}
	case inSingle:
		return nil, &TokenizeError{Pos: quoteOpened, Reason: "unterminated single quote"}
	case inDouble:
		return nil, &TokenizeError{Pos: quoteOpened, Reason: "unterminated double quote"}
	}

	if inToken {
		emit()
	}
	return tokens, nil
}
