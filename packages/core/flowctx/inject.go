package flowctx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

var placeholderPattern = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// UnresolvedVariableError is returned by Inject when a placeholder names a
// variable the context does not hold.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("variable '%s' not found in execution context", e.Name)
}

// Inject replaces every {{name}} in text with the stored value's canonical
// string form. It fails on the first unresolved name and returns no output.
func (c *Context) Inject(text string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		name := text[m[2]:m[3]]
		value, ok := c.vars[name]
		if !ok {
			return "", &UnresolvedVariableError{Name: name}
		}
		sb.WriteString(text[last:m[0]])
		sb.WriteString(jsonval.Stringify(value))
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

// InjectMap applies Inject to every value of m and returns a new map.
func (c *Context) InjectMap(m map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		resolved, err := c.Inject(v)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

// FindVariables returns the placeholder names in text, each once, in order
// of first appearance.
func FindVariables(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Missing returns the placeholder names in text that the context lacks.
func (c *Context) Missing(text string) []string {
	var missing []string
	for _, name := range FindVariables(text) {
		if !c.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
