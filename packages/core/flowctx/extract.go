package flowctx

import (
	"fmt"
	"regexp"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ExtractionRule copies the value at Path into the variable Variable.
type ExtractionRule struct {
	Path     string `json:"path" yaml:"path"`
	Variable string `json:"variable" yaml:"variable"`
}

func (r ExtractionRule) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("extraction rule for %q: path is required", r.Variable)
	}
	if !ValidName(r.Variable) {
		return fmt.Errorf("extraction rule for path %q: invalid variable name %q", r.Path, r.Variable)
	}
	return nil
}

// ValidName reports whether name can be used in a {{name}} placeholder.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Extract resolves each rule against body. Paths that are not found are
// skipped. A found null is extracted as null.
func Extract(body jsonval.Value, rules []ExtractionRule) map[string]jsonval.Value {
	out := make(map[string]jsonval.Value)
	for _, r := range rules {
		if r.Path == "" || r.Variable == "" {
			continue
		}
		if v, ok := jsonval.Resolve(body, r.Path); ok {
			out[r.Variable] = v
		}
	}
	return out
}
