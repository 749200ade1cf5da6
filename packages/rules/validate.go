package rules

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

// ValidateConfig checks a rule config before it is stored or run. When
// availableFields is non-empty the rule's field must be one of them.
func ValidateConfig(cfg Config, availableFields []string) error {
	info, ok := Lookup(cfg.Type)
	if !ok {
		return &UnknownRuleTypeError{Type: cfg.Type}
	}

	if info.RequiresField {
		if cfg.Field == "" {
			return &ValidationError{RuleID: cfg.ID, Param: "field", Reason: "is required for " + info.Name}
		}
		if len(availableFields) > 0 && !contains(availableFields, cfg.Field) {
			return &ValidationError{
				RuleID: cfg.ID,
				Param:  "field",
				Reason: fmt.Sprintf("'%s' not found in response", cfg.Field),
			}
		}
	}

	for _, p := range info.Params {
		value, supplied := cfg.Config[p.Name]
		if !supplied || value == nil {
			if p.Default == nil {
				return &ValidationError{RuleID: cfg.ID, Param: p.Name, Reason: "is required"}
			}
			continue
		}

		switch p.Type {
		case ParamNumber:
			if _, ok := toFloat(value); !ok {
				return &ValidationError{RuleID: cfg.ID, Param: p.Name, Reason: "must be a number"}
			}
		case ParamBoolean:
			if _, ok := value.(bool); !ok {
				return &ValidationError{RuleID: cfg.ID, Param: p.Name, Reason: "must be a boolean"}
			}
		case ParamSelect:
			s, ok := value.(string)
			if !ok || !contains(p.Options, s) {
				return &ValidationError{
					RuleID: cfg.ID,
					Param:  p.Name,
					Reason: "must be one of: " + strings.Join(p.Options, ", "),
				}
			}
		}
	}

	// parameters that only fail at compile time, such as a malformed schema
	if _, err := Compile(cfg); err != nil {
		return err
	}
	return nil
}

// ListFields returns the dot paths reachable in a JSON body, expanding
// only the first element of each array.
func ListFields(body jsonval.Value, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = jsonval.DefaultFieldDepth
	}
	return jsonval.Fields(body, maxDepth)
}
