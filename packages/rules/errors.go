package rules

import "fmt"

// UnknownRuleTypeError is returned for a rule type missing from the registry.
type UnknownRuleTypeError struct {
	Type string
}

func (e *UnknownRuleTypeError) Error() string {
	if e.Type == "" {
		return "rule type is required"
	}
	return fmt.Sprintf("unknown rule type: %s", e.Type)
}

// ValidationError reports an invalid rule config.
type ValidationError struct {
	RuleID string
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	prefix := "invalid rule"
	if e.RuleID != "" {
		prefix = fmt.Sprintf("invalid rule %q", e.RuleID)
	}
	if e.Param != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}
