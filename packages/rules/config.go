package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

// Config is a user-authored rule. Enabled is a pointer so that an absent
// value means enabled.
type Config struct {
	ID      string         `json:"id,omitempty" yaml:"id,omitempty"`
	Type    string         `json:"type" yaml:"type"`
	Field   string         `json:"field,omitempty" yaml:"field,omitempty"`
	Config  map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Enabled *bool          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// param returns the configured value for name, falling back to the
// registry default.
func (c Config) param(info TypeInfo, name string) (any, bool) {
	if v, ok := c.Config[name]; ok && v != nil {
		return v, true
	}
	if p, ok := info.Param(name); ok && p.Default != nil {
		return p.Default, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return jsonval.Stringify(jsonval.FromAny(v))
}

func numberParam(c Config, info TypeInfo, name string) (float64, error) {
	v, ok := c.param(info, name)
	if !ok {
		return 0, &ValidationError{RuleID: c.ID, Param: name, Reason: "is required"}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, &ValidationError{RuleID: c.ID, Param: name, Reason: "must be a number"}
	}
	return f, nil
}

func intParam(c Config, info TypeInfo, name string) (int, error) {
	f, err := numberParam(c, info, name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, &ValidationError{RuleID: c.ID, Param: name, Reason: "must be an integer"}
	}
	return int(f), nil
}

func boolParam(c Config, info TypeInfo, name string) (bool, error) {
	v, ok := c.param(info, name)
	if !ok {
		return false, &ValidationError{RuleID: c.ID, Param: name, Reason: "is required"}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ValidationError{RuleID: c.ID, Param: name, Reason: "must be a boolean"}
	}
	return b, nil
}

func selectParam(c Config, info TypeInfo, name string) (string, error) {
	v, ok := c.param(info, name)
	if !ok {
		return "", &ValidationError{RuleID: c.ID, Param: name, Reason: "is required"}
	}
	s, ok := v.(string)
	p, _ := info.Param(name)
	if !ok || !contains(p.Options, s) {
		return "", &ValidationError{
			RuleID: c.ID,
			Param:  name,
			Reason: fmt.Sprintf("must be one of: %s", strings.Join(p.Options, ", ")),
		}
	}
	return s, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
