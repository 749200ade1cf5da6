package rules

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Rule is a compiled rule config. The set of implementations is closed.
type Rule interface {
	Type() string
	isRule()
}

type StatusCode struct {
	Expected int
}

type ResponseTime struct {
	MaxMs float64
}

type FieldExists struct {
	Field string
}

type FieldNotNull struct {
	Field string
}

type FieldType struct {
	Field    string
	Expected string
}

type SuccessFlag struct {
	Field    string
	Expected bool
}

// CustomExpression compares a field with Expected using Operator. Expected
// has already had one pair of surrounding quotes removed.
type CustomExpression struct {
	Field    string
	Operator string
	Expected string
}

// JSONSchema validates the body, or Field when set, against Schema.
type JSONSchema struct {
	Field  string
	Schema gojsonschema.JSONLoader
}

func (StatusCode) Type() string       { return TypeStatusCode }
func (ResponseTime) Type() string     { return TypeResponseTime }
func (FieldExists) Type() string      { return TypeFieldExists }
func (FieldNotNull) Type() string     { return TypeFieldNotNull }
func (FieldType) Type() string        { return TypeFieldType }
func (SuccessFlag) Type() string      { return TypeSuccessFlag }
func (CustomExpression) Type() string { return TypeCustomExpression }
func (JSONSchema) Type() string       { return TypeJSONSchema }

func (StatusCode) isRule()       {}
func (ResponseTime) isRule()     {}
func (FieldExists) isRule()      {}
func (FieldNotNull) isRule()     {}
func (FieldType) isRule()        {}
func (SuccessFlag) isRule()      {}
func (CustomExpression) isRule() {}
func (JSONSchema) isRule()       {}

// Compile turns a config into its typed rule. Missing parameters take their
// registry defaults.
func Compile(cfg Config) (Rule, error) {
	info, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownRuleTypeError{Type: cfg.Type}
	}
	if info.RequiresField && cfg.Field == "" {
		return nil, &ValidationError{RuleID: cfg.ID, Param: "field", Reason: "is required for " + info.Name}
	}

	switch cfg.Type {
	case TypeStatusCode:
		expected, err := intParam(cfg, info, "expectedStatus")
		if err != nil {
			return nil, err
		}
		return StatusCode{Expected: expected}, nil

	case TypeResponseTime:
		maxMs, err := numberParam(cfg, info, "maxMs")
		if err != nil {
			return nil, err
		}
		return ResponseTime{MaxMs: maxMs}, nil

	case TypeFieldExists:
		return FieldExists{Field: cfg.Field}, nil

	case TypeFieldNotNull:
		return FieldNotNull{Field: cfg.Field}, nil

	case TypeFieldType:
		expected, err := selectParam(cfg, info, "expectedType")
		if err != nil {
			return nil, err
		}
		return FieldType{Field: cfg.Field, Expected: expected}, nil

	case TypeSuccessFlag:
		expected, err := boolParam(cfg, info, "expectedValue")
		if err != nil {
			return nil, err
		}
		return SuccessFlag{Field: cfg.Field, Expected: expected}, nil

	case TypeCustomExpression:
		op, err := selectParam(cfg, info, "operator")
		if err != nil {
			return nil, err
		}
		expected, _ := cfg.param(info, "expectedValue")
		return CustomExpression{
			Field:    cfg.Field,
			Operator: op,
			Expected: stripQuotes(toText(expected)),
		}, nil

	case TypeJSONSchema:
		loader, err := schemaLoader(cfg)
		if err != nil {
			return nil, err
		}
		return JSONSchema{Field: cfg.Field, Schema: loader}, nil
	}

	return nil, &UnknownRuleTypeError{Type: cfg.Type}
}

// stripQuotes removes one matching pair of surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func schemaLoader(cfg Config) (gojsonschema.JSONLoader, error) {
	raw, ok := cfg.Config["schema"]
	if !ok || raw == nil {
		return nil, &ValidationError{RuleID: cfg.ID, Param: "schema", Reason: "is required"}
	}

	var loader gojsonschema.JSONLoader
	switch s := raw.(type) {
	case string:
		if !json.Valid([]byte(s)) {
			return nil, &ValidationError{RuleID: cfg.ID, Param: "schema", Reason: "is not valid JSON"}
		}
		loader = gojsonschema.NewStringLoader(s)
	case map[string]any:
		loader = gojsonschema.NewGoLoader(s)
	default:
		return nil, &ValidationError{RuleID: cfg.ID, Param: "schema", Reason: "must be an object or a JSON string"}
	}

	if _, err := gojsonschema.NewSchema(loader); err != nil {
		return nil, &ValidationError{RuleID: cfg.ID, Param: "schema", Reason: fmt.Sprintf("invalid schema: %v", err)}
	}
	return loader, nil
}
