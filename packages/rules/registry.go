package rules

import "sort"

// Category groups rule types for reporting.
type Category string

const (
	CategoryStructural  Category = "structural"
	CategoryFunctional  Category = "functional"
	CategoryPerformance Category = "performance"
)

// Rule type names.
const (
	TypeStatusCode       = "status_code"
	TypeResponseTime     = "response_time"
	TypeFieldExists      = "field_exists"
	TypeFieldNotNull     = "field_not_null"
	TypeFieldType        = "field_type"
	TypeSuccessFlag      = "success_flag"
	TypeCustomExpression = "custom_expression"
	TypeJSONSchema       = "json_schema"
)

// ParamType is the declared type of a config parameter.
type ParamType string

const (
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamSelect  ParamType = "select"
	ParamText    ParamType = "text"
	ParamObject  ParamType = "object"
)

// Operators accepted by custom_expression.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpRegex       = "regex"
)

// ConfigParam declares one parameter a rule type reads from Config.Config.
// A nil Default means the parameter must be supplied.
type ConfigParam struct {
	Name    string    `json:"name" yaml:"name"`
	Type    ParamType `json:"type" yaml:"type"`
	Label   string    `json:"label" yaml:"label"`
	Options []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Default any       `json:"default,omitempty" yaml:"default,omitempty"`
}

// TypeInfo describes a registered rule type.
type TypeInfo struct {
	Type          string        `json:"type" yaml:"type"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description" yaml:"description"`
	Category      Category      `json:"category" yaml:"category"`
	RequiresField bool          `json:"requiresField" yaml:"requiresField"`
	Params        []ConfigParam `json:"params" yaml:"params"`
}

// Param returns the declared parameter with the given name.
func (t TypeInfo) Param(name string) (ConfigParam, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ConfigParam{}, false
}

var registry = map[string]TypeInfo{
	TypeStatusCode: {
		Type:        TypeStatusCode,
		Name:        "Status Code",
		Description: "Verify HTTP status code equals expected value",
		Category:    CategoryFunctional,
		Params: []ConfigParam{
			{Name: "expectedStatus", Type: ParamNumber, Label: "Expected Status Code", Default: 200},
		},
	},
	TypeResponseTime: {
		Type:        TypeResponseTime,
		Name:        "Response Time",
		Description: "Verify API response time is within acceptable threshold",
		Category:    CategoryPerformance,
		Params: []ConfigParam{
			{Name: "maxMs", Type: ParamNumber, Label: "Max Response Time (ms)", Default: 2000},
		},
	},
	TypeFieldExists: {
		Type:          TypeFieldExists,
		Name:          "Field Exists",
		Description:   "Verify that a specific field exists in the response",
		Category:      CategoryStructural,
		RequiresField: true,
	},
	TypeFieldNotNull: {
		Type:          TypeFieldNotNull,
		Name:          "Field Not Null",
		Description:   "Check that a field has a value (not null or empty)",
		Category:      CategoryStructural,
		RequiresField: true,
	},
	TypeFieldType: {
		Type:          TypeFieldType,
		Name:          "Field Type",
		Description:   "Validate the data type of a field value",
		Category:      CategoryStructural,
		RequiresField: true,
		Params: []ConfigParam{
			{
				Name:    "expectedType",
				Type:    ParamSelect,
				Label:   "Expected Type",
				Options: []string{"string", "number", "boolean", "array", "object", "null"},
				Default: "string",
			},
		},
	},
	TypeSuccessFlag: {
		Type:          TypeSuccessFlag,
		Name:          "Boolean Check",
		Description:   "Check if a boolean field matches expected true/false",
		Category:      CategoryFunctional,
		RequiresField: true,
		Params: []ConfigParam{
			{Name: "expectedValue", Type: ParamBoolean, Label: "Expected Value", Default: true},
		},
	},
	TypeCustomExpression: {
		Type:          TypeCustomExpression,
		Name:          "Custom Compare",
		Description:   "Compare field value using equals, contains, greater_than and other operators",
		Category:      CategoryFunctional,
		RequiresField: true,
		Params: []ConfigParam{
			{
				Name:    "operator",
				Type:    ParamSelect,
				Label:   "Operator",
				Options: []string{OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpRegex},
				Default: OpEquals,
			},
			{Name: "expectedValue", Type: ParamText, Label: "Expected Value", Default: ""},
		},
	},
	TypeJSONSchema: {
		Type:        TypeJSONSchema,
		Name:        "JSON Schema",
		Description: "Validate the response body, or one field, against a JSON Schema",
		Category:    CategoryStructural,
		Params: []ConfigParam{
			{Name: "schema", Type: ParamObject, Label: "Schema"},
		},
	},
}

// Lookup returns the registry entry for a rule type.
func Lookup(ruleType string) (TypeInfo, bool) {
	info, ok := registry[ruleType]
	return info, ok
}

// Types returns every registered rule type sorted by type name.
func Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
