// Package rules evaluates configurable validation rules against an HTTP
// response.
//
// Rule configs are plain data (type, optional field path, parameters) and
// can be loaded from YAML or JSON. Before evaluation each config is compiled
// into one of a closed set of typed rule kinds:
//
//	status_code        status equals config.expectedStatus (default 200)
//	response_time      elapsed ms <= config.maxMs (default 2000)
//	field_exists       field path resolves, null included
//	field_not_null     field resolves to a non-null, non-empty value
//	field_type         field's JSON type equals config.expectedType
//	success_flag       field is a boolean equal to config.expectedValue
//	custom_expression  field compared with config.operator and config.expectedValue
//	json_schema        body (or field) validates against config.schema
//
// Evaluation never panics or returns an error: every problem, including an
// unknown rule type, becomes a FAIL result with a reason.
package rules
