package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/xeipuuv/gojsonschema"
)

// Verdict is the outcome of one rule.
type Verdict string

const (
	Pass Verdict = "PASS"
	Fail Verdict = "FAIL"
)

// Response is the part of an HTTP response rules look at.
type Response struct {
	JSON       jsonval.Value
	StatusCode int
	ElapsedMs  float64
	Body       []byte
}

// FromResponse adapts an executor response.
func FromResponse(resp *request.Response) Response {
	return Response{
		JSON:       resp.JSON,
		StatusCode: resp.StatusCode,
		ElapsedMs:  resp.ElapsedMs(),
		Body:       resp.Body,
	}
}

// Result is the evaluation outcome of one rule. An empty Reason means none.
type Result struct {
	RuleID   string   `json:"ruleId,omitempty"`
	RuleName string   `json:"ruleName"`
	Category Category `json:"category"`
	Field    string   `json:"field,omitempty"`
	Verdict  Verdict  `json:"verdict"`
	Reason   string   `json:"reason,omitempty"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
}

func (r Result) Passed() bool {
	return r.Verdict == Pass
}

// Evaluate runs one rule config against resp. It never panics.
func Evaluate(cfg Config, resp Response) (result Result) {
	result = newResult(cfg)

	defer func() {
		if r := recover(); r != nil {
			result.Verdict = Fail
			result.Reason = fmt.Sprintf("rule evaluation error: %v", r)
			result.Expected = "Successful evaluation"
			result.Actual = fmt.Sprintf("Error: %v", r)
		}
	}()

	rule, err := Compile(cfg)
	if err != nil {
		var unknown *UnknownRuleTypeError
		if errors.As(err, &unknown) {
			result.Reason = unknown.Error()
			result.Expected = "Valid rule"
			result.Actual = "Unknown rule type"
			return result
		}
		result.Reason = err.Error()
		result.Expected = "Valid rule config"
		result.Actual = "Invalid rule config"
		return result
	}

	apply(rule, resp, &result)
	return result
}

// EvaluateAll evaluates every enabled rule in order. A fault in one rule
// only affects that rule's result.
func EvaluateAll(cfgs []Config, resp Response) []Result {
	results := make([]Result, 0, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.IsEnabled() {
			continue
		}
		results = append(results, Evaluate(cfg, resp))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

func newResult(cfg Config) Result {
	r := Result{
		RuleID:   cfg.ID,
		RuleName: cfg.Type,
		Category: CategoryFunctional,
		Field:    cfg.Field,
		Verdict:  Fail,
	}
	if info, ok := Lookup(cfg.Type); ok {
		r.RuleName = info.Name
		r.Category = info.Category
	}
	return r
}

func apply(rule Rule, resp Response, res *Result) {
	switch r := rule.(type) {
	case StatusCode:
		res.Expected = strconv.Itoa(r.Expected)
		res.Actual = strconv.Itoa(resp.StatusCode)
		if resp.StatusCode == r.Expected {
			res.Verdict = Pass
		} else {
			res.Reason = fmt.Sprintf("expected status %d, got %d", r.Expected, resp.StatusCode)
		}

	case ResponseTime:
		res.Expected = fmt.Sprintf("<= %sms", formatNumber(r.MaxMs))
		res.Actual = fmt.Sprintf("%dms", int64(resp.ElapsedMs))
		if resp.ElapsedMs <= r.MaxMs {
			res.Verdict = Pass
		} else {
			res.Reason = fmt.Sprintf("response time %dms exceeds %sms", int64(resp.ElapsedMs), formatNumber(r.MaxMs))
		}

	case FieldExists:
		res.Expected = fmt.Sprintf("'%s' exists", r.Field)
		value, found := jsonval.Resolve(resp.JSON, r.Field)
		if !found {
			notFound(res, r.Field)
			return
		}
		res.Verdict = Pass
		res.Actual = describeFound(value)

	case FieldNotNull:
		res.Expected = "not null or empty"
		value, found := jsonval.Resolve(resp.JSON, r.Field)
		if !found {
			notFound(res, r.Field)
			return
		}
		if empty, what := isEmpty(value); empty {
			res.Actual = what
			if what == "null" {
				res.Reason = fmt.Sprintf("field '%s' is null", r.Field)
			} else {
				res.Reason = fmt.Sprintf("field '%s' is empty", r.Field)
			}
			return
		}
		res.Verdict = Pass
		if s, ok := value.(jsonval.String); ok {
			res.Actual = fmt.Sprintf("%q", truncate(string(s), 50))
		} else {
			res.Actual = jsonval.TypeName(value) + " with value"
		}

	case FieldType:
		res.Expected = r.Expected
		value, found := jsonval.Resolve(resp.JSON, r.Field)
		if !found {
			notFound(res, r.Field)
			return
		}
		actual := jsonval.TypeName(value)
		res.Actual = actual
		if actual == r.Expected {
			res.Verdict = Pass
		} else {
			res.Reason = fmt.Sprintf("expected %s, got %s", r.Expected, actual)
		}

	case SuccessFlag:
		res.Expected = strconv.FormatBool(r.Expected)
		value, found := jsonval.Resolve(resp.JSON, r.Field)
		if !found {
			notFound(res, r.Field)
			return
		}
		res.Actual = jsonval.Stringify(value)
		if b, ok := value.(jsonval.Bool); ok && bool(b) == r.Expected {
			res.Verdict = Pass
		} else {
			res.Reason = fmt.Sprintf("expected %t, got %s", r.Expected, res.Actual)
		}

	case CustomExpression:
		applyExpression(r, resp, res)

	case JSONSchema:
		applySchema(r, resp, res)

	default:
		res.Reason = fmt.Sprintf("unknown rule type: %s", rule.Type())
		res.Expected = "Valid rule"
		res.Actual = "Unknown rule type"
	}
}

func notFound(res *Result, field string) {
	res.Actual = "field not found"
	res.Reason = fmt.Sprintf("field not found: '%s'", field)
}

func applyExpression(r CustomExpression, resp Response, res *Result) {
	res.Expected = fmt.Sprintf("%s %q", r.Operator, r.Expected)

	value, found := jsonval.Resolve(resp.JSON, r.Field)
	if !found {
		notFound(res, r.Field)
		return
	}

	actual := jsonval.Stringify(value)
	res.Actual = truncate(actual, 100)

	var passed bool
	switch r.Operator {
	case OpEquals:
		passed = actual == r.Expected
	case OpNotEquals:
		passed = actual != r.Expected
	case OpContains:
		passed = strings.Contains(actual, r.Expected)
	case OpGreaterThan, OpLessThan:
		left, lok := numeric(value)
		right, rerr := strconv.ParseFloat(strings.TrimSpace(r.Expected), 64)
		if !lok || rerr != nil {
			res.Reason = "cannot compare non-numeric values"
			return
		}
		if r.Operator == OpGreaterThan {
			passed = left > right
		} else {
			passed = left < right
		}
	case OpRegex:
		re, err := regexp.Compile(r.Expected)
		if err != nil {
			res.Reason = fmt.Sprintf("invalid regex: %v", err)
			return
		}
		passed = re.MatchString(actual)
	default:
		res.Reason = fmt.Sprintf("unknown operator: %s", r.Operator)
		return
	}

	if passed {
		res.Verdict = Pass
		return
	}
	res.Reason = fmt.Sprintf("value '%s' does not match %s '%s'", truncate(actual, 50), r.Operator, r.Expected)
}

// numeric converts numbers and numeric strings. Booleans are not coerced.
func numeric(v jsonval.Value) (float64, bool) {
	switch x := v.(type) {
	case jsonval.Number:
		return x.Float, true
	case jsonval.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func applySchema(r JSONSchema, resp Response, res *Result) {
	res.Expected = "matches schema"

	target := resp.JSON
	if target == nil {
		res.Actual = "not JSON"
		res.Reason = "response body is not JSON"
		return
	}
	if r.Field != "" {
		value, found := jsonval.Resolve(resp.JSON, r.Field)
		if !found {
			notFound(res, r.Field)
			return
		}
		target = value
	}

	outcome, err := gojsonschema.Validate(r.Schema, gojsonschema.NewGoLoader(jsonval.ToAny(target)))
	if err != nil {
		res.Actual = "validation error"
		res.Reason = fmt.Sprintf("schema validation failed: %v", err)
		return
	}
	if outcome.Valid() {
		res.Verdict = Pass
		res.Actual = "valid"
		return
	}

	msgs := make([]string, 0, len(outcome.Errors()))
	for _, e := range outcome.Errors() {
		msgs = append(msgs, e.String())
	}
	res.Actual = fmt.Sprintf("%d violation(s)", len(msgs))
	res.Reason = strings.Join(msgs, "; ")
}

func describeFound(v jsonval.Value) string {
	switch x := v.(type) {
	case jsonval.Null:
		return "found (null)"
	case jsonval.String:
		return fmt.Sprintf("found: %q", truncate(string(x), 50))
	case jsonval.Array:
		return fmt.Sprintf("found: array (%d items)", len(x))
	case *jsonval.Object:
		return fmt.Sprintf("found: object (%d items)", x.Len())
	default:
		return "found: " + jsonval.Stringify(v)
	}
}

func isEmpty(v jsonval.Value) (bool, string) {
	switch x := v.(type) {
	case jsonval.Null:
		return true, "null"
	case jsonval.String:
		return strings.TrimSpace(string(x)) == "", "empty string"
	case jsonval.Array:
		return len(x) == 0, "empty array"
	case *jsonval.Object:
		return x.Len() == 0, "empty object"
	}
	return false, ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
