package rules

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

// Baseline applies the fixed default checks used when a step defines no
// rules of its own: a 2xx status, a non-empty body, valid JSON and no error
// field.
func Baseline(resp Response) []Result {
	checks := []struct {
		name string
		fn   func(Response, *Result)
	}{
		{"Status Code Rule", baselineStatus},
		{"Response Exists Rule", baselineExists},
		{"Valid JSON Rule", baselineValidJSON},
		{"No Error Field Rule", baselineNoErrorField},
	}

	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		results = append(results, runBaseline(c.name, c.fn, resp))
	}
	return results
}

func runBaseline(name string, fn func(Response, *Result), resp Response) (res Result) {
	res = Result{RuleName: name, Category: CategoryFunctional, Verdict: Fail}
	defer func() {
		if r := recover(); r != nil {
			res.Verdict = Fail
			res.Reason = fmt.Sprintf("rule execution error: %v", r)
		}
	}()
	fn(resp, &res)
	return res
}

func baselineStatus(resp Response, res *Result) {
	res.Expected = "2xx"
	res.Actual = fmt.Sprintf("%d", resp.StatusCode)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		res.Verdict = Pass
		return
	}
	res.Reason = fmt.Sprintf("expected 2xx status code, got %d", resp.StatusCode)
}

func baselineExists(resp Response, res *Result) {
	res.Category = CategoryStructural
	res.Expected = "non-empty body"
	if strings.TrimSpace(string(resp.Body)) == "" {
		res.Actual = "empty"
		res.Reason = "response body is empty"
		return
	}
	res.Actual = fmt.Sprintf("%d bytes", len(resp.Body))
	if reason := errorField(resp); reason != "" {
		res.Reason = reason
		return
	}
	res.Verdict = Pass
}

func baselineValidJSON(resp Response, res *Result) {
	res.Category = CategoryStructural
	res.Expected = "valid JSON"
	if resp.JSON == nil {
		res.Actual = "not JSON"
		res.Reason = "response is not valid JSON"
		return
	}
	res.Actual = jsonval.TypeName(resp.JSON)
	if reason := errorField(resp); reason != "" {
		res.Reason = reason
		return
	}
	res.Verdict = Pass
}

func baselineNoErrorField(resp Response, res *Result) {
	res.Expected = "no error field"
	res.Actual = "none"
	if reason := errorField(resp); reason != "" {
		res.Actual = "error field present"
		res.Reason = reason
		return
	}
	res.Verdict = Pass
}

// errorField describes an "error" field, or a "message" field on a 4xx/5xx
// response, in a JSON object body.
func errorField(resp Response) string {
	obj, ok := resp.JSON.(*jsonval.Object)
	if !ok {
		return ""
	}
	if v, ok := obj.Get("error"); ok {
		return "response contains error: " + jsonval.Stringify(v)
	}
	if v, ok := obj.Get("message"); ok && resp.StatusCode >= 400 {
		return "response contains error message: " + jsonval.Stringify(v)
	}
	return ""
}
