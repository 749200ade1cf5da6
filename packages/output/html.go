package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

// HTMLOutput is the data handed to the report template.
type HTMLOutput struct {
	Version        string
	Summary        HTMLSummary
	Flows          []HTMLFlow
	Duration       float64
	Time           string
	PassedPercent  float64
	FailedPercent  float64
	SkippedPercent float64
}

// HTMLSummary counts steps over every flow in the report.
type HTMLSummary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// HTMLFlow is one flow run in the report.
type HTMLFlow struct {
	ID        string
	Name      string
	Success   bool
	Error     string
	Duration  float64
	Steps     []HTMLStep
	Variables []HTMLVariable
}

// HTMLStep is one step row.
type HTMLStep struct {
	Name        string
	Method      string
	URL         string
	StatusCode  int
	StatusClass string
	SkipReason  string
	Error       string
	Duration    float64
	Rules       []HTMLRule
	Extracted   []HTMLVariable
}

// HTMLRule is one rule verdict.
type HTMLRule struct {
	Name     string
	Field    string
	Expected string
	Actual   string
	Reason   string
	Passed   bool
}

// HTMLVariable is a name and its rendered value.
type HTMLVariable struct {
	Name  string
	Value string
}

// HTMLFormatter formats flow results as a standalone HTML report.
type HTMLFormatter struct {
	writer  io.Writer
	flows   []HTMLFlow
	version string
}

// HTMLOption is a functional option for HTMLFormatter
type HTMLOption func(*HTMLFormatter)

// NewHTMLFormatter creates a new HTML formatter
func NewHTMLFormatter(opts ...HTMLOption) *HTMLFormatter {
	f := &HTMLFormatter{
		writer: os.Stdout,
		flows:  make([]HTMLFlow, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HTMLWithWriter sets the output writer
func HTMLWithWriter(w io.Writer) HTMLOption {
	return func(f *HTMLFormatter) {
		f.writer = w
	}
}

// FormatResult accumulates a flow result
func (f *HTMLFormatter) FormatResult(result *flow.Result) {
	hf := HTMLFlow{
		ID:        result.ID.String(),
		Name:      result.Name,
		Success:   result.Success,
		Duration:  ms(result.Duration),
		Variables: variables(result.Variables.Strings()),
	}
	if result.Error != nil {
		hf.Error = result.Error.Error()
	}

	for _, s := range result.Steps {
		step := HTMLStep{
			Name:        s.Name,
			Method:      s.Method,
			URL:         s.URL,
			StatusCode:  s.StatusCode,
			StatusClass: stepStatus(s),
			SkipReason:  s.SkipReason,
			Duration:    ms(s.Elapsed),
		}
		if s.Error != nil {
			step.Error = s.Error.Error()
		}
		for _, r := range s.Rules {
			step.Rules = append(step.Rules, HTMLRule{
				Name:     r.RuleName,
				Field:    r.Field,
				Expected: r.Expected,
				Actual:   r.Actual,
				Reason:   r.Reason,
				Passed:   r.Passed(),
			})
		}
		if len(s.Extracted) > 0 {
			extracted := make(map[string]string, len(s.Extracted))
			for name, v := range s.Extracted {
				extracted[name] = jsonval.Stringify(v)
			}
			step.Extracted = variables(extracted)
		}
		hf.Steps = append(hf.Steps, step)
	}

	f.flows = append(f.flows, hf)
}

func variables(m map[string]string) []HTMLVariable {
	out := make([]HTMLVariable, 0, len(m))
	for name, value := range m {
		out = append(out, HTMLVariable{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FormatError handles errors (no-op for HTML, errors are in step results)
func (f *HTMLFormatter) FormatError(err error) {
	// Errors are included in individual step results
}

// FormatHeader captures the version for the HTML report
func (f *HTMLFormatter) FormatHeader(version string) {
	f.version = version
}

// Flush writes the accumulated HTML output
func (f *HTMLFormatter) Flush(totalDuration time.Duration) error {
	var summary HTMLSummary
	for _, fl := range f.flows {
		for _, s := range fl.Steps {
			summary.Total++
			switch s.StatusClass {
			case "skipped":
				summary.Skipped++
			case "passed":
				summary.Passed++
			default:
				summary.Failed++
			}
		}
	}

	var passedPct, failedPct, skippedPct float64
	if summary.Total > 0 {
		total := float64(summary.Total)
		passedPct = float64(summary.Passed) / total * 100
		failedPct = float64(summary.Failed) / total * 100
		skippedPct = float64(summary.Skipped) / total * 100
	}

	output := HTMLOutput{
		Version:        f.version,
		Summary:        summary,
		Flows:          f.flows,
		Duration:       ms(totalDuration),
		Time:           time.Now().Format("2006-01-02 15:04:05"),
		PassedPercent:  passedPct,
		FailedPercent:  failedPct,
		SkippedPercent: skippedPct,
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return tmpl.Execute(f.writer, output)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>hitflow report</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #222; }
h1 { margin-bottom: 0.25rem; }
.meta { color: #666; font-size: 0.9rem; }
.bar { display: flex; height: 10px; border-radius: 5px; overflow: hidden; margin: 1rem 0; background: #eee; }
.bar .passed { background: #2e9d4c; }
.bar .failed { background: #d64545; }
.bar .skipped { background: #c9a227; }
.flow { border: 1px solid #ddd; border-radius: 6px; margin: 1.5rem 0; padding: 1rem; }
.flow.ok { border-left: 6px solid #2e9d4c; }
.flow.bad { border-left: 6px solid #d64545; }
table { border-collapse: collapse; width: 100%; margin-top: 0.5rem; }
th, td { text-align: left; padding: 0.35rem 0.5rem; border-bottom: 1px solid #eee; vertical-align: top; }
td.passed { color: #2e9d4c; }
td.failed, td.error { color: #d64545; }
td.skipped { color: #c9a227; }
code { background: #f5f5f5; padding: 0 0.2rem; }
.rules { margin: 0; padding-left: 1rem; }
.rules .fail { color: #d64545; }
</style>
</head>
<body>
<h1>hitflow report</h1>
<div class="meta">{{if .Version}}v{{.Version}} · {{end}}{{.Time}} · {{printf "%.0f" .Duration}}ms</div>
<p>{{.Summary.Passed}} passed, {{.Summary.Failed}} failed, {{.Summary.Skipped}} skipped of {{.Summary.Total}} steps</p>
<div class="bar">
<div class="passed" style="width: {{printf "%.1f" .PassedPercent}}%"></div>
<div class="failed" style="width: {{printf "%.1f" .FailedPercent}}%"></div>
<div class="skipped" style="width: {{printf "%.1f" .SkippedPercent}}%"></div>
</div>
{{range .Flows}}
<div class="flow {{if .Success}}ok{{else}}bad{{end}}">
<h2>{{if .Name}}{{.Name}}{{else}}flow{{end}}</h2>
<div class="meta">{{.ID}} · {{printf "%.0f" .Duration}}ms</div>
{{if .Error}}<p class="rules fail">Stopped: {{.Error}}</p>{{end}}
<table>
<tr><th>Step</th><th>Request</th><th>Status</th><th>Time</th><th>Rules</th></tr>
{{range .Steps}}
<tr>
<td>{{.Name}}</td>
<td>{{if .Method}}<code>{{.Method}} {{.URL}}</code>{{end}}</td>
<td class="{{.StatusClass}}">{{.StatusClass}}{{if .StatusCode}} ({{.StatusCode}}){{end}}{{if .SkipReason}}: {{.SkipReason}}{{end}}{{if .Error}}: {{.Error}}{{end}}</td>
<td>{{printf "%.0f" .Duration}}ms</td>
<td>
{{if .Rules}}<ul class="rules">{{range .Rules}}
<li{{if not .Passed}} class="fail"{{end}}>{{.Name}}{{if .Field}} <code>{{.Field}}</code>{{end}}: expected {{.Expected}}, got {{.Actual}}{{if .Reason}} ({{.Reason}}){{end}}</li>{{end}}
</ul>{{end}}
{{if .Extracted}}<ul class="rules">{{range .Extracted}}<li><code>{{.Name}}</code> = {{.Value}}</li>{{end}}</ul>{{end}}
</td>
</tr>
{{end}}
</table>
{{if .Variables}}
<h3>Variables</h3>
<table>
{{range .Variables}}<tr><td><code>{{.Name}}</code></td><td>{{.Value}}</td></tr>{{end}}
</table>
{{end}}
</div>
{{end}}
</body>
</html>
`
