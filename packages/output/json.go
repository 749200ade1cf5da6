package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Flows    []JSONFlow  `json:"flows"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary counts steps over every flow
type JSONSummary struct {
	Flows   int `json:"flows"`
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONFlow represents one flow run
type JSONFlow struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	State     string           `json:"state"`
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Duration  float64          `json:"duration"`
	Steps     []JSONStep       `json:"steps"`
	Variables flowctx.Snapshot `json:"variables"`
}

// JSONStep represents a single step result
type JSONStep struct {
	Index      int                      `json:"index"`
	Name       string                   `json:"name"`
	Status     string                   `json:"status"`
	Success    bool                     `json:"success"`
	SkipReason string                   `json:"skipReason,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Request    *JSONRequest             `json:"request,omitempty"`
	Response   *JSONResponse            `json:"response,omitempty"`
	Rules      []rules.Result           `json:"rules,omitempty"`
	Extracted  map[string]jsonval.Value `json:"extracted,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	HasBody bool              `json:"hasBody"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONFormatter formats flow results as JSON
type JSONFormatter struct {
	writer io.Writer
	flows  []JSONFlow
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		flows:  make([]JSONFlow, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// ToJSON converts a flow result into its JSON shape.
func ToJSON(result *flow.Result) JSONFlow {
	out := JSONFlow{
		ID:        result.ID.String(),
		Name:      result.Name,
		State:     string(result.State),
		Success:   result.Success,
		Duration:  ms(result.Duration),
		Steps:     make([]JSONStep, 0, len(result.Steps)),
		Variables: result.Variables,
	}
	if result.Error != nil {
		out.Error = result.Error.Error()
	}

	for _, s := range result.Steps {
		step := JSONStep{
			Index:      s.Index,
			Name:       s.Name,
			Status:     stepStatus(s),
			Success:    s.Success,
			SkipReason: s.SkipReason,
			Rules:      s.Rules,
		}
		if s.Error != nil {
			step.Error = s.Error.Error()
		}
		if len(s.Extracted) > 0 {
			step.Extracted = s.Extracted
		}
		if s.Method != "" {
			step.Request = &JSONRequest{
				Method:  s.Method,
				URL:     s.URL,
				Headers: s.RequestHeaders,
				HasBody: s.HasBody,
			}
		}
		if s.Response != nil {
			step.Response = &JSONResponse{
				StatusCode: s.Response.StatusCode,
				Status:     s.Response.Status,
				Headers:    s.Response.Headers,
				Duration:   ms(s.Response.Elapsed),
			}
		}
		out.Steps = append(out.Steps, step)
	}
	return out
}

func (f *JSONFormatter) FormatResult(result *flow.Result) {
	f.flows = append(f.flows, ToJSON(result))
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual flow results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	summary := JSONSummary{Flows: len(f.flows)}
	for _, fl := range f.flows {
		for _, s := range fl.Steps {
			summary.Total++
			switch s.Status {
			case "skipped":
				summary.Skipped++
			case "passed":
				summary.Passed++
			default:
				summary.Failed++
			}
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Flows:    f.flows,
		Duration: ms(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
