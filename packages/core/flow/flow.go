package flow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
)

// Flow is an ordered sequence of steps sharing one execution context.
type Flow struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// Step is one request template with its rules and extraction rules.
// Exactly one of Curl and Request must be set.
type Step struct {
	Name     string                   `json:"name,omitempty" yaml:"name,omitempty"`
	Curl     string                   `json:"curl,omitempty" yaml:"curl,omitempty"`
	Request  *Template                `json:"request,omitempty" yaml:"request,omitempty"`
	Rules    []rules.Config           `json:"rules,omitempty" yaml:"rules,omitempty"`
	Extract  []flowctx.ExtractionRule `json:"extract,omitempty" yaml:"extract,omitempty"`
	Baseline bool                     `json:"baseline,omitempty" yaml:"baseline,omitempty"`
}

// Template is a structured request whose URL, header values and body may
// contain {{name}} placeholders.
type Template struct {
	Method   string            `json:"method,omitempty" yaml:"method,omitempty"`
	URL      string            `json:"url" yaml:"url"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body     *string           `json:"body,omitempty" yaml:"body,omitempty"`
	Insecure bool              `json:"insecure,omitempty" yaml:"insecure,omitempty"`
}

// DisplayName returns the step name, or a positional fallback.
func (s Step) DisplayName(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d", index+1)
}

// Source returns every template string of the step in a stable order, for
// placeholder scans.
func (s Step) Source() []string {
	if s.Request == nil {
		return []string{s.Curl}
	}
	out := []string{s.Request.URL}
	keys := make([]string, 0, len(s.Request.Headers))
	for k := range s.Request.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, s.Request.Headers[k])
	}
	if s.Request.Body != nil {
		out = append(out, *s.Request.Body)
	}
	return out
}

// Validate checks the flow's structure without running it.
func (f *Flow) Validate() error {
	var errs []error
	for i, step := range f.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.DisplayName(i), err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	var errs []error
	switch {
	case s.Curl == "" && s.Request == nil:
		errs = append(errs, errors.New("one of curl or request is required"))
	case s.Curl != "" && s.Request != nil:
		errs = append(errs, errors.New("curl and request are mutually exclusive"))
	case s.Request != nil && s.Request.URL == "":
		errs = append(errs, errors.New("request.url is required"))
	}
	for _, r := range s.Rules {
		if err := rules.ValidateConfig(r, nil); err != nil {
			errs = append(errs, err)
		}
	}
	for _, x := range s.Extract {
		if err := x.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// build fills the step's template from vars and returns a fresh descriptor.
func (s Step) build(vars *flowctx.Context) (*request.Descriptor, error) {
	if s.Request == nil {
		if s.Curl == "" {
			return nil, errors.New("step has no request")
		}
		// placeholders are filled per word so values are never re-read as
		// shell syntax
		words, err := curl.Tokenize(s.Curl)
		if err != nil {
			return nil, err
		}
		for i, w := range words {
			if words[i], err = vars.Inject(w); err != nil {
				return nil, err
			}
		}
		return curl.ParseArgs(words)
	}

	t := s.Request
	desc := request.NewDescriptor()
	desc.TLSVerify = !t.Insecure

	url, err := vars.Inject(t.URL)
	if err != nil {
		return nil, err
	}
	desc.URL = request.NormalizeURL(strings.TrimSpace(url))
	if desc.URL == "" {
		return nil, curl.ErrMissingURL
	}

	headers, err := vars.InjectMap(t.Headers)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		desc.SetHeader(k, v)
	}

	if t.Body != nil {
		body, err := vars.Inject(*t.Body)
		if err != nil {
			return nil, err
		}
		desc.SetBody(body)
	}

	switch {
	case t.Method != "":
		desc.Method = strings.ToUpper(t.Method)
	case desc.HasBody():
		desc.Method = "POST"
	}
	return desc, nil
}
