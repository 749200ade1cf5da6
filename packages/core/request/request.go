// Package request holds the request descriptor produced by the curl parser
// and consumed by executors, together with the executor's response shape.
package request

import (
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

const (
	// DefaultMethod is used when no method is given.
	DefaultMethod = "GET"
	// DefaultScheme is prepended to URLs that carry no scheme.
	DefaultScheme = "https://"
)

// Descriptor describes one HTTP call. It is built fresh for every execution.
type Descriptor struct {
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      *string           `json:"body"`
	TLSVerify bool              `json:"tlsVerify"`
}

func NewDescriptor() *Descriptor {
	return &Descriptor{
		Method:    DefaultMethod,
		Headers:   make(map[string]string),
		TLSVerify: true,
	}
}

// SetHeader overwrites any previous value for key.
func (d *Descriptor) SetHeader(key, value string) *Descriptor {
	d.Headers[key] = value
	return d
}

func (d *Descriptor) SetBody(body string) *Descriptor {
	d.Body = &body
	return d
}

func (d *Descriptor) HasBody() bool {
	return d.Body != nil
}

// BodyString returns the body, or "" when there is none.
func (d *Descriptor) BodyString() string {
	if d.Body == nil {
		return ""
	}
	return *d.Body
}

// HasScheme reports whether rawURL starts with http:// or https://.
func HasScheme(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// NormalizeURL prepends https:// when rawURL has no scheme.
func NormalizeURL(rawURL string) string {
	if rawURL == "" || HasScheme(rawURL) {
		return rawURL
	}
	return DefaultScheme + rawURL
}

// Response is what an executor hands back for one descriptor.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Elapsed    time.Duration
	// JSON is the parsed body, or nil when the body is not JSON.
	JSON jsonval.Value
}

// ElapsedMs returns the elapsed time in fractional milliseconds.
func (r *Response) ElapsedMs() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
