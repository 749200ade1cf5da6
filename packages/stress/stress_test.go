package stress

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	hithttp "github.com/abdul-hamid-achik/hitflow/packages/http"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentReporter(buf *bytes.Buffer) *Reporter {
	return NewReporter(WithWriter(buf), WithNoColor(true))
}

func TestRunnerIntegration(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "success": true}`))
	}))
	defer server.Close()

	cfg := &Config{Requests: 20, Concurrency: 4, Timeout: 5 * time.Second}
	var out bytes.Buffer
	runner := NewRunner(cfg, hithttp.NewClient(),
		WithReporter(silentReporter(&out)),
		WithRules([]rules.Config{
			{ID: "status", Type: rules.TypeStatusCode},
			{ID: "flag", Type: rules.TypeSuccessFlag, Field: "success"},
		}),
	)

	desc := &request.Descriptor{Method: "GET", URL: server.URL + "/health", Headers: map[string]string{}, TLSVerify: true}
	result, err := runner.Run(context.Background(), desc)
	require.NoError(t, err)

	assert.Equal(t, int64(20), hits.Load())
	assert.Equal(t, int64(20), result.Summary.TotalRequests)
	assert.Equal(t, int64(20), result.Summary.PassedCount)
	assert.Equal(t, int64(0), result.Summary.ErrorCount)
	assert.Len(t, result.Summary.Rules, 2)
	assert.True(t, result.Passed)

	assert.Contains(t, out.String(), "hitflow bench")
	assert.Contains(t, out.String(), "BENCH SUMMARY")
	assert.Contains(t, out.String(), "status: 20 passed")
}

func TestRunnerRuleFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := &Config{
		Requests:    10,
		Concurrency: 2,
		Timeout:     5 * time.Second,
		Thresholds:  Thresholds{FailRate: 0.1},
	}
	var out bytes.Buffer
	runner := NewRunner(cfg, hithttp.NewClient(), WithReporter(silentReporter(&out)))

	desc := &request.Descriptor{Method: "GET", URL: server.URL, Headers: map[string]string{}, TLSVerify: true}
	result, err := runner.Run(context.Background(), desc)
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.Summary.FailedCount)
	assert.Equal(t, map[int]int64{503: 10}, result.Summary.StatusCodes)
	assert.False(t, result.Passed)
	assert.True(t, result.HasThresholdFailures())
	assert.Contains(t, out.String(), "Some thresholds failed!")
}

func TestRunnerErrorsAndTimeouts(t *testing.T) {
	var calls atomic.Int64
	executor := flow.ExecutorFunc(func(ctx context.Context, desc *request.Descriptor, timeout time.Duration) (*request.Response, error) {
		if calls.Add(1)%2 == 0 {
			return nil, &request.TimeoutError{URL: desc.URL, Timeout: timeout}
		}
		return nil, &request.TransportError{URL: desc.URL, Err: assert.AnError}
	})

	cfg := &Config{Requests: 10, Concurrency: 1, Timeout: time.Second}
	runner := NewRunner(cfg, executor, WithReporter(silentReporter(&bytes.Buffer{})))

	result, err := runner.Run(context.Background(), &request.Descriptor{Method: "GET", URL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Summary.ErrorCount)
	assert.Equal(t, int64(5), result.Summary.TimeoutCount)
	assert.InDelta(t, 1.0, result.Summary.ErrorRate, 0.0001)
}

func TestRunnerDuration(t *testing.T) {
	executor := flow.ExecutorFunc(func(ctx context.Context, desc *request.Descriptor, timeout time.Duration) (*request.Response, error) {
		return &request.Response{StatusCode: 200, Elapsed: time.Millisecond}, nil
	})

	cfg := &Config{Duration: 300 * time.Millisecond, Rate: 20, Concurrency: 2}
	runner := NewRunner(cfg, executor, WithReporter(silentReporter(&bytes.Buffer{})))

	start := time.Now()
	result, err := runner.Run(context.Background(), &request.Descriptor{Method: "GET", URL: "http://x"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Greater(t, result.Summary.TotalRequests, int64(0))
	// 20 req/s for 300ms with a burst of one
	assert.LessOrEqual(t, result.Summary.TotalRequests, int64(8))
}

func TestRunnerInvalidRule(t *testing.T) {
	cfg := &Config{Requests: 1, Concurrency: 1}
	runner := NewRunner(cfg, hithttp.NewClient(),
		WithReporter(silentReporter(&bytes.Buffer{})),
		WithRules([]rules.Config{{Type: "nope"}}),
	)

	_, err := runner.Run(context.Background(), &request.Descriptor{Method: "GET", URL: "http://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 1")
}

func TestRunnerInvalidConfig(t *testing.T) {
	runner := NewRunner(&Config{}, hithttp.NewClient(), WithReporter(silentReporter(&bytes.Buffer{})))
	_, err := runner.Run(context.Background(), &request.Descriptor{Method: "GET", URL: "http://x"})
	assert.Error(t, err)
}

func TestRunnerCancelled(t *testing.T) {
	executor := flow.ExecutorFunc(func(ctx context.Context, desc *request.Descriptor, timeout time.Duration) (*request.Response, error) {
		return &request.Response{StatusCode: 200}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{Duration: time.Minute, Rate: 1, Concurrency: 1}
	runner := NewRunner(cfg, executor, WithReporter(silentReporter(&bytes.Buffer{})))

	result, err := runner.Run(ctx, &request.Descriptor{Method: "GET", URL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Summary.TotalRequests)
}

func TestReporterJSON(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Record(OutcomePassed, 200, 12*time.Millisecond, []rules.Result{{RuleID: "status", Verdict: rules.Pass}})
	m.Stop()

	var buf bytes.Buffer
	r := NewReporter(WithWriter(&buf), WithQuiet(true))
	r.Summary(m.GetSummary(), nil)
	assert.Empty(t, buf.String())

	require.NoError(t, r.JSON(&Result{Summary: m.GetSummary(), Passed: true}))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, true, out["passed"])
	assert.Equal(t, float64(1), out["requests"].(map[string]any)["total"])
	assert.Equal(t, float64(12), out["latency"].(map[string]any)["p50"])
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
