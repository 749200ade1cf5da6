package stress

import (
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Start()

	pass := []rules.Result{{RuleID: "status", Verdict: rules.Pass}}
	fail := []rules.Result{{RuleID: "status", Verdict: rules.Fail}}

	m.Record(OutcomePassed, 200, 10*time.Millisecond, pass)
	m.Record(OutcomePassed, 200, 20*time.Millisecond, pass)
	m.Record(OutcomeFailed, 500, 30*time.Millisecond, fail)
	m.Record(OutcomeError, 0, 0, nil)
	m.Record(OutcomeTimeout, 0, 0, nil)
	m.Stop()

	s := m.GetSummary()
	assert.Equal(t, int64(5), s.TotalRequests)
	assert.Equal(t, int64(2), s.PassedCount)
	assert.Equal(t, int64(1), s.FailedCount)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.Equal(t, int64(1), s.TimeoutCount)
	assert.Equal(t, map[int]int64{200: 2, 500: 1}, s.StatusCodes)
	assert.InDelta(t, 0.4, s.PassRate, 0.0001)
	assert.InDelta(t, 0.2, s.FailRate, 0.0001)
	assert.InDelta(t, 0.4, s.ErrorRate, 0.0001)

	require.Len(t, s.Rules, 1)
	assert.Equal(t, RuleCount{Name: "status", Passed: 2, Failed: 1}, s.Rules[0])

	// only responses carry latency
	assert.InDelta(t, float64(10*time.Millisecond), float64(s.Min), float64(time.Millisecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(s.Max), float64(time.Millisecond))
}

func TestMetricsRuleNameFallback(t *testing.T) {
	m := NewMetrics()
	m.Record(OutcomePassed, 200, time.Millisecond, []rules.Result{{RuleName: "Status Code", Verdict: rules.Pass}})

	s := m.GetSummary()
	require.Len(t, s.Rules, 1)
	assert.Equal(t, "Status Code", s.Rules[0].Name)
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()
	m.Start()
	for i := 1; i <= 100; i++ {
		m.Record(OutcomePassed, 200, time.Duration(i)*time.Millisecond, nil)
	}
	m.Stop()

	s := m.GetSummary()
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(s.P99), float64(time.Millisecond))
}

func TestEvaluateThresholds(t *testing.T) {
	m := NewMetrics()
	m.Start()
	for i := 0; i < 100; i++ {
		m.Record(OutcomePassed, 200, 10*time.Millisecond, nil)
	}
	m.Record(OutcomeError, 0, 0, nil)
	m.Stop()
	s := m.GetSummary()

	results := s.EvaluateThresholds(Thresholds{
		P95:       100 * time.Millisecond,
		ErrorRate: 0.05,
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Passed, "threshold %s should pass", r.Name)
	}

	results = s.EvaluateThresholds(Thresholds{
		P95:       time.Millisecond,
		ErrorRate: 0.001,
		FailRate:  0.5,
	})
	require.Len(t, results, 3)
	assert.False(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Equal(t, "rule failure rate", results[2].Name)
	assert.True(t, results[2].Passed)

	assert.Empty(t, s.EvaluateThresholds(Thresholds{}))
}
