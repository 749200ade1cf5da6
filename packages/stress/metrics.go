package stress

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
)

// Histogram range: 1us to 60s, 3 significant digits.
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Outcome classifies one request of a bench run.
type Outcome string

const (
	// OutcomePassed means a response arrived and every rule passed.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed means a response arrived but at least one rule failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeError is a transport error.
	OutcomeError Outcome = "error"
	// OutcomeTimeout is a request that hit its deadline.
	OutcomeTimeout Outcome = "timeout"
)

// Metrics collects latency and verdict counts. Safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	histogram   *hdrhistogram.Histogram
	outcomes    map[Outcome]int64
	statusCodes map[int]int64
	rules       map[string]*RuleCount

	startTime time.Time
	endTime   time.Time
}

// RuleCount tallies verdicts for one rule.
type RuleCount struct {
	Name   string `json:"name"`
	Passed int64  `json:"passed"`
	Failed int64  `json:"failed"`
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		histogram:   hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		outcomes:    make(map[Outcome]int64),
		statusCodes: make(map[int]int64),
		rules:       make(map[string]*RuleCount),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

// Record records one request. Latency is only recorded when a response
// arrived.
func (m *Metrics) Record(outcome Outcome, statusCode int, latency time.Duration, results []rules.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes[outcome]++
	if statusCode > 0 {
		m.statusCodes[statusCode]++
		_ = m.histogram.RecordValue(clampLatency(latency))
	}

	for _, r := range results {
		key := r.RuleName
		if r.RuleID != "" {
			key = r.RuleID
		}
		rc, ok := m.rules[key]
		if !ok {
			rc = &RuleCount{Name: key}
			m.rules[key] = rc
		}
		if r.Passed() {
			rc.Passed++
		} else {
			rc.Failed++
		}
	}
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

// Summary is the final report of a bench run. ErrorRate counts both
// transport errors and timeouts.
type Summary struct {
	Duration      time.Duration `json:"duration"`
	TotalRequests int64         `json:"total"`
	PassedCount   int64         `json:"passed"`
	FailedCount   int64         `json:"failed"`
	ErrorCount    int64         `json:"errors"`
	TimeoutCount  int64         `json:"timeouts"`
	StatusCodes   map[int]int64 `json:"statusCodes"`
	Rules         []RuleCount   `json:"rules"`

	RPS       float64 `json:"rps"`
	PassRate  float64 `json:"passRate"`
	FailRate  float64 `json:"failRate"`
	ErrorRate float64 `json:"errorRate"`

	P50    time.Duration `json:"p50"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stddev"`
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	s := &Summary{
		Duration:     duration,
		PassedCount:  m.outcomes[OutcomePassed],
		FailedCount:  m.outcomes[OutcomeFailed],
		ErrorCount:   m.outcomes[OutcomeError],
		TimeoutCount: m.outcomes[OutcomeTimeout],
		StatusCodes:  make(map[int]int64, len(m.statusCodes)),
		P50:          quantile(m.histogram, 50),
		P95:          quantile(m.histogram, 95),
		P99:          quantile(m.histogram, 99),
		Min:          time.Duration(m.histogram.Min()) * time.Microsecond,
		Max:          time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:         time.Duration(m.histogram.Mean()) * time.Microsecond,
		StdDev:       time.Duration(m.histogram.StdDev()) * time.Microsecond,
	}
	s.TotalRequests = s.PassedCount + s.FailedCount + s.ErrorCount + s.TimeoutCount

	for code, n := range m.statusCodes {
		s.StatusCodes[code] = n
	}
	for _, rc := range m.rules {
		s.Rules = append(s.Rules, *rc)
	}
	sort.Slice(s.Rules, func(i, j int) bool { return s.Rules[i].Name < s.Rules[j].Name })

	if duration.Seconds() > 0 {
		s.RPS = float64(s.TotalRequests) / duration.Seconds()
	}
	if s.TotalRequests > 0 {
		total := float64(s.TotalRequests)
		s.PassRate = float64(s.PassedCount) / total
		s.FailRate = float64(s.FailedCount) / total
		s.ErrorRate = float64(s.ErrorCount+s.TimeoutCount) / total
	}

	return s
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}

// EvaluateThresholds checks the summary against t. Only configured
// thresholds produce a result.
func (s *Summary) EvaluateThresholds(t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	latency := func(name string, limit, actual time.Duration) {
		if limit > 0 {
			results = append(results, ThresholdResult{
				Name:     name,
				Passed:   actual <= limit,
				Expected: "< " + limit.String(),
				Actual:   actual.String(),
			})
		}
	}
	ratio := func(name string, limit, actual float64) {
		if limit > 0 {
			results = append(results, ThresholdResult{
				Name:     name,
				Passed:   actual <= limit,
				Expected: "< " + formatPercent(limit),
				Actual:   formatPercent(actual),
			})
		}
	}

	latency("p50", t.P50, s.P50)
	latency("p95", t.P95, s.P95)
	latency("p99", t.P99, s.P99)
	latency("max latency", t.MaxLatency, s.Max)
	ratio("error rate", t.ErrorRate, s.ErrorRate)
	ratio("rule failure rate", t.FailRate, s.FailRate)

	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   s.RPS >= t.MinRPS,
			Expected: "> " + formatFloat(t.MinRPS),
			Actual:   formatFloat(s.RPS),
		})
	}

	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
