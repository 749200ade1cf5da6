// Package stress repeats a single request under load, judges every response
// with the same rules a flow step uses, and reports latency percentiles and
// verdict counts.
package stress

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for a bench run. The run stops when
// Duration elapses or Requests have been sent, whichever comes first.
type Config struct {
	Duration    time.Duration
	Requests    int
	Rate        float64
	Concurrency int
	Timeout     time.Duration
	Thresholds  Thresholds
}

// Thresholds defines pass/fail criteria for the run
type Thresholds struct {
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	MaxLatency time.Duration
	ErrorRate  float64
	FailRate   float64
	MinRPS     float64
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Duration:    10 * time.Second,
		Rate:        10,
		Concurrency: 10,
		Timeout:     30 * time.Second,
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Duration <= 0 && c.Requests <= 0 {
		return errors.New("either duration or requests must be positive")
	}
	if c.Duration < 0 {
		return errors.New("duration cannot be negative")
	}
	if c.Requests < 0 {
		return errors.New("requests cannot be negative")
	}
	if c.Rate < 0 {
		return errors.New("rate cannot be negative")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	return nil
}

var thresholdPattern = regexp.MustCompile(`^(\w+)\s*([<>]=?)\s*(.+)$`)

// ParseThresholds parses a threshold string like "p95<200ms,errors<0.1%,rps>50".
// Latency and rate metrics take an upper bound, rps a lower bound.
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := parseThresholdPart(part, &t); err != nil {
			return t, err
		}
	}

	return t, nil
}

func parseThresholdPart(part string, t *Thresholds) error {
	matches := thresholdPattern.FindStringSubmatch(part)
	if len(matches) != 4 {
		return fmt.Errorf("invalid threshold format: %s", part)
	}

	metric := strings.ToLower(matches[1])
	op := matches[2]
	value := strings.TrimSpace(matches[3])
	upper := op == "<" || op == "<="

	latency := func(dst *time.Duration) error {
		if !upper {
			return fmt.Errorf("%s threshold must use < or <=", metric)
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", metric, value)
		}
		*dst = d
		return nil
	}

	ratio := func(dst *float64) error {
		if !upper {
			return fmt.Errorf("%s threshold must use < or <=", metric)
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid rate for %s: %s", metric, value)
		}
		if strings.HasSuffix(value, "%") {
			f /= 100
		}
		*dst = f
		return nil
	}

	switch metric {
	case "p50":
		return latency(&t.P50)
	case "p95":
		return latency(&t.P95)
	case "p99":
		return latency(&t.P99)
	case "max", "maxlatency":
		return latency(&t.MaxLatency)
	case "errors", "error", "errorrate":
		return ratio(&t.ErrorRate)
	case "fails", "failures", "failrate":
		return ratio(&t.FailRate)
	case "rps", "rate":
		if upper {
			return fmt.Errorf("%s threshold must use > or >=", metric)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RPS: %s", value)
		}
		t.MinRPS = f
		return nil
	default:
		return fmt.Errorf("unknown threshold metric: %s", metric)
	}
}

// HasThresholds returns true if any thresholds are configured
func (t *Thresholds) HasThresholds() bool {
	return t.P50 > 0 || t.P95 > 0 || t.P99 > 0 || t.MaxLatency > 0 ||
		t.ErrorRate > 0 || t.FailRate > 0 || t.MinRPS > 0
}

// ThresholdResult holds the result of evaluating a threshold
type ThresholdResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}
