package stress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/fatih/color"
)

// Reporter handles output for bench runs
type Reporter struct {
	writer  io.Writer
	noColor bool
	quiet   bool

	// Colors
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

// ReporterOption configures the reporter
type ReporterOption func(*Reporter)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithQuiet suppresses the header and summary, e.g. when the result is
// written as JSON instead.
func WithQuiet(quiet bool) ReporterOption {
	return func(r *Reporter) {
		r.quiet = quiet
	}
}

// NewReporter creates a new reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.noColor {
		color.NoColor = true
	}
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)

	return r
}

// Header prints the run header
func (r *Reporter) Header(desc *request.Descriptor, config *Config) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.writer)
	r.bold.Fprintf(r.writer, "hitflow bench\n")
	fmt.Fprintln(r.writer)

	r.cyan.Fprintf(r.writer, "Target: %s %s\n", desc.Method, desc.URL)

	var details []string
	if config.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %s req/s", formatFloat(config.Rate)))
	} else {
		details = append(details, "Rate: unlimited")
	}
	if config.Duration > 0 {
		details = append(details, fmt.Sprintf("Duration: %s", config.Duration))
	}
	if config.Requests > 0 {
		details = append(details, fmt.Sprintf("Requests: %d", config.Requests))
	}
	details = append(details, fmt.Sprintf("Concurrency: %d", config.Concurrency))

	fmt.Fprintf(r.writer, "%s\n", strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

// Summary prints the final summary
func (r *Reporter) Summary(summary *Summary, thresholdResults []ThresholdResult) {
	if r.quiet {
		return
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "BENCH SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%s", formatNumber(summary.TotalRequests))
	fmt.Fprintf(r.writer, " requests (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Passed:     ")
	r.green.Fprintf(r.writer, "%s", formatNumber(summary.PassedCount))
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.PassRate*100)

	fmt.Fprintf(r.writer, "Failed:     ")
	if summary.FailedCount > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(summary.FailedCount))
	} else {
		fmt.Fprintf(r.writer, "%s", formatNumber(summary.FailedCount))
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.FailRate*100)

	if summary.ErrorCount > 0 {
		fmt.Fprintf(r.writer, "Errors:     ")
		r.red.Fprintf(r.writer, "%s\n", formatNumber(summary.ErrorCount))
	}
	if summary.TimeoutCount > 0 {
		fmt.Fprintf(r.writer, "Timeouts:   ")
		r.yellow.Fprintf(r.writer, "%s\n", formatNumber(summary.TimeoutCount))
	}

	if len(summary.StatusCodes) > 0 {
		codes := make([]int, 0, len(summary.StatusCodes))
		for code := range summary.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		parts := make([]string, len(codes))
		for i, code := range codes {
			parts[i] = fmt.Sprintf("%d: %s", code, formatNumber(summary.StatusCodes[code]))
		}
		fmt.Fprintf(r.writer, "Status:     %s\n", strings.Join(parts, " | "))
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
		formatLatencyMs(summary.P50),
		formatLatencyMs(summary.P95),
		formatLatencyMs(summary.P99),
		formatLatencyMs(summary.Max))
	fmt.Fprintf(r.writer, "  min: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(summary.Min),
		formatLatencyMs(summary.Mean),
		formatLatencyMs(summary.StdDev))

	if len(summary.Rules) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "RULES")
		for _, rc := range summary.Rules {
			fmt.Fprintf(r.writer, "  %s: ", rc.Name)
			r.green.Fprintf(r.writer, "%s passed", formatNumber(rc.Passed))
			fmt.Fprintf(r.writer, ", ")
			if rc.Failed > 0 {
				r.red.Fprintf(r.writer, "%s failed", formatNumber(rc.Failed))
			} else {
				fmt.Fprintf(r.writer, "0 failed")
			}
			fmt.Fprintln(r.writer)
		}
	}

	if len(thresholdResults) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		allPassed := true
		for _, tr := range thresholdResults {
			if tr.Passed {
				r.green.Fprintf(r.writer, "  ✓ ")
			} else {
				r.red.Fprintf(r.writer, "  ✗ ")
				allPassed = false
			}
			fmt.Fprintf(r.writer, "%s %s    (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}

		fmt.Fprintln(r.writer)
		if allPassed {
			r.green.Fprintln(r.writer, "All thresholds passed!")
		} else {
			r.red.Fprintln(r.writer, "Some thresholds failed!")
		}
	}

	fmt.Fprintln(r.writer)
}

// JSON writes the result as JSON. Latencies are in milliseconds.
func (r *Reporter) JSON(result *Result) error {
	s := result.Summary
	output := map[string]any{
		"passed":   result.Passed,
		"duration": s.Duration.String(),
		"requests": map[string]any{
			"total":    s.TotalRequests,
			"passed":   s.PassedCount,
			"failed":   s.FailedCount,
			"errors":   s.ErrorCount,
			"timeouts": s.TimeoutCount,
		},
		"rates": map[string]any{
			"rps":       s.RPS,
			"passRate":  s.PassRate,
			"failRate":  s.FailRate,
			"errorRate": s.ErrorRate,
		},
		"latency": map[string]any{
			"p50":    s.P50.Milliseconds(),
			"p95":    s.P95.Milliseconds(),
			"p99":    s.P99.Milliseconds(),
			"min":    s.Min.Milliseconds(),
			"max":    s.Max.Milliseconds(),
			"mean":   s.Mean.Milliseconds(),
			"stddev": s.StdDev.Milliseconds(),
		},
		"statusCodes": s.StatusCodes,
		"rules":       s.Rules,
	}
	if len(result.Thresholds) > 0 {
		output["thresholds"] = result.Thresholds
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

// formatLatencyMs formats latency in milliseconds
func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}

// formatNumber formats a number with commas
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := make([]byte, 0, len(s)+(len(s)-1)/3)

	start := len(s) % 3
	if start == 0 {
		start = 3
	}

	result = append(result, s[:start]...)
	for i := start; i < len(s); i += 3 {
		result = append(result, ',')
		result = append(result, s[i:i+3]...)
	}

	return string(result)
}
