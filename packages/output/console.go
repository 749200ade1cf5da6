package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating long values
func formatValue(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *flow.Result) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	name := result.Name
	if name == "" {
		name = "flow"
	}
	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+name))

	for _, s := range result.Steps {
		f.FormatStep(s)
	}

	if f.verbose && result.Variables.Len() > 0 {
		fmt.Fprintf(f.writer, "\n  Variables:\n")
		for _, k := range result.Variables.Names() {
			v, _ := result.Variables.Get(k)
			fmt.Fprintf(f.writer, "    %s = %s\n", k, formatValue(jsonval.Stringify(v), 100))
		}
	}

	passed, failed, skipped := result.Counts()
	rulesPassed, rulesFailed := result.RuleCounts()

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Steps: ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", passed+failed+skipped)
	fmt.Fprintf(f.writer, "Rules: %d passed, %d failed\n", rulesPassed, rulesFailed)
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	if result.Error != nil {
		fmt.Fprintf(f.writer, "%s %v\n", red("Stopped:"), result.Error)
	}
	fmt.Fprintf(f.writer, "\n")
}

// FormatStep prints a single step line and, on failure, its failing rules.
func (f *ConsoleFormatter) FormatStep(s *flow.StepResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if s.Skipped {
		fmt.Fprintf(f.writer, "  %s %s", yellow("-"), s.Name)
		if s.SkipReason != "" {
			fmt.Fprintf(f.writer, " (%s)", s.SkipReason)
		}
		fmt.Fprintf(f.writer, "\n")
		return
	}

	if s.Error != nil {
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), s.Name, red(fmt.Sprintf("(%v)", s.Error)))
		return
	}

	symbol := green("✓")
	if !s.Success {
		symbol = red("✗")
	}
	fmt.Fprintf(f.writer, "  %s %s %s %s\n", symbol, s.Name,
		cyan(fmt.Sprintf("%s %d", s.Method, s.StatusCode)),
		cyan(fmt.Sprintf("(%dms)", s.Elapsed.Milliseconds())))

	if f.verbose {
		fmt.Fprintf(f.writer, "    %s %s\n", s.Method, s.URL)
	}

	for _, r := range s.Rules {
		if r.Passed() && !f.verbose {
			continue
		}
		mark := green("PASS")
		if !r.Passed() {
			mark = red("FAIL")
		}
		label := r.RuleName
		if r.Field != "" {
			label += " [" + r.Field + "]"
		}
		fmt.Fprintf(f.writer, "    %s %s\n", mark, label)
		if !r.Passed() {
			fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(r.Expected, 100))
			fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(r.Actual, 100))
			if r.Reason != "" {
				fmt.Fprintf(f.writer, "      %s\n", r.Reason)
			}
		}
	}

	if f.verbose && len(s.Extracted) > 0 {
		names := make([]string, 0, len(s.Extracted))
		for k := range s.Extracted {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Fprintf(f.writer, "    Extracted:\n")
		for _, k := range names {
			fmt.Fprintf(f.writer, "      %s = %s\n", k, formatValue(jsonval.Stringify(s.Extracted[k]), 100))
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitflow"), version)
}
