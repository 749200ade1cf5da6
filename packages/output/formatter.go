package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
)

// Formatter renders flow results.
type Formatter interface {
	FormatResult(result *flow.Result)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that accumulate results and write
// them all at once.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the accepted format names.
var Formats = []string{"console", "json", "junit", "tap", "html"}

// New returns the formatter registered under name.
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch name {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "junit":
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	case "tap":
		return NewTAPFormatter(TAPWithWriter(w)), nil
	case "html":
		return NewHTMLFormatter(HTMLWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %v)", name, Formats)
	}
}

// stepStatus classifies a step for reporting.
func stepStatus(s *flow.StepResult) string {
	switch {
	case s.Skipped:
		return "skipped"
	case s.Error != nil:
		return "error"
	case s.Success:
		return "passed"
	default:
		return "failed"
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
