package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/loader"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect, validate and evaluate validation rules",
}

var rulesTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the available rule types and their parameters",
	Args:  cobra.NoArgs,
	RunE:  rulesTypesCommand,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <rules file>",
	Short: "Check a rules file without running it",
	Long: `Check every rule in a rules file. With --response the fields the rules
reference must exist in that JSON body.

Examples:
  hitflow rules validate user.rules.yaml
  hitflow rules validate user.rules.yaml --response sample.json`,
	Args: cobra.ExactArgs(1),
	RunE: rulesValidateCommand,
}

var rulesEvalCmd = &cobra.Command{
	Use:   "eval <rules file>",
	Short: "Evaluate rules against a saved response",
	Long: `Evaluate a rules file offline against a response body read from a file
or stdin.

Examples:
  hitflow rules eval user.rules.yaml --response body.json --status 201
  curl -s api.example.com/users/1 | hitflow rules eval user.rules.yaml --elapsed 120ms`,
	Args: cobra.ExactArgs(1),
	RunE: rulesEvalCommand,
}

var (
	rulesTypesJSONFlag    bool
	rulesValidateBodyFlag string
	rulesEvalBodyFlag     string
	rulesEvalStatusFlag   int
	rulesEvalElapsedFlag  time.Duration
	rulesEvalJSONFlag     bool
)

func init() {
	rulesTypesCmd.Flags().BoolVar(&rulesTypesJSONFlag, "json", false, "Print the registry as JSON")

	rulesValidateCmd.Flags().StringVar(&rulesValidateBodyFlag, "response", "", "JSON body whose fields the rules must reference")

	rulesEvalCmd.Flags().StringVar(&rulesEvalBodyFlag, "response", "-", "Response body file (- for stdin)")
	rulesEvalCmd.Flags().IntVar(&rulesEvalStatusFlag, "status", 200, "Response status code")
	rulesEvalCmd.Flags().DurationVar(&rulesEvalElapsedFlag, "elapsed", 0, "Response time (e.g., 120ms)")
	rulesEvalCmd.Flags().BoolVar(&rulesEvalJSONFlag, "json", false, "Print results as JSON")

	rulesCmd.AddCommand(rulesTypesCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesEvalCmd)
}

func rulesTypesCommand(cmd *cobra.Command, args []string) error {
	types := rules.Types()
	w := cmd.OutOrStdout()

	if rulesTypesJSONFlag {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(types)
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	for _, t := range types {
		bold.Fprintf(w, "%s", t.Type)
		dim.Fprintf(w, "  [%s]\n", t.Category)
		fmt.Fprintf(w, "  %s\n", t.Description)
		if t.RequiresField {
			fmt.Fprintf(w, "  field: required\n")
		}
		for _, p := range t.Params {
			line := fmt.Sprintf("  - %s (%s)", p.Name, p.Type)
			if len(p.Options) > 0 {
				line += " one of " + strings.Join(p.Options, ", ")
			}
			if p.Default != nil {
				line += fmt.Sprintf(", default %v", p.Default)
			} else {
				line += ", required"
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func rulesValidateCommand(cmd *cobra.Command, args []string) error {
	cfgs, err := loader.LoadRules(args[0])
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	if rulesValidateBodyFlag != "" {
		data, err := readInput(cmd, rulesValidateBodyFlag)
		if err != nil {
			return withExit(ExitUsageError, err)
		}
		body, err := jsonval.Parse(data)
		if err != nil {
			return withExit(ExitParseError, fmt.Errorf("%s: %w", rulesValidateBodyFlag, err))
		}
		fields := rules.ListFields(body, 0)

		var errs []error
		for i, c := range cfgs {
			if err := rules.ValidateConfig(c, fields); err != nil {
				errs = append(errs, fmt.Errorf("rule %d: %w", i+1, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return withExit(ExitConfigError, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d rules)\n", args[0], len(cfgs))
	return nil
}

func rulesEvalCommand(cmd *cobra.Command, args []string) error {
	cfgs, err := loader.LoadRules(args[0])
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	body, err := readInput(cmd, rulesEvalBodyFlag)
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	resp := rules.Response{
		JSON:       jsonval.ParseOrNil(body),
		StatusCode: rulesEvalStatusFlag,
		ElapsedMs:  float64(rulesEvalElapsedFlag) / float64(time.Millisecond),
		Body:       body,
	}
	results := rules.EvaluateAll(cfgs, resp)

	if rulesEvalJSONFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printRuleResults(cmd.OutOrStdout(), results)
	}

	if !rules.AllPassed(results) {
		return withExit(ExitTestFailure, errors.New("one or more rules failed"))
	}
	return nil
}

func printRuleResults(w io.Writer, results []rules.Result) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	dim := color.New(color.Faint)

	passed := 0
	for _, r := range results {
		name := r.RuleName
		if r.Field != "" {
			name += " " + r.Field
		}
		if r.Passed() {
			passed++
			green.Fprintf(w, "  ✓ ")
			fmt.Fprintln(w, name)
			continue
		}
		red.Fprintf(w, "  ✗ ")
		fmt.Fprintln(w, name)
		if r.Reason != "" {
			dim.Fprintf(w, "      %s\n", r.Reason)
		}
		dim.Fprintf(w, "      expected: %s\n", r.Expected)
		dim.Fprintf(w, "      actual:   %s\n", r.Actual)
	}
	fmt.Fprintf(w, "\n%d passed, %d failed\n", passed, len(results)-passed)
}
