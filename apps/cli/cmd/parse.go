package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse curl commands into request descriptors",
	Long: `Parse one or more curl commands without executing them. Commands are read
from a file (one per paragraph, # comments and backslash continuations
allowed) or from stdin.

Formats:
  json  request descriptors (default)
  curl  canonical curl commands
  flow  a flow file skeleton with one step per command

Examples:
  hitflow parse requests.curl
  echo 'curl api.example.com -d x=1' | hitflow parse
  hitflow parse requests.curl --format flow > api.flow.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: parseCommand,
}

var parseFormatFlag string

func init() {
	parseCmd.Flags().StringVar(&parseFormatFlag, "format", "json", "Output format: json, curl, flow")
}

func parseCommand(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	commands := curl.SplitCommands(string(data))
	if len(commands) == 0 {
		return withExit(ExitParseError, errors.New("no curl commands found"))
	}

	descs := make([]*request.Descriptor, 0, len(commands))
	var errs []error
	for i, c := range commands {
		desc, err := curl.Parse(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("command %d: %w", i+1, err))
			continue
		}
		descs = append(descs, desc)
	}
	if err := errors.Join(errs...); err != nil {
		return withExit(ExitParseError, err)
	}

	return writeDescriptors(cmd.OutOrStdout(), descs, parseFormatFlag)
}

func writeDescriptors(w io.Writer, descs []*request.Descriptor, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(descs)
	case "curl":
		for _, d := range descs {
			fmt.Fprintln(w, curl.Format(d))
		}
		return nil
	case "flow":
		f := flow.Flow{Name: "parsed", Steps: make([]flow.Step, 0, len(descs))}
		for i, d := range descs {
			f.Steps = append(f.Steps, flow.Step{
				Name:     fmt.Sprintf("step %d", i+1),
				Curl:     curl.Format(d),
				Baseline: true,
			})
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	default:
		return withExit(ExitUsageError, fmt.Errorf("unknown format %q (expected json, curl or flow)", format))
	}
}
