package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/hitflow/packages/core/loader"
	"github.com/abdul-hamid-achik/hitflow/packages/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow file>",
	Short: "Show which steps feed variables to which",
	Long: `Print the data dependencies of a flow: every variable a step extracts
and the later steps that consume it. Placeholders no earlier step extracts
are drawn as missing nodes.

Examples:
  hitflow graph checkout.flow.yaml | dot -Tsvg > checkout.svg
  hitflow graph checkout.flow.yaml --format json`,
	Args: cobra.ExactArgs(1),
	RunE: graphCommand,
}

var graphFormatFlag string

func init() {
	graphCmd.Flags().StringVar(&graphFormatFlag, "format", "dot", "Output format: dot, json")
}

func graphCommand(cmd *cobra.Command, args []string) error {
	f, err := loader.LoadFlow(args[0])
	if err != nil {
		return withExit(ExitParseError, err)
	}
	g := graph.Build(f)

	w := cmd.OutOrStdout()
	switch graphFormatFlag {
	case "dot":
		dot, err := g.DOT()
		if err != nil {
			return err
		}
		fmt.Fprint(w, dot)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	default:
		return withExit(ExitUsageError, fmt.Errorf("unknown format %q (expected dot or json)", graphFormatFlag))
	}
}
