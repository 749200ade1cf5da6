package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/core/loader"
	"github.com/abdul-hamid-achik/hitflow/packages/graph"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the steps of flow files",
	Long: `List the steps of flows together with the variables each step extracts
and uses.

Examples:
  hitflow list checkout.flow.yaml
  hitflow list ./flows/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	if len(files) == 0 {
		return withExit(ExitUsageError, errors.New("no .flow.yaml files found"))
	}

	w := cmd.OutOrStdout()
	for _, file := range files {
		f, err := loader.LoadFlow(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(w, "\n%s (%s):\n", f.Name, file)
		for _, node := range graph.Build(f).Nodes {
			fmt.Fprintf(w, "  %d. %s\n", node.Index+1, node.Name)
			if len(node.Consumes) > 0 {
				fmt.Fprintf(w, "     uses: %s\n", strings.Join(node.Consumes, ", "))
			}
			if len(node.Produces) > 0 {
				fmt.Fprintf(w, "     extracts: %s\n", strings.Join(node.Produces, ", "))
			}
		}
	}

	return nil
}
