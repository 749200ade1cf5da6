package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/hitflow/packages/core/loader"
	"github.com/abdul-hamid-achik/hitflow/packages/graph"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate flow files without executing them",
	Long: `Validate flow files without executing them. Besides structure, rules and
extraction names, every {{name}} placeholder must be extracted by an earlier
step.

Examples:
  hitflow validate checkout.flow.yaml
  hitflow validate ./flows/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	if len(files) == 0 {
		return withExit(ExitUsageError, errors.New("no .flow.yaml files found"))
	}

	hasErrors := false
	for _, file := range files {
		f, err := loader.LoadFlow(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		g := graph.Build(f)
		if len(g.Unresolved) > 0 {
			for _, u := range g.Unresolved {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %s: {{%s}} is not extracted by an earlier step\n",
					file, g.Nodes[u.Step].Name, u.Variable)
			}
			hasErrors = true
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if hasErrors {
		return withExit(ExitParseError, errors.New("validation failed"))
	}

	return nil
}
