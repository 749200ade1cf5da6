package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded flow runs",
	Long: `Browse the runs recorded with --history (or the history setting in
.hitflow.yaml).

Examples:
  hitflow history list --db runs.db
  hitflow history show 3f2a --db runs.db`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run id>",
	Short: "Print the JSON report of a run (an unambiguous id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var (
	historyDBFlag    string
	historyLimitFlag int
)

var errNoHistory = errors.New("no history database configured (use --db or set history in .hitflow.yaml)")

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDBFlag, "db", "", "History database (env: HITFLOW_HISTORY)")
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", getEnvInt("HITFLOW_HISTORY_LIMIT", 20), "Number of runs to show (env: HITFLOW_HISTORY_LIMIT)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*history.Store, error) {
	path := pick(historyDBFlag, cfg.History)
	if path == "" {
		return nil, withExit(ExitUsageError, errNoHistory)
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, withExit(ExitConfigError, err)
	}
	return store, nil
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, r := range runs {
		status := green("PASS")
		if !r.Success {
			status = red("FAIL")
		}
		fmt.Fprintf(w, "%s  %s  %-24s steps %d/%d  rules %d/%d  %s\n",
			dim(r.ID.String()[:8]),
			status,
			r.Name,
			r.StepsPassed, r.StepsPassed+r.StepsFailed+r.StepsSkipped,
			r.RulesPassed, r.RulesPassed+r.RulesFailed,
			dim(r.StartedAt.Local().Format(time.DateTime)+" "+r.Duration.Round(time.Millisecond).String()),
		)
	}
	return nil
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return withExit(ExitUsageError, err)
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
