package cmd

import (
	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <curl command>",
	Short: "Execute one curl command and judge the response",
	Long: `Execute a single HTTP call written as a curl command line. The response
is judged by the rules in --rules, or by the baseline checks when no rules
file is given. hitflow flags go before the curl command.

Examples:
  hitflow exec curl https://api.example.com/health
  hitflow exec --rules user.rules.yaml curl -X POST api.example.com/users -d '{"name":"ada"}'
  hitflow exec --file request.curl -o json`,
	RunE: execCommand,
}

var (
	execFileFlag       string
	execRulesFlag      string
	execNoBaselineFlag bool
	execOutputFlag     string
	execOutputFileFlag string
	execTimeoutFlag    string
	execInsecureFlag   bool
	execProxyFlag      string
	execHistoryFlag    string
)

func init() {
	execCmd.Flags().StringVarP(&execFileFlag, "file", "f", "", "Read the curl command from a file (- for stdin)")
	execCmd.Flags().StringVarP(&execRulesFlag, "rules", "r", "", "Rules file (YAML or JSON) to judge the response with")
	execCmd.Flags().BoolVar(&execNoBaselineFlag, "no-baseline", false, "Without --rules, only require a 2xx status")
	execCmd.Flags().StringVarP(&execOutputFlag, "output", "o", "", "Output format: console, json, junit, tap, html (env: HITFLOW_OUTPUT)")
	execCmd.Flags().StringVar(&execOutputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	execCmd.Flags().StringVar(&execTimeoutFlag, "timeout", "", "Request timeout (e.g., 30s, 1m)")
	execCmd.Flags().BoolVarP(&execInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	execCmd.Flags().StringVar(&execProxyFlag, "proxy", "", "Proxy URL for HTTP requests (env: HITFLOW_PROXY)")
	execCmd.Flags().StringVar(&execHistoryFlag, "history", "", "Record the run in this SQLite database")

	// everything after the first argument belongs to the curl command
	execCmd.Flags().SetInterspersed(false)
}

func execCommand(cmd *cobra.Command, args []string) error {
	text, err := commandText(cmd, args, execFileFlag)
	if err != nil {
		return err
	}

	ruleCfgs, err := loadRulesFile(execRulesFlag)
	if err != nil {
		return err
	}

	timeout, err := requestTimeout(execTimeoutFlag)
	if err != nil {
		return err
	}

	f := &flow.Flow{
		Name: "exec",
		Steps: []flow.Step{{
			Name:     "request",
			Curl:     text,
			Rules:    ruleCfgs,
			Baseline: len(ruleCfgs) == 0 && !execNoBaselineFlag,
		}},
	}

	return runFlows(cmd, []*flow.Flow{f}, runOptions{
		format:      pick(execOutputFlag, cfg.Output),
		outputFile:  execOutputFileFlag,
		timeout:     timeout,
		insecure:    execInsecureFlag,
		proxy:       execProxyFlag,
		historyPath: execHistoryFlag,
	})
}
