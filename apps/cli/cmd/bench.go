package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/abdul-hamid-achik/hitflow/packages/export/metrics"
	"github.com/abdul-hamid-achik/hitflow/packages/stress"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench <curl command>",
	Short: "Send one request repeatedly and report latency and verdicts",
	Long: `Send the same curl request repeatedly at a fixed rate, judge every
response with the rules in --rules (or require 2xx without rules) and report
latency percentiles, status codes and per-rule verdict counts. hitflow
flags go before the curl command.

Examples:
  hitflow bench -d 30s -r 50 curl https://api.example.com/health
  hitflow bench --file search.curl --requests 1000 --concurrency 20
  hitflow bench --rules users.rules.yaml --threshold "p95<200ms,fails<1%" curl api.example.com/users`,
	RunE: benchCommand,
}

var (
	benchFileFlag        string
	benchDurationFlag    time.Duration
	benchRequestsFlag    int
	benchRateFlag        float64
	benchConcurrencyFlag int
	benchTimeoutFlag     string
	benchThresholdFlag   string
	benchRulesFlag       string
	benchInsecureFlag    bool
	benchProxyFlag       string
	benchJSONFlag        bool
	benchMetricsFlag     string
)

func init() {
	defaults := stress.DefaultConfig()

	benchCmd.Flags().StringVarP(&benchFileFlag, "file", "f", "", "Read the curl command from a file (- for stdin)")
	benchCmd.Flags().DurationVarP(&benchDurationFlag, "duration", "d", defaults.Duration, "Run duration (e.g., 30s, 5m); 0 runs until --requests are sent")
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", 0, "Stop after this many requests (0 = no limit)")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", defaults.Rate, "Target requests per second (0 = as fast as concurrency allows)")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", getEnvInt("HITFLOW_CONCURRENCY", defaults.Concurrency), "Maximum requests in flight (env: HITFLOW_CONCURRENCY)")
	benchCmd.Flags().StringVar(&benchTimeoutFlag, "timeout", "", "Per-request timeout (e.g., 5s)")
	benchCmd.Flags().StringVar(&benchThresholdFlag, "threshold", "", "Pass/fail thresholds (e.g., \"p95<200ms,errors<0.1%,rps>50\")")
	benchCmd.Flags().StringVar(&benchRulesFlag, "rules", "", "Rules file to judge every response with")
	benchCmd.Flags().BoolVarP(&benchInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	benchCmd.Flags().StringVar(&benchProxyFlag, "proxy", "", "Proxy URL for HTTP requests")
	benchCmd.Flags().BoolVar(&benchJSONFlag, "json", false, "Output results as JSON")
	benchCmd.Flags().StringVar(&benchMetricsFlag, "metrics-file", "", "Write Prometheus metrics to this textfile")

	// everything after the first argument belongs to the curl command
	benchCmd.Flags().SetInterspersed(false)
}

func benchCommand(cmd *cobra.Command, args []string) error {
	text, err := commandText(cmd, args, benchFileFlag)
	if err != nil {
		return err
	}
	desc, err := curl.Parse(text)
	if err != nil {
		return err
	}

	ruleCfgs, err := loadRulesFile(benchRulesFlag)
	if err != nil {
		return err
	}

	timeout, err := requestTimeout(benchTimeoutFlag)
	if err != nil {
		return err
	}

	config := &stress.Config{
		Duration:    benchDurationFlag,
		Requests:    benchRequestsFlag,
		Rate:        benchRateFlag,
		Concurrency: benchConcurrencyFlag,
		Timeout:     timeout,
	}
	if benchThresholdFlag != "" {
		config.Thresholds, err = stress.ParseThresholds(benchThresholdFlag)
		if err != nil {
			return withExit(ExitUsageError, fmt.Errorf("invalid threshold: %w", err))
		}
	}
	if err := config.Validate(); err != nil {
		return withExit(ExitUsageError, err)
	}

	reporter := stress.NewReporter(
		stress.WithWriter(cmd.OutOrStdout()),
		stress.WithNoColor(cfg.GetNoColor()),
		stress.WithQuiet(benchJSONFlag),
	)
	runner := stress.NewRunner(config, newClient(timeout, benchInsecureFlag, benchProxyFlag),
		stress.WithRules(ruleCfgs),
		stress.WithReporter(reporter),
		stress.WithLogger(loggerFor(cmd)),
	)

	result, err := runner.Run(cmd.Context(), desc)
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	if benchJSONFlag {
		if err := reporter.JSON(result); err != nil {
			return err
		}
	}

	if path := pick(benchMetricsFlag, cfg.MetricsFile); path != "" {
		recorder := metrics.NewRecorder()
		recorder.ObserveBench(desc.Method+" "+desc.URL, result.Summary)
		if err := recorder.WriteTextfile(path); err != nil {
			return fmt.Errorf("error writing metrics: %w", err)
		}
	}

	if !result.Passed {
		return withExit(ExitTestFailure, errors.New("bench thresholds failed"))
	}
	return nil
}
