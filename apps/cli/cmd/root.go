package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdul-hamid-achik/hitflow/packages/core/config"
	"github.com/abdul-hamid-achik/hitflow/packages/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	noColorFlag   bool
	verboseFlag   bool

	// cfg is the merged configuration, available once PersistentPreRunE ran.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "hitflow",
	Short: "Curl commands in, judged responses out.",
	Long: `hitflow executes HTTP calls written as curl command lines, judges the
responses with validation rules and chains calls into flows where values
extracted from one response feed the next request through {{name}}
placeholders.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HITFLOW_CONFIG", ""), "Path to config file (env: HITFLOW_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (env: HITFLOW_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: text, json (env: HITFLOW_LOG_FORMAT)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output (env: HITFLOW_NO_COLOR)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output (env: HITFLOW_VERBOSE)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExit(ExitUsageError, err)
	})

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file and installs the logger. Flags win over file
// and environment values.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExit(ExitConfigError, err)
	}
	cfg = loaded

	if noColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}
	if verboseFlag {
		cfg.Verbose = config.BoolPtr(true)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}
	if cfg.GetNoColor() {
		color.NoColor = true
	}

	logger, err := logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, logger))
	return nil
}
