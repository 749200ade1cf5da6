package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/export/metrics"
	"github.com/abdul-hamid-achik/hitflow/packages/history"
	"github.com/abdul-hamid-achik/hitflow/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var flowCmd = &cobra.Command{
	Use:   "flow <file|directory>...",
	Short: "Run flows of chained requests",
	Long: `Run the flows defined in .flow.yaml files. Steps run in order; values
extracted from a response are available to later steps as {{name}}.

Examples:
  hitflow flow checkout.flow.yaml
  hitflow flow ./flows/ --output junit --output-file report.xml
  hitflow flow login.flow.yaml --history runs.db --metrics-file hitflow.prom
  hitflow flow ./flows/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: flowCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	flowOutputFlag     string
	flowOutputFileFlag string
	flowTimeoutFlag    string
	flowInsecureFlag   bool
	flowProxyFlag      string
	flowHistoryFlag    string
	flowMetricsFlag    string
	flowBailFlag       bool
	flowWatchFlag      bool
)

func init() {
	flowCmd.Flags().StringVarP(&flowOutputFlag, "output", "o", "", "Output format: console, json, junit, tap, html (env: HITFLOW_OUTPUT)")
	flowCmd.Flags().StringVar(&flowOutputFileFlag, "output-file", getEnvString("HITFLOW_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITFLOW_OUTPUT_FILE)")
	flowCmd.Flags().StringVar(&flowTimeoutFlag, "timeout", "", "Per-request timeout (e.g., 30s, 1m) (env: HITFLOW_TIMEOUT in ms)")
	flowCmd.Flags().BoolVarP(&flowInsecureFlag, "insecure", "k", getEnvBool("HITFLOW_INSECURE", false), "Disable SSL certificate validation (env: HITFLOW_INSECURE)")
	flowCmd.Flags().StringVar(&flowProxyFlag, "proxy", "", "Proxy URL for HTTP requests (env: HITFLOW_PROXY)")
	flowCmd.Flags().StringVar(&flowHistoryFlag, "history", "", "Record runs in this SQLite database (env: HITFLOW_HISTORY)")
	flowCmd.Flags().StringVar(&flowMetricsFlag, "metrics-file", "", "Write Prometheus metrics to this textfile (env: HITFLOW_METRICS_FILE)")
	flowCmd.Flags().BoolVar(&flowBailFlag, "bail", getEnvBool("HITFLOW_BAIL", false), "Stop after the first failed flow (env: HITFLOW_BAIL)")
	flowCmd.Flags().BoolVarP(&flowWatchFlag, "watch", "w", false, "Watch flow files for changes and re-run")
}

// runOptions configures one batch of flow runs.
type runOptions struct {
	format      string
	outputFile  string
	timeout     time.Duration
	insecure    bool
	proxy       string
	historyPath string
	metricsPath string
	bail        bool
}

func flowCommand(cmd *cobra.Command, args []string) error {
	timeout, err := requestTimeout(flowTimeoutFlag)
	if err != nil {
		return err
	}

	opts := runOptions{
		format:      pick(flowOutputFlag, cfg.Output),
		outputFile:  flowOutputFileFlag,
		timeout:     timeout,
		insecure:    flowInsecureFlag,
		proxy:       flowProxyFlag,
		historyPath: pick(flowHistoryFlag, cfg.History),
		metricsPath: pick(flowMetricsFlag, cfg.MetricsFile),
		bail:        flowBailFlag,
	}

	flows, files, err := loadFlows(args)
	if err != nil {
		return err
	}

	runErr := runFlows(cmd, flows, opts)
	if !flowWatchFlag {
		return runErr
	}
	return watch(cmd, args, files, opts)
}

// runFlows executes flows one after another and reports them through the
// selected formatter, history store and metrics textfile.
func runFlows(cmd *cobra.Command, flows []*flow.Flow, opts runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := loggerFor(cmd)

	w, closeOutput, err := openOutput(cmd, opts.outputFile)
	if err != nil {
		return withExit(ExitUsageError, err)
	}
	defer closeOutput()

	formatter, err := output.New(opts.format, w, cfg.GetVerbose(), cfg.GetNoColor())
	if err != nil {
		return withExit(ExitUsageError, err)
	}
	formatter.FormatHeader(version)

	var store *history.Store
	if opts.historyPath != "" {
		store, err = history.Open(opts.historyPath)
		if err != nil {
			return withExit(ExitConfigError, err)
		}
		defer store.Close()
	}

	var recorder *metrics.Recorder
	if opts.metricsPath != "" {
		recorder = metrics.NewRecorder()
	}

	client := newClient(opts.timeout, opts.insecure, opts.proxy)
	runner := flow.NewRunner(client, flow.WithTimeout(opts.timeout), flow.WithLogger(logger))

	start := time.Now()
	var failed []*flow.Result
	for _, f := range flows {
		result := runner.Run(ctx, f)
		formatter.FormatResult(result)

		if recorder != nil {
			recorder.ObserveFlow(result)
		}
		if store != nil {
			if err := store.Save(ctx, result); err != nil {
				logger.Warn("failed to record run", "flow", result.Name, "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to record run: %v\n", err)
			}
		}

		if !result.Success {
			failed = append(failed, result)
			if opts.bail {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(time.Since(start)); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(opts.metricsPath); err != nil {
			return fmt.Errorf("error writing metrics: %w", err)
		}
	}

	return failure(failed, len(flows))
}

// failure turns failed runs into an error whose exit code reflects the
// first step error, or a plain test failure.
func failure(failed []*flow.Result, total int) error {
	if len(failed) == 0 {
		return nil
	}
	code := ExitTestFailure
	for _, r := range failed {
		if r.Error != nil {
			code = exitCode(r.Error)
			break
		}
	}
	if total == 1 {
		if failed[0].Error != nil {
			return withExit(code, failed[0].Error)
		}
		return withExit(code, fmt.Errorf("flow %q failed", failed[0].Name))
	}
	return withExit(code, fmt.Errorf("%d of %d flows failed", len(failed), total))
}

// watch re-runs the flows whenever one of the watched flow files is written.
// It returns when the command context is cancelled.
func watch(cmd *cobra.Command, args, files []string, opts runOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !watchedDirs[path] {
				_ = watcher.Add(path)
				watchedDirs[path] = true
			}
			return nil
		})
	}

	explicit := make(map[string]bool, len(files))
	for _, file := range files {
		explicit[filepath.Clean(file)] = true
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var (
		debounce <-chan time.Time
		changed  string
	)
	for {
		select {
		case <-cmd.Context().Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isFlowFile(event.Name) && !explicit[filepath.Clean(event.Name)] {
				continue
			}
			changed = event.Name
			debounce = time.After(WatchDebounceDelay)

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running flows...\n\n", changed)

			flows, _, err := loadFlows(args)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			} else if err := runFlows(cmd, flows, opts); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

// pick returns flag when set, otherwise the configured value.
func pick(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}
