package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/loader"
	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/abdul-hamid-achik/hitflow/packages/http"
	"github.com/abdul-hamid-achik/hitflow/packages/logging"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/spf13/cobra"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func loggerFor(cmd *cobra.Command) *slog.Logger {
	if ctx := cmd.Context(); ctx != nil {
		return logging.FromContext(ctx)
	}
	return slog.Default()
}

// requestTimeout parses a --timeout value, falling back to the config.
func requestTimeout(value string) (time.Duration, error) {
	if value == "" {
		return cfg.TimeoutDuration(), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, withExit(ExitUsageError, fmt.Errorf("invalid timeout value %q (use format like 30s, 1m, 500ms)", value))
	}
	return d, nil
}

// newClient builds the HTTP executor from the loaded config. insecure
// disables certificate checks for every request.
func newClient(timeout time.Duration, insecure bool, proxy string) *http.Client {
	if proxy == "" {
		proxy = cfg.Proxy
	}
	return http.NewClient(
		http.WithTimeout(timeout),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.GetValidateSSL() && !insecure),
		http.WithProxy(proxy),
		http.WithDefaultHeaders(cfg.Headers),
		http.WithRateLimit(cfg.RateLimit),
	)
}

// openOutput returns stdout of cmd, or a created file when path is set.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file: %w", err)
	}
	return f, f.Close, nil
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// commandText returns the curl command given either inline as arguments or
// through --file.
func commandText(cmd *cobra.Command, args []string, file string) (string, error) {
	if file != "" {
		data, err := readInput(cmd, file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", withExit(ExitUsageError, errors.New("a curl command or --file is required"))
	}
	// the shell already split and unquoted the arguments
	return curl.Join(args), nil
}

func loadRulesFile(path string) ([]rules.Config, error) {
	if path == "" {
		return nil, nil
	}
	cfgs, err := loader.LoadRules(path)
	if err != nil {
		return nil, withExit(ExitConfigError, err)
	}
	return cfgs, nil
}

// collectFiles expands directories into the flow files they contain.
// Files named explicitly are taken as they are.
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isFlowFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isFlowFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".flow.yaml") || strings.HasSuffix(name, ".flow.yml") || strings.HasSuffix(name, ".flow.json")
}

// loadFlows loads every file, reporting all parse errors at once.
func loadFlows(args []string) ([]*flow.Flow, []string, error) {
	files, err := collectFiles(args)
	if err != nil {
		return nil, nil, withExit(ExitUsageError, err)
	}
	if len(files) == 0 {
		return nil, nil, withExit(ExitUsageError, errors.New("no .flow.yaml files found"))
	}

	flows := make([]*flow.Flow, 0, len(files))
	var errs []error
	for _, file := range files {
		f, err := loader.LoadFlow(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		flows = append(flows, f)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, nil, withExit(ExitParseError, err)
	}
	return flows, files, nil
}
