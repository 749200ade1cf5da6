package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HITFLOW_TIMEOUT.
const EnvPrefix = "HITFLOW"

// Config represents the hitflow configuration. Timeout is in milliseconds,
// RateLimit in requests per second (0 = unlimited) and History is a SQLite
// path (empty = disabled).
type Config struct {
	Timeout         int               `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"`
	FollowRedirects *bool             `mapstructure:"followRedirects" json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `mapstructure:"maxRedirects" json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `mapstructure:"validateSSL" json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `mapstructure:"proxy" json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
	RateLimit       float64           `mapstructure:"rateLimit" json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
	Output          string            `mapstructure:"output" json:"output,omitempty" yaml:"output,omitempty"`
	History         string            `mapstructure:"history" json:"history,omitempty" yaml:"history,omitempty"`
	MetricsFile     string            `mapstructure:"metricsFile" json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`
	LogLevel        string            `mapstructure:"logLevel" json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat       string            `mapstructure:"logFormat" json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	Verbose         *bool             `mapstructure:"verbose" json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool             `mapstructure:"noColor" json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the request timeout, falling back to the default.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return time.Duration(DefaultTimeoutMs) * time.Millisecond
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".hitflow.yaml",
	".hitflow.yml",
	".hitflow.json",
	"hitflow.config.yaml",
	"hitflow.config.json",
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"timeout":         EnvPrefix + "_TIMEOUT",
	"followRedirects": EnvPrefix + "_FOLLOW_REDIRECTS",
	"maxRedirects":    EnvPrefix + "_MAX_REDIRECTS",
	"validateSSL":     EnvPrefix + "_VALIDATE_SSL",
	"proxy":           EnvPrefix + "_PROXY",
	"rateLimit":       EnvPrefix + "_RATE_LIMIT",
	"output":          EnvPrefix + "_OUTPUT",
	"history":         EnvPrefix + "_HISTORY",
	"metricsFile":     EnvPrefix + "_METRICS_FILE",
	"logLevel":        EnvPrefix + "_LOG_LEVEL",
	"logFormat":       EnvPrefix + "_LOG_FORMAT",
	"verbose":         EnvPrefix + "_VERBOSE",
	"noColor":         EnvPrefix + "_NO_COLOR",
}

// LoadConfig loads configuration from the specified path or searches the
// current directory for a config file. Environment variables override file
// values.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return load(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Defaults plus environment overrides are returned when none exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return load(configPath)
		}
	}
	return load("")
}

func load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			v.SetConfigType("yaml")
		case ".json":
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.History != "" {
		result.History = other.History
	}
	if other.MetricsFile != "" {
		result.MetricsFile = other.MetricsFile
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}
