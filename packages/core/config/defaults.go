package config

const (
	DefaultTimeoutMs    = 30000
	DefaultMaxRedirects = 10
	DefaultOutput       = "console"
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeoutMs,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		Output:          DefaultOutput,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

func defaultValues() map[string]any {
	return map[string]any{
		"timeout":         DefaultTimeoutMs,
		"followRedirects": true,
		"maxRedirects":    DefaultMaxRedirects,
		"validateSSL":     true,
		"rateLimit":       0,
		"output":          DefaultOutput,
		"logLevel":        DefaultLogLevel,
		"logFormat":       DefaultLogFormat,
		"verbose":         false,
		"noColor":         false,
	}
}
