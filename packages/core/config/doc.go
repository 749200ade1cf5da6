// Package config handles configuration loading and management for hitflow.
//
// It provides functionality for:
//   - Loading configuration from .hitflow.yaml, .hitflow.json or
//     hitflow.config.* files
//   - Default configuration values
//   - HITFLOW_* environment variable overrides
package config
