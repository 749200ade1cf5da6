// Package cmd implements the hitflow CLI commands using Cobra.
//
// Available commands:
//   - exec: Execute one curl command and judge the response with rules
//   - flow: Run flows of chained requests, optionally in watch mode
//   - parse: Turn curl commands into request descriptors or a flow skeleton
//   - rules: List rule types, validate rule files, evaluate rules offline
//   - fields: List the field paths of a JSON response
//   - graph: Print the variable dependencies of a flow as DOT or JSON
//   - bench: Send one request repeatedly and report latency percentiles
//   - history: Browse runs recorded in the SQLite history
//   - validate: Check flow files without executing them
//   - list: Display the steps of flow files
//   - init: Create a new hitflow project with an example flow
//   - version: Show hitflow version information
//
// Global flags select the config file, log level and format, color and
// verbosity. Errors map to the exit codes in exitcodes.go.
package cmd
