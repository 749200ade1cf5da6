package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitflow project",
	Long: `Initialize a new hitflow project in the current directory.

This creates:
  - .hitflow.yaml       - Configuration file
  - example.flow.yaml   - Example flow

Examples:
  hitflow init
  hitflow init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleFlow = `name: example
description: Create a post and read it back
steps:
  - name: create post
    curl: >-
      curl -X POST https://jsonplaceholder.typicode.com/posts
      -H 'Content-Type: application/json'
      -d '{"title": "hitflow", "body": "hello", "userId": 1}'
    extract:
      - path: id
        variable: postId
    rules:
      - type: status_code
        config:
          expectedStatus: 201
      - type: field_exists
        field: id

  - name: read post
    request:
      url: https://jsonplaceholder.typicode.com/posts/1
      headers:
        X-Created-Post: "{{postId}}"
    rules:
      - type: status_code
        config:
          expectedStatus: 200
      - type: field_type
        field: title
        config:
          expectedType: string
      - type: response_time
        config:
          maxMs: 2000
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".hitflow.yaml")
	exampleFile := filepath.Join(cwd, "example.flow.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return withExit(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	configContent := map[string]any{
		"timeout":         30000,
		"followRedirects": true,
		"maxRedirects":    10,
		"validateSSL":     true,
		"output":          "console",
		"history":         ".hitflow/history.db",
		"headers": map[string]string{
			"User-Agent": "hitflow/" + version,
		},
	}

	configYAML, err := yaml.Marshal(configContent)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleFlow), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	if err := os.MkdirAll(filepath.Join(cwd, ".hitflow"), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitflow project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitflow flow example.flow.yaml' to execute the example flow.\n")

	return nil
}
