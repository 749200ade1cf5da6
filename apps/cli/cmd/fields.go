package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields [file|-]",
	Short: "List the field paths of a JSON response",
	Long: `List the dot paths a rule or extraction can reference in a JSON body.
Only the first element of each array is expanded. The body is read from a
file, from stdin, or fetched by executing --curl.

Examples:
  hitflow fields response.json
  hitflow fields --curl 'curl https://api.example.com/users/1' --depth 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: fieldsCommand,
}

var (
	fieldsDepthFlag int
	fieldsCurlFlag  string
	fieldsJSONFlag  bool
)

func init() {
	fieldsCmd.Flags().IntVar(&fieldsDepthFlag, "depth", jsonval.DefaultFieldDepth, "Maximum nesting depth")
	fieldsCmd.Flags().StringVar(&fieldsCurlFlag, "curl", "", "Execute this curl command and list the fields of its response")
	fieldsCmd.Flags().BoolVar(&fieldsJSONFlag, "json", false, "Print the paths as a JSON array")
}

func fieldsCommand(cmd *cobra.Command, args []string) error {
	body, err := fieldsBody(cmd, args)
	if err != nil {
		return err
	}

	paths := rules.ListFields(body, fieldsDepthFlag)
	w := cmd.OutOrStdout()
	if fieldsJSONFlag {
		return json.NewEncoder(w).Encode(paths)
	}
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return nil
}

func fieldsBody(cmd *cobra.Command, args []string) (jsonval.Value, error) {
	if fieldsCurlFlag == "" {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		data, err := readInput(cmd, path)
		if err != nil {
			return nil, withExit(ExitUsageError, err)
		}
		body, err := jsonval.Parse(data)
		if err != nil {
			return nil, withExit(ExitParseError, err)
		}
		return body, nil
	}

	desc, err := curl.Parse(fieldsCurlFlag)
	if err != nil {
		return nil, err
	}
	timeout := cfg.TimeoutDuration()
	resp, err := newClient(timeout, false, "").Execute(cmd.Context(), desc, timeout)
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, withExit(ExitParseError, fmt.Errorf("%s %s returned a non-JSON body (status %d)", desc.Method, desc.URL, resp.StatusCode))
	}
	if !resp.IsSuccess() {
		loggerFor(cmd).Warn("listing fields of a non-2xx response", "status", resp.StatusCode)
	}
	return resp.JSON, nil
}
