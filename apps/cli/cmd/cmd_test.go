package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/curl"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default between runs of the shared
// command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","success":true}`)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"token":"abc123","user":{"id":7}}}`)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"unauthorized"}`)
			return
		}
		fmt.Fprintf(w, `{"id":%s,"name":"ada"}`, r.URL.Query().Get("id"))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"explicit", withExit(ExitUsageError, errors.New("bad flag")), ExitUsageError},
		{"timeout", &request.TimeoutError{Method: "GET", URL: "http://x", Err: context.DeadlineExceeded}, ExitNetworkError},
		{"transport", fmt.Errorf("step: %w", &request.TransportError{Method: "GET", URL: "http://x", Err: errors.New("refused")}), ExitNetworkError},
		{"missing url", fmt.Errorf("parse: %w", curl.ErrMissingURL), ExitParseError},
		{"tokenize", &curl.TokenizeError{Pos: 3, Reason: "unterminated quote"}, ExitParseError},
		{"unresolved", &flowctx.UnresolvedVariableError{Name: "token"}, ExitConfigError},
		{"unknown rule", &rules.UnknownRuleTypeError{Type: "nope"}, ExitConfigError},
		{"other", errors.New("rules failed"), ExitTestFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExec_RulesPass(t *testing.T) {
	server := apiServer(t)
	dir := t.TempDir()
	rulesFile := writeFile(t, dir, "health.rules.yaml", `
- type: status_code
  config:
    expectedStatus: 200
- type: field_exists
  field: status
- type: success_flag
  field: success
`)

	out, err := run(t, "exec", "--rules", rulesFile, "-o", "json", "curl", server.URL+"/health")
	require.NoError(t, err)

	var report struct {
		Summary struct {
			Passed int `json:"passed"`
			Failed int `json:"failed"`
		} `json:"summary"`
		Flows []struct {
			Steps []struct {
				Rules []rules.Result `json:"rules"`
			} `json:"steps"`
		} `json:"flows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Summary.Passed)
	require.Len(t, report.Flows, 1)
	require.Len(t, report.Flows[0].Steps, 1)
	assert.Len(t, report.Flows[0].Steps[0].Rules, 3)
}

func TestExec_KeepsShellQuotedArguments(t *testing.T) {
	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	t.Cleanup(server.Close)

	_, err := run(t, "exec", "--no-baseline", "curl", "-H", "Authorization: Bearer abc", "-d", `{"name":"ada"}`, server.URL+"/users")
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, `{"name":"ada"}`, gotBody)
}

func TestExec_Failures(t *testing.T) {
	server := apiServer(t)
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"baseline fails on error body", []string{"curl", server.URL + "/broken"}, ExitTestFailure},
		{"connection refused", []string{"curl", closedURL + "/health"}, ExitNetworkError},
		{"missing header value", []string{"curl", server.URL + "/health", "-H"}, ExitParseError},
		{"no command", nil, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"exec", "--timeout", "2s"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestFlow_ChainsVariablesAndRecords(t *testing.T) {
	server := apiServer(t)
	dir := t.TempDir()
	flowFile := writeFile(t, dir, "login.flow.yaml", fmt.Sprintf(`
name: login
steps:
  - name: login
    curl: curl -X POST %[1]s/login -d '{"user":"ada"}'
    extract:
      - path: data.token
        variable: token
      - path: data.user.id
        variable: userId
  - name: me
    request:
      url: %[1]s/me?id={{userId}}
      headers:
        Authorization: Bearer {{token}}
    rules:
      - type: status_code
      - type: custom_expression
        field: name
        config:
          operator: equals
          expectedValue: ada
`, server.URL))
	db := filepath.Join(dir, "history.db")
	prom := filepath.Join(dir, "hitflow.prom")

	out, err := run(t, "flow", flowFile, "--history", db, "--metrics-file", prom, "-o", "tap")
	require.NoError(t, err)
	assert.Contains(t, out, "ok 1 - login > login")
	assert.Contains(t, out, "ok 2 - login > me")

	metricsText, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), `hitflow_flows_total{flow="login",state="completed"} 1`)

	out, err = run(t, "history", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "login")
	assert.Contains(t, out, "PASS")
}

func TestFlow_FailingStepSkipsRest(t *testing.T) {
	server := apiServer(t)
	dir := t.TempDir()
	flowFile := writeFile(t, dir, "broken.flow.yaml", fmt.Sprintf(`
steps:
  - name: me
    curl: >-
      curl %[1]s/me -H 'Authorization: Bearer {{token}}'
  - name: health
    curl: curl %[1]s/health
`, server.URL))

	out, err := run(t, "flow", flowFile, "-o", "json")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
	assert.Contains(t, out, `"skipReason": "previous step failed"`)
}

func TestFlow_NoFiles(t *testing.T) {
	_, err := run(t, "flow", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestParse_Formats(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "requests.curl", `
# health
curl https://api.example.com/health

curl api.example.com/users \
  -H 'Content-Type: application/json' \
  -d '{"name":"ada"}'
`)

	out, err := run(t, "parse", file)
	require.NoError(t, err)
	var descs []request.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	require.Len(t, descs, 2)
	assert.Equal(t, "GET", descs[0].Method)
	assert.Equal(t, "POST", descs[1].Method)
	assert.Equal(t, "https://api.example.com/users", descs[1].URL)

	out, err = run(t, "parse", file, "--format", "curl")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "curl "))

	out, err = run(t, "parse", file, "--format", "flow")
	require.NoError(t, err)
	assert.Contains(t, out, "name: step 2")
	assert.Contains(t, out, "baseline: true")

	bad := writeFile(t, dir, "bad.curl", "curl -X")
	_, err = run(t, "parse", bad)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
}

func TestRules_Eval(t *testing.T) {
	dir := t.TempDir()
	rulesFile := writeFile(t, dir, "user.rules.yaml", `
rules:
  - id: status
    type: status_code
    config:
      expectedStatus: 201
  - id: fast
    type: response_time
    config:
      maxMs: 100
  - id: name
    type: field_type
    field: user.name
    config:
      expectedType: string
`)
	body := writeFile(t, dir, "body.json", `{"user":{"name":"ada"}}`)

	out, err := run(t, "rules", "eval", rulesFile, "--response", body, "--status", "201", "--elapsed", "40ms")
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed")

	out, err = run(t, "rules", "eval", rulesFile, "--response", body, "--status", "201", "--elapsed", "250ms", "--json")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	var results []rules.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.Equal(t, rules.Fail, results[1].Verdict)
}

func TestRules_Validate(t *testing.T) {
	dir := t.TempDir()
	rulesFile := writeFile(t, dir, "r.yaml", `
- type: field_exists
  field: user.email
`)
	body := writeFile(t, dir, "body.json", `{"user":{"name":"ada"}}`)

	_, err := run(t, "rules", "validate", rulesFile)
	require.NoError(t, err)

	_, err = run(t, "rules", "validate", rulesFile, "--response", body)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))

	unknown := writeFile(t, dir, "unknown.yaml", "- type: nope\n")
	_, err = run(t, "rules", "validate", unknown)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestRules_Types(t *testing.T) {
	out, err := run(t, "rules", "types", "--json")
	require.NoError(t, err)

	var types []rules.TypeInfo
	require.NoError(t, json.Unmarshal([]byte(out), &types))
	assert.Len(t, types, len(rules.Types()))
}

func TestFields(t *testing.T) {
	dir := t.TempDir()
	body := writeFile(t, dir, "body.json", `{"id":1,"items":[{"sku":"a"}],"meta":{"page":2}}`)

	out, err := run(t, "fields", body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "items.0.sku")
	assert.Contains(t, lines, "meta.page")
}

func TestValidateAndGraph(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.flow.yaml", `
steps:
  - name: login
    curl: curl https://api.example.com/login -d x=1
    extract:
      - path: token
        variable: token
  - name: me
    curl: >-
      curl https://api.example.com/me -H 'Authorization: Bearer {{token}}'
`)
	writeFile(t, dir, "bad.flow.yaml", `
steps:
  - name: me
    curl: >-
      curl https://api.example.com/me -H 'Authorization: Bearer {{token}}'
`)

	_, err := run(t, "validate", good)
	require.NoError(t, err)

	_, err = run(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))

	out, err := run(t, "graph", good, "--format", "json")
	require.NoError(t, err)
	var g struct {
		Edges []struct {
			From     int    `json:"from"`
			To       int    `json:"to"`
			Variable string `json:"variable"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "token", g.Edges[0].Variable)

	out, err = run(t, "graph", good)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "digraph"))
}

func TestBench_RequestBudget(t *testing.T) {
	server := apiServer(t)

	out, err := run(t, "bench", "-n", "5", "-d", "0", "-r", "0", "-c", "2", "--json", "curl", server.URL+"/health")
	require.NoError(t, err)

	var report struct {
		Passed   bool `json:"passed"`
		Requests struct {
			Total  int64 `json:"total"`
			Passed int64 `json:"passed"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Passed)
	assert.Equal(t, int64(5), report.Requests.Total)
	assert.Equal(t, int64(5), report.Requests.Passed)

	_, err = run(t, "bench", "-n", "3", "-d", "0", "-r", "0", "--threshold", "fails<1%", "--json", "curl", server.URL+"/broken")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = run(t, "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".hitflow.yaml"))
	assert.FileExists(t, filepath.Join(dir, "example.flow.yaml"))

	_, err = run(t, "validate", "example.flow.yaml")
	require.NoError(t, err)

	_, err = run(t, "init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}
