package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutFlow = `name: checkout
steps:
  - name: login
    curl: curl -X POST https://api.example.com/login -d '{"user":"demo"}'
    extract:
      - path: data.token
        variable: token
  - name: cart
    request:
      url: https://api.example.com/cart
      headers:
        Authorization: Bearer {{token}}
    rules:
      - id: ok
        type: status_code
        config:
          expectedStatus: 200
      - type: response_time
        enabled: false
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFlow(t *testing.T) {
	f, err := LoadFlow(writeFile(t, "checkout.yaml", checkoutFlow))
	require.NoError(t, err)

	assert.Equal(t, "checkout", f.Name)
	require.Len(t, f.Steps, 2)
	assert.Contains(t, f.Steps[0].Curl, "-X POST")
	assert.Equal(t, "token", f.Steps[0].Extract[0].Variable)

	cart := f.Steps[1]
	require.NotNil(t, cart.Request)
	assert.Equal(t, "Bearer {{token}}", cart.Request.Headers["Authorization"])
	require.Len(t, cart.Rules, 2)
	assert.Equal(t, 200, cart.Rules[0].Config["expectedStatus"])
	assert.False(t, cart.Rules[1].IsEnabled())
}

func TestLoadFlow_NameFromFile(t *testing.T) {
	f, err := LoadFlow(writeFile(t, "smoke.yml", "steps:\n  - curl: curl example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "smoke", f.Name)
}

func TestLoadFlow_JSON(t *testing.T) {
	f, err := LoadFlow(writeFile(t, "f.json", `{"name": "j", "steps": [{"curl": "curl example.com", "baseline": true}]}`))
	require.NoError(t, err)
	assert.True(t, f.Steps[0].Baseline)
}

func TestParseFlow_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty document", "", "empty"},
		{"no steps", "name: x\nsteps: []\n", "no steps"},
		{"unknown key", "steps:\n  - curl: curl a.com\n    retries: 3\n", "retries"},
		{"missing request", "steps:\n  - name: nothing\n", "one of curl or request"},
		{"bad rule", "steps:\n  - curl: curl a.com\n    rules:\n      - type: magic\n", "unknown rule type: magic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlow([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRules(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		cfgs, err := ParseRules([]byte("- type: status_code\n- type: field_exists\n  field: id\n"))
		require.NoError(t, err)
		require.Len(t, cfgs, 2)
		assert.Equal(t, rules.TypeFieldExists, cfgs[1].Type)
	})

	t.Run("document", func(t *testing.T) {
		cfgs, err := ParseRules([]byte("rules:\n  - type: response_time\n    config:\n      maxMs: 500\n"))
		require.NoError(t, err)
		require.Len(t, cfgs, 1)
	})

	t.Run("all problems reported", func(t *testing.T) {
		_, err := ParseRules([]byte("- type: field_exists\n- type: nope\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rule 1")
		assert.Contains(t, err.Error(), "rule 2")
	})
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
