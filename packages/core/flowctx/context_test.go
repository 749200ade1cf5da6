package flowctx

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Basics(t *testing.T) {
	ctx := New()
	assert.False(t, ctx.Has("token"))

	ctx.Set("token", jsonval.String("abc"))
	ctx.Set("nothing", nil)

	v, ok := ctx.Get("token")
	require.True(t, ok)
	assert.Equal(t, jsonval.String("abc"), v)

	v, ok = ctx.Get("nothing")
	require.True(t, ok)
	assert.Equal(t, jsonval.Null{}, v)

	ctx.Merge(map[string]jsonval.Value{"token": jsonval.String("xyz"), "id": jsonval.NewNumber(3)})
	assert.Equal(t, 3, ctx.Len())
	v, _ = ctx.Get("token")
	assert.Equal(t, jsonval.String("xyz"), v)

	ctx.Clear()
	assert.Equal(t, 0, ctx.Len())
}

func TestContext_SnapshotIsImmutable(t *testing.T) {
	ctx := New()
	ctx.Set("a", jsonval.String("1"))

	snap := ctx.Snapshot()
	ctx.Set("a", jsonval.String("2"))
	ctx.Set("b", jsonval.String("3"))

	v, _ := snap.Get("a")
	assert.Equal(t, jsonval.String("1"), v)
	assert.False(t, snap.Has("b"))
	assert.Equal(t, []string{"a"}, snap.Names())
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	ctx := New()
	ctx.Set("b", jsonval.NewNumber(2))
	ctx.Set("a", jsonval.Array{jsonval.Bool(true), jsonval.Null{}})

	data, err := json.Marshal(ctx.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[true,null],"b":2}`, string(data))
	assert.Equal(t, map[string]string{"a": "[true,null]", "b": "2"}, ctx.Snapshot().Strings())
}

func TestInject(t *testing.T) {
	ctx := New()
	ctx.Set("token", jsonval.String("abc123"))
	ctx.Set("id", jsonval.Number{Float: 42, Raw: "42"})
	obj := jsonval.NewObject()
	obj.Set("k", jsonval.String("v"))
	ctx.Set("payload", obj)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no placeholders", "https://api.example.com", "https://api.example.com"},
		{"single", "Bearer {{token}}", "Bearer abc123"},
		{"number", "/users/{{id}}/posts/{{id}}", "/users/42/posts/42"},
		{"object as JSON", `{"data": {{payload}}}`, `{"data": {"k":"v"}}`},
		{"not an identifier", "{{ token }} {{1abc}} {{a-b}}", "{{ token }} {{1abc}} {{a-b}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ctx.Inject(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInject_Unresolved(t *testing.T) {
	ctx := New()
	ctx.Set("known", jsonval.String("x"))

	got, err := ctx.Inject("{{known}}/{{first}}/{{second}}")
	assert.Empty(t, got)

	var unresolved *UnresolvedVariableError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "first", unresolved.Name)
	assert.Equal(t, []string{"first", "second"}, ctx.Missing("{{known}}/{{first}}/{{second}}"))
}

func TestInjectMap(t *testing.T) {
	ctx := New()
	ctx.Set("token", jsonval.String("t"))

	out, err := ctx.InjectMap(map[string]string{"Authorization": "Bearer {{token}}", "Accept": "*/*"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer t", "Accept": "*/*"}, out)

	_, err = ctx.InjectMap(map[string]string{"X": "{{nope}}"})
	assert.Error(t, err)
}

func TestFindVariables(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FindVariables("{{a}} {{b}} {{a}}"))
	assert.Nil(t, FindVariables("plain"))
}

func TestExtract(t *testing.T) {
	body, err := jsonval.Parse([]byte(`{"data": {"token": "abc", "items": [{"id": 9}], "gone": null}}`))
	require.NoError(t, err)

	got := Extract(body, []ExtractionRule{
		{Path: "data.token", Variable: "token"},
		{Path: "data.items.0.id", Variable: "firstId"},
		{Path: "data.gone", Variable: "gone"},
		{Path: "data.missing", Variable: "missing"},
		{Path: "", Variable: "empty"},
	})

	assert.Len(t, got, 3)
	assert.Equal(t, jsonval.String("abc"), got["token"])
	assert.Equal(t, "9", jsonval.Stringify(got["firstId"]))
	assert.Equal(t, jsonval.Null{}, got["gone"])
	assert.NotContains(t, got, "missing")

	assert.Empty(t, Extract(nil, []ExtractionRule{{Path: "a", Variable: "a"}}))
}

func TestExtractionRule_Validate(t *testing.T) {
	assert.NoError(t, ExtractionRule{Path: "data.id", Variable: "user_id"}.Validate())
	assert.Error(t, ExtractionRule{Path: "", Variable: "x"}.Validate())
	assert.Error(t, ExtractionRule{Path: "a", Variable: "9lives"}.Validate())
	assert.Error(t, ExtractionRule{Path: "a", Variable: "has-dash"}.Validate())
}
