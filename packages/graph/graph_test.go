package graph

import (
	"testing"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/awalterschulze/gographviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleFlow() *flow.Flow {
	return &flow.Flow{
		Name: "checkout",
		Steps: []flow.Step{
			{
				Name:    "login",
				Curl:    `curl -X POST https://api.example.com/login -d '{"user":"a"}'`,
				Extract: []flowctx.ExtractionRule{{Path: "token", Variable: "token"}},
			},
			{
				Name: "cart",
				Request: &flow.Template{
					URL:     "https://api.example.com/cart",
					Headers: map[string]string{"Authorization": "Bearer {{token}}"},
				},
				Extract: []flowctx.ExtractionRule{{Path: "id", Variable: "cart_id"}},
			},
			{
				Name: "pay",
				Request: &flow.Template{
					Method:  "POST",
					URL:     "https://api.example.com/cart/{{cart_id}}/pay",
					Headers: map[string]string{"Authorization": "Bearer {{token}}"},
					Body:    strPtr(`{"coupon":"{{coupon}}","cart":"{{cart_id}}"}`),
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	g := Build(sampleFlow())

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, []string{"token"}, g.Nodes[0].Produces)
	assert.Equal(t, []string{"token"}, g.Nodes[1].Consumes)
	assert.Equal(t, []string{"cart_id", "token", "coupon"}, g.Nodes[2].Consumes)

	assert.Equal(t, []Edge{
		{From: 0, To: 1, Variable: "token"},
		{From: 1, To: 2, Variable: "cart_id"},
		{From: 0, To: 2, Variable: "token"},
	}, g.Edges)
	assert.Equal(t, []Unresolved{{Step: 2, Variable: "coupon"}}, g.Unresolved)
}

func TestBuild_LatestProducerWins(t *testing.T) {
	f := &flow.Flow{Steps: []flow.Step{
		{Curl: "curl a.example.com", Extract: []flowctx.ExtractionRule{{Path: "t", Variable: "t"}}},
		{Curl: "curl b.example.com", Extract: []flowctx.ExtractionRule{{Path: "t", Variable: "t"}}},
		{Curl: "curl c.example.com/{{t}}"},
	}}

	g := Build(f)
	assert.Equal(t, []Edge{{From: 1, To: 2, Variable: "t"}}, g.Edges)
	assert.Equal(t, "step 3", g.Nodes[2].Name)
}

func TestBuild_SelfReferenceIsUnresolved(t *testing.T) {
	f := &flow.Flow{Steps: []flow.Step{
		{Curl: "curl a.example.com/{{t}}", Extract: []flowctx.ExtractionRule{{Path: "t", Variable: "t"}}},
	}}

	g := Build(f)
	assert.Empty(t, g.Edges)
	assert.Equal(t, []Unresolved{{Step: 0, Variable: "t"}}, g.Unresolved)
}

func TestDOT(t *testing.T) {
	out, err := Build(sampleFlow()).DOT()
	require.NoError(t, err)

	ast, err := gographviz.ParseString(out)
	require.NoError(t, err)
	parsed := gographviz.NewGraph()
	require.NoError(t, gographviz.Analyse(ast, parsed))

	assert.True(t, parsed.Directed)
	assert.True(t, parsed.IsNode("step1"))
	assert.True(t, parsed.IsNode("step3"))
	assert.True(t, parsed.IsNode("missing_coupon"))

	labels := map[string]bool{}
	for _, e := range parsed.Edges.Edges {
		if label, ok := e.Attrs[gographviz.Label]; ok {
			labels[e.Src+"->"+e.Dst+":"+label] = true
		}
	}
	assert.True(t, labels[`step1->step2:"token"`])
	assert.True(t, labels[`step2->step3:"cart_id"`])
	assert.True(t, labels[`step1->step3:"token"`])

	assert.Equal(t, `"login"`, parsed.Nodes.Lookup["step1"].Attrs[gographviz.Label])
}

func TestDOT_Empty(t *testing.T) {
	out, err := Build(&flow.Flow{}).DOT()
	require.NoError(t, err)
	assert.Contains(t, out, "digraph flow")
}
