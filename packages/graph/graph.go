// Package graph derives the data dependencies of a flow: which step extracts
// each variable and which later steps consume it. The result can be rendered
// as Graphviz DOT.
package graph

import (
	"fmt"
	"strconv"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/awalterschulze/gographviz"
)

// Node is one step.
type Node struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	Produces []string `json:"produces,omitempty"`
	Consumes []string `json:"consumes,omitempty"`
}

// Edge links the step that extracts Variable to a later step that uses it.
type Edge struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Variable string `json:"variable"`
}

// Unresolved is a placeholder no earlier step extracts. Such a flow fails at
// that step unless the variable is seeded some other way.
type Unresolved struct {
	Step     int    `json:"step"`
	Variable string `json:"variable"`
}

// Graph is the dependency graph of one flow.
type Graph struct {
	Name       string       `json:"name"`
	Nodes      []Node       `json:"nodes"`
	Edges      []Edge       `json:"edges"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
}

// Build analyses f. When several earlier steps extract the same variable the
// edge comes from the latest one, matching the overwrite order at run time.
func Build(f *flow.Flow) *Graph {
	g := &Graph{Name: f.Name, Nodes: make([]Node, 0, len(f.Steps)), Edges: make([]Edge, 0)}
	producer := make(map[string]int)

	for i, step := range f.Steps {
		node := Node{Index: i, Name: step.DisplayName(i)}

		seen := make(map[string]bool)
		for _, text := range step.Source() {
			for _, name := range flowctx.FindVariables(text) {
				if seen[name] {
					continue
				}
				seen[name] = true
				node.Consumes = append(node.Consumes, name)

				if from, ok := producer[name]; ok {
					g.Edges = append(g.Edges, Edge{From: from, To: i, Variable: name})
				} else {
					g.Unresolved = append(g.Unresolved, Unresolved{Step: i, Variable: name})
				}
			}
		}

		for _, x := range step.Extract {
			node.Produces = append(node.Produces, x.Variable)
			producer[x.Variable] = i
		}

		g.Nodes = append(g.Nodes, node)
	}

	return g
}

func nodeID(index int) string {
	return "step" + strconv.Itoa(index+1)
}

// DOT renders the graph in Graphviz DOT. Steps run top to bottom along
// dotted order edges; solid edges carry variables.
func (g *Graph) DOT() (string, error) {
	dot := gographviz.NewGraph()
	if err := dot.SetName("flow"); err != nil {
		return "", err
	}
	if err := dot.SetDir(true); err != nil {
		return "", err
	}
	if g.Name != "" {
		if err := dot.AddAttr("flow", "label", strconv.Quote(g.Name)); err != nil {
			return "", err
		}
	}
	if err := dot.AddAttr("flow", "rankdir", "TB"); err != nil {
		return "", err
	}

	for _, n := range g.Nodes {
		attrs := map[string]string{
			"label": strconv.Quote(n.Name),
			"shape": "box",
		}
		if err := dot.AddNode("flow", nodeID(n.Index), attrs); err != nil {
			return "", fmt.Errorf("node %s: %w", n.Name, err)
		}
	}

	for i := 1; i < len(g.Nodes); i++ {
		attrs := map[string]string{"style": "dotted", "arrowhead": "none"}
		if err := dot.AddEdge(nodeID(i-1), nodeID(i), true, attrs); err != nil {
			return "", err
		}
	}

	for _, e := range g.Edges {
		attrs := map[string]string{"label": strconv.Quote(e.Variable)}
		if err := dot.AddEdge(nodeID(e.From), nodeID(e.To), true, attrs); err != nil {
			return "", fmt.Errorf("edge %s: %w", e.Variable, err)
		}
	}

	for _, u := range g.Unresolved {
		id := "missing_" + u.Variable
		if !dot.IsNode(id) {
			attrs := map[string]string{
				"label": strconv.Quote(u.Variable),
				"shape": "ellipse",
				"color": "red",
			}
			if err := dot.AddNode("flow", id, attrs); err != nil {
				return "", err
			}
		}
		attrs := map[string]string{"style": "dashed", "color": "red"}
		if err := dot.AddEdge(id, nodeID(u.Step), true, attrs); err != nil {
			return "", err
		}
	}

	return dot.String(), nil
}
