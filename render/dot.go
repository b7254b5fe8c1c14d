package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/verichains/calltrace/trace"
)

const graphName = "calltrace"

func nodeName(idx int) string {
	return fmt.Sprintf("n%d", idx)
}

func dotLabel(n *trace.CallTraceNode) string {
	t := &n.Trace
	callee := t.Address.Hex()
	if t.Label != "" {
		callee = t.Label + "\n" + t.Address.Hex()
	}
	if t.Kind.IsCreate() {
		return "new " + callee
	}
	label := callee + "\n" + functionName(t)
	if t.Value != nil && t.Value.Sign() > 0 {
		label += fmt.Sprintf("{value: %s}", t.Value)
	}
	if !t.Status.IsOk() {
		label += "\n[" + t.Status.String() + "]"
	}
	return label
}

// DOT returns the arena as a Graphviz digraph, nodes are named n<index> and
// edges carry the call kind and the position of the call in its parent.
func DOT(arena *trace.CallTraceArena) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	nodes := arena.Nodes()
	for i := range nodes {
		n := &nodes[i]
		attrs := map[string]string{
			"shape": "box",
			"label": strconv.Quote(dotLabel(n)),
		}
		if !n.Trace.Success {
			attrs["color"] = "red"
		}
		if err := g.AddNode(graphName, nodeName(n.Idx), attrs); err != nil {
			return "", err
		}
	}
	for i := range nodes {
		n := &nodes[i]
		for pos, child := range n.Children {
			kind := strings.ToLower(nodes[child].Trace.Kind.String())
			attrs := map[string]string{
				"label": strconv.Quote(fmt.Sprintf("%d: %s", pos, kind)),
			}
			if err := g.AddEdge(nodeName(n.Idx), nodeName(child), true, attrs); err != nil {
				return "", err
			}
		}
	}
	return g.String(), nil
}
