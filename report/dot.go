// Package report implements the two external-interface artifacts named
// by §6: a DOT export of the call graph and a YAML export of an
// annotated CFG, plus a YAML rendering of a summary table. None of
// these feed back into the core; they are read-only views over its
// output, the way the teacher's graph_exporter.go sits beside
// analyzer.Analyzer rather than inside its walk.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/viant/wassail/callgraph"
)

// WriteDOT renders g as a DOT graph: one record-shaped node per
// call-graph node, labeled via name, and one edge statement per
// (caller, callee) pair, exactly as §6 specifies:
//
//	nodeN [shape=record, mlabel="{name}"];
//	nodeS -> nodeD;
func WriteDOT(w io.Writer, g *callgraph.Graph, name func(nodeID int) string) error {
	if _, err := io.WriteString(w, "digraph callgraph {\n"); err != nil {
		return err
	}
	for n := 0; n < g.NumNodes; n++ {
		if _, err := fmt.Fprintf(w, "\tnode%d [shape=record, mlabel=\"{%s}\"];\n", n, name(n)); err != nil {
			return err
		}
	}

	callers := make([]int, 0, len(g.Edges))
	for caller := range g.Edges {
		callers = append(callers, caller)
	}
	sort.Ints(callers)
	for _, caller := range callers {
		for _, callee := range g.Edges[caller] {
			if _, err := fmt.Fprintf(w, "\tnode%d -> node%d;\n", caller, callee); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(w, "}\n")
	return err
}
