package callgraph

import "golang.org/x/tools/container/intsets"

// ComputeSCCs runs Tarjan's algorithm over g (already pruned of import
// nodes via RemoveImports) and returns its strongly connected
// components in topological order: an SCC appears before every SCC it
// has an edge into (§4.4).
//
// Tarjan's classic formulation naturally finishes (pops) a descendant
// component before its ancestor, i.e. it emits components in the
// opposite order — successors before sources. ComputeSCCs reverses
// that raw output once here so every other package can rely on the
// §4.4 ordering guarantee directly instead of re-deriving it.
func ComputeSCCs(g *Graph) [][]int {
	t := &tarjan{
		g:       g,
		index:   make([]int, g.NumNodes),
		lowlink: make([]int, g.NumNodes),
		onStack: &intsets.Sparse{},
		visited: make([]bool, g.NumNodes),
		nextIdx: 1, // 0 is reserved for "unvisited"
	}
	for n := 0; n < g.NumNodes; n++ {
		if !t.visited[n] {
			t.strongConnect(n)
		}
	}
	reverse(t.sccs)
	return t.sccs
}

// Schedule is the analysis order the driver iterates: callees before
// callers, i.e. the SCC list reversed (§4.4). Because ComputeSCCs
// already reversed Tarjan's raw finish order once, Schedule's reversal
// here hands back exactly that raw finish order — callees-first,
// matching the driver's requirement that every non-recursive callee is
// stable before its caller runs.
func Schedule(sccs [][]int) [][]int {
	out := make([][]int, len(sccs))
	copy(out, sccs)
	reverse(out)
	return out
}

func reverse(s [][]int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

type tarjan struct {
	g       *Graph
	index   []int
	lowlink []int
	visited []bool
	onStack *intsets.Sparse
	stack   []int
	nextIdx int
	sccs    [][]int
}

func (t *tarjan) strongConnect(v int) {
	t.index[v] = t.nextIdx
	t.lowlink[v] = t.nextIdx
	t.nextIdx++
	t.visited[v] = true
	t.stack = append(t.stack, v)
	t.onStack.Insert(v)

	for _, w := range t.g.Edges[v] {
		if !t.visited[w] {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack.Has(w) {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var component []int
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack.Remove(w)
			component = append(component, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, component)
	}
}
