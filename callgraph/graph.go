// Package callgraph builds a module's call graph, resolves indirect
// calls, and computes the SCC-based analysis schedule the driver
// iterates (§4.4).
package callgraph

import "github.com/viant/wassail/ir"

// Graph is a call graph over node ids [0, NumNodes): imports occupy
// [0, nimports), defined functions occupy [nimports, NumNodes), exactly
// as ir.Module.NumNodes documents.
type Graph struct {
	NumNodes int
	Edges    map[int][]int // caller -> callees, in discovery order (duplicates allowed)
}

// ResolutionMode chooses how a call_indirect's candidate set is computed.
type ResolutionMode int

const (
	// TableBased enumerates the module's table slots and keeps those
	// whose function's type matches, per §4.4's primary rule.
	TableBased ResolutionMode = iota
	// TypeBased is the conservative upper bound: every function (import
	// or defined) whose type matches, regardless of table membership.
	TypeBased
)

// Build scans every defined function's CFG for Call and CallIndirect
// instructions and emits the corresponding edges.
func Build(mod *ir.Module, mode ResolutionMode) *Graph {
	g := &Graph{NumNodes: mod.NumNodes(), Edges: make(map[int][]int)}
	for _, f := range mod.Funcs {
		if f.Body == nil {
			continue
		}
		for _, b := range f.Body.Blocks {
			for i := range b.Instrs {
				addEdge(g, mod, f.Idx, &b.Instrs[i], mode)
			}
		}
	}
	return g
}

func addEdge(g *Graph, mod *ir.Module, caller int, instr *ir.Instr, mode ResolutionMode) {
	switch instr.Op {
	case ir.OpCall:
		g.Edges[caller] = append(g.Edges[caller], instr.CalleeFuncIdx)
	case ir.OpCallIndirect:
		for _, callee := range ResolveIndirect(mod, instr.CalleeTypeIdx, mode) {
			g.Edges[caller] = append(g.Edges[caller], callee)
		}
	}
}

// ResolveIndirect returns the candidate callee function indices for a
// call_indirect against type index typeIdx, per §4.4's two rules.
func ResolveIndirect(mod *ir.Module, typeIdx int, mode ResolutionMode) []int {
	ty, ok := mod.TypeOfType(typeIdx)
	if !ok {
		return nil
	}
	if mode == TableBased && mod.Table != nil {
		return tableCandidates(mod, ty)
	}
	return typeCandidates(mod, ty)
}

func tableCandidates(mod *ir.Module, ty ir.FunctionType) []int {
	seen := make(map[int]bool)
	var out []int
	for _, funcIdx := range mod.Table.Elements {
		if funcIdx < 0 || seen[funcIdx] {
			continue
		}
		if ft, ok := mod.TypeOfFunc(funcIdx); ok && ft.Equal(ty) {
			out = append(out, funcIdx)
			seen[funcIdx] = true
		}
	}
	return out
}

func typeCandidates(mod *ir.Module, ty ir.FunctionType) []int {
	var out []int
	for funcIdx := 0; funcIdx < mod.NumNodes(); funcIdx++ {
		if ft, ok := mod.TypeOfFunc(funcIdx); ok && ft.Equal(ty) {
			out = append(out, funcIdx)
		}
	}
	return out
}

// RemoveImports drops import nodes and any edge to or from them,
// renumbering the remaining nodes down by nImports (§4.4 "projection").
// Defined functions never call the imports that called them, so only
// defined->import edges are expected to be dropped; an edge from an
// import node (which should not exist) is dropped defensively too.
func RemoveImports(g *Graph, nImports int) *Graph {
	out := &Graph{NumNodes: g.NumNodes - nImports, Edges: make(map[int][]int)}
	for caller, callees := range g.Edges {
		if caller < nImports {
			continue
		}
		newCaller := caller - nImports
		for _, callee := range callees {
			if callee < nImports {
				continue
			}
			out.Edges[newCaller] = append(out.Edges[newCaller], callee-nImports)
		}
	}
	return out
}
