package summary

import (
	"fmt"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/taint"
)

// SeedPolicy chooses how defined functions are seeded before the first
// inter-procedural iteration: Bottom for the most precise (iterating
// upward) start, Top for a quick over-approximation.
type SeedPolicy int

const (
	SeedBottom SeedPolicy = iota
	SeedTop
)

// PureImports is the default allow-list of imports known-pure with
// respect to the taint domain: they are seeded Bottom instead of Top,
// and produce no warning.
var PureImports = map[string]bool{
	"fd_write":  true,
	"proc_exit": true,
}

// Table is the total fun_idx -> Summary mapping. Every function,
// imported or defined, has an entry at all times (§3). It is owned
// exclusively by the driver and mutated only between intra runs.
type Table struct {
	entries  map[int]*Summary
	globals  []ir.Var
	warnings []string
}

// New seeds a summary table for mod: imports via of_import (pure
// imports get Bottom, everything else gets Top plus a logged warning),
// defined functions per policy.
func New(mod *ir.Module, policy SeedPolicy, allowlist map[string]bool) *Table {
	if allowlist == nil {
		allowlist = PureImports
	}
	globals := make([]ir.Var, mod.NumGlobals())
	for i := range globals {
		globals[i] = ir.GlobalVar(i)
	}
	t := &Table{entries: make(map[int]*Summary, mod.NumNodes()), globals: globals}

	for _, imp := range mod.ImportedFuncs {
		t.entries[imp.FuncIdx] = ofImport(imp, globals, allowlist)
		if !allowlist[imp.Name] {
			t.warnings = append(t.warnings, fmt.Sprintf("Imported function is not modelled: %s", imp.Name))
		}
	}
	for _, f := range mod.Funcs {
		switch policy {
		case SeedTop:
			t.entries[f.Idx] = top(f, globals)
		default:
			t.entries[f.Idx] = bottom(f, globals)
		}
	}
	return t
}

// Warnings returns the human-readable log lines produced while seeding
// unmodeled imports (§6, §7).
func (t *Table) Warnings() []string { return t.warnings }

// Get returns the current summary for funIdx.
func (t *Table) Get(funIdx int) *Summary { return t.entries[funIdx] }

// Set writes back a new summary for funIdx. Per §5 this must only be
// called between intra-fixpoint runs, never during one.
func (t *Table) Set(funIdx int, s *Summary) { t.entries[funIdx] = s }

// retVarDefined and retVarImport return the conventional return variable
// for a function with the given return types, following the "subtle" numbering
// asymmetry documented in §9: SymVar(nglobals+1) at import boundaries,
// SymVar(len(globals)) for defined functions' bottom/top constructors.
func retVarDefined(nglobals int, returnTypes []ir.ValueType) *ir.Var {
	if len(returnTypes) == 0 {
		return nil
	}
	v := ir.Sym(nglobals)
	return &v
}

func retVarImport(nglobals int, ret *ir.ValueType) *ir.Var {
	if ret == nil {
		return nil
	}
	v := ir.Sym(nglobals + 1)
	return &v
}

func bottom(f ir.Func, globals []ir.Var) *Summary {
	args := make([]ir.Var, len(f.ArgTypes))
	for i := range f.ArgTypes {
		args[i] = ir.Local(i)
	}
	return &Summary{
		Args:        args,
		GlobalsPost: globals,
		Ret:         retVarDefined(len(globals), f.ReturnTypes),
		State:       taint.NewBottom(),
	}
}

func top(f ir.Func, globals []ir.Var) *Summary {
	args := make([]ir.Var, len(f.ArgTypes))
	for i := range f.ArgTypes {
		args[i] = ir.Local(i)
	}
	ret := retVarDefined(len(globals), f.ReturnTypes)
	domain := append(append([]ir.Var{}, globals...), varsOf(ret)...)
	return &Summary{
		Args:        args,
		GlobalsPost: globals,
		Ret:         ret,
		State:       taint.NewTop(domain),
	}
}

// ofImport seeds one imported function's summary: Bottom if it is on
// the allow-list of known-pure imports, Top otherwise (§4.3).
func ofImport(imp ir.Import, globals []ir.Var, allowlist map[string]bool) *Summary {
	args := make([]ir.Var, len(imp.Type.Params))
	for i := range imp.Type.Params {
		args[i] = ir.Local(i)
	}
	var ret *ir.Var
	if len(imp.Type.Results) > 0 {
		ret = retVarImport(len(globals), &imp.Type.Results[0])
	}
	state := taint.NewBottom()
	if !allowlist[imp.Name] {
		domain := append(append([]ir.Var{}, globals...), varsOf(ret)...)
		state = taint.NewTop(domain)
	}
	return &Summary{Args: args, GlobalsPost: globals, Ret: ret, State: state}
}

func varsOf(v *ir.Var) []ir.Var {
	if v == nil {
		return nil
	}
	return []ir.Var{*v}
}
