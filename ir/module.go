package ir

// Import describes one imported function.
type Import struct {
	FuncIdx int          `yaml:"funcIdx"`
	Name    string       `yaml:"name"`
	Type    FunctionType `yaml:"type"`
}

// Func describes one defined function. Body is already a CFG; building
// it (and the spec-inference pass that numbers its SymVars) is out of
// scope for this module.
type Func struct {
	Idx         int         `yaml:"idx"`
	ArgTypes    []ValueType `yaml:"argTypes,omitempty"`
	LocalTypes  []ValueType `yaml:"localTypes,omitempty"`
	ReturnTypes []ValueType `yaml:"returnTypes,omitempty"`
	Body        *CFG        `yaml:"body,omitempty"`
}

func (f Func) Type() FunctionType {
	return FunctionType{Params: f.ArgTypes, Results: f.ReturnTypes}
}

// Table is the optional indirect-call table. Element[i] is the function
// index occupying slot i, or -1 if the slot is uninitialized.
type Table struct {
	Elements []int `yaml:"elements"`
}

// Module is the read-only view of a decoded WebAssembly module consumed
// by the core. Everything else about decoding, validating, and building
// CFGs from the raw binary is an external collaborator's job.
type Module struct {
	Types         []FunctionType `yaml:"types,omitempty"`    // raw type section, indexed by type index
	ImportedFuncs []Import       `yaml:"imports,omitempty"`  // ordered list of imported functions
	Funcs         []Func         `yaml:"funcs,omitempty"`    // ordered list of defined functions
	GlobalTypes   []ValueType    `yaml:"globalTypes,omitempty"`
	Table         *Table         `yaml:"table,omitempty"` // nil if the module defines no table
}

// NumImports returns the number of imported functions.
func (m *Module) NumImports() int { return len(m.ImportedFuncs) }

// NumGlobals returns the number of module-level globals.
func (m *Module) NumGlobals() int { return len(m.GlobalTypes) }

// NumNodes is the call graph node count: imports occupy indices
// [0, NumImports), defined functions occupy [NumImports, NumImports+len(Funcs)).
func (m *Module) NumNodes() int { return len(m.ImportedFuncs) + len(m.Funcs) }

// TypeOfFunc returns the function type of the function (imported or
// defined) identified by the global function index.
func (m *Module) TypeOfFunc(funIdx int) (FunctionType, bool) {
	if funIdx < 0 {
		return FunctionType{}, false
	}
	if funIdx < len(m.ImportedFuncs) {
		return m.ImportedFuncs[funIdx].Type, true
	}
	idx := funIdx - len(m.ImportedFuncs)
	if idx >= len(m.Funcs) {
		return FunctionType{}, false
	}
	return m.Funcs[idx].Type(), true
}

// TypeOfType returns the raw function type at the given type index.
func (m *Module) TypeOfType(typeIdx int) (FunctionType, bool) {
	if typeIdx < 0 || typeIdx >= len(m.Types) {
		return FunctionType{}, false
	}
	return m.Types[typeIdx], true
}

// FuncByIdx returns the defined function for a global function index,
// or ok=false if funIdx refers to an import.
func (m *Module) FuncByIdx(funIdx int) (*Func, bool) {
	idx := funIdx - len(m.ImportedFuncs)
	if idx < 0 || idx >= len(m.Funcs) {
		return nil, false
	}
	return &m.Funcs[idx], true
}

// IsImport reports whether funIdx names an imported function.
func (m *Module) IsImport(funIdx int) bool {
	return funIdx >= 0 && funIdx < len(m.ImportedFuncs)
}

// GlobalVar returns the SymVar conventionally assigned to global i.
func GlobalVar(i int) Var { return Sym(i) }

// GlobalVars returns the SymVars for globals 0..n-1, in order.
func GlobalVars(n int) []Var {
	out := make([]Var, n)
	for i := range out {
		out[i] = GlobalVar(i)
	}
	return out
}
