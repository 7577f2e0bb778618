package ir

import "fmt"

// VarKind tags a Var as a function local/parameter slot or a freshly
// numbered symbolic value produced by the spec-inference pre-pass.
type VarKind uint8

const (
	VarLocal VarKind = iota
	VarSym
)

// Var is an abstract variable: Local(i) or SymVar(i). Globals are
// represented by SymVar values at fixed indices by convention (see
// GlobalVar).
type Var struct {
	Kind  VarKind `yaml:"kind"`
	Index int     `yaml:"index"`
}

// Local builds a Local(i) variable identifying a parameter or local slot.
func Local(i int) Var { return Var{Kind: VarLocal, Index: i} }

// Sym builds a SymVar(i) variable identifying a symbolic value.
func Sym(i int) Var { return Var{Kind: VarSym, Index: i} }

func (v Var) String() string {
	switch v.Kind {
	case VarLocal:
		return fmt.Sprintf("local(%d)", v.Index)
	case VarSym:
		return fmt.Sprintf("sym(%d)", v.Index)
	default:
		return "var(?)"
	}
}
