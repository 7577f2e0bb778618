package value

import (
	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/lattice"
	"github.com/viant/wassail/waserr"
)

// Transfer is the value domain's lattice.Transfer[State] instance. It
// has no configuration of its own: unlike taintflow.Transfer it never
// consults a summary table, since this domain is intra-procedural only.
type Transfer struct{}

// New builds a value domain Transfer.
func New() *Transfer { return &Transfer{} }

func (t *Transfer) BottomState(cfg *ir.CFG) State { return NewBottomState() }

func (t *Transfer) JoinState(a, b State) State { return Join(a, b) }

// WidenState is Join: the Var component has a three-point lattice per
// key (finite height), and the Memory component has no stronger
// widening available in this domain (§9) — concatenation is both its
// join and its widen.
func (t *Transfer) WidenState(a, b State) State { return Join(a, b) }

func (t *Transfer) EqualState(a, b State) bool { return Equal(a, b) }

// InitialState seeds each formal argument with a Concrete value tagged
// by its own argument index.
func (t *Transfer) InitialState(f *ir.Func) State {
	s := NewBottomState()
	for i, ty := range f.ArgTypes {
		s = s.Replace(ir.Local(i), Concrete(ty, Arg(i)))
	}
	return s
}

func (t *Transfer) DataInstrTransfer(ctx *lattice.Context, instr *ir.Instr, pre State) (State, error) {
	switch instr.Op {
	case ir.OpConst:
		v := Concrete(ir.I32, ConstAt(instr.Label))
		return assignAll(pre, instr.Results, v), nil

	case ir.OpLoad:
		if instr.MemSize > 0 {
			return pre, waserr.Newf(waserr.UnsupportedMemoryOp, ctx.FuncIdx, int(ctx.BlockID),
				"sub-word load (size %d) is not supported", instr.MemSize)
		}
		v := pre.Mem.Load(instr.SlotIndex, ir.I32)
		return assignAll(pre, instr.Results, v), nil

	case ir.OpStore:
		if instr.MemSize > 0 {
			return pre, waserr.Newf(waserr.UnsupportedMemoryOp, ctx.FuncIdx, int(ctx.BlockID),
				"sub-word store (size %d) is not supported", instr.MemSize)
		}
		stored := unionOperands(pre, instr.Operands)
		return State{Vars: pre.Vars, Mem: pre.Mem.Store(instr.SlotIndex, stored)}, nil

	case ir.OpCall, ir.OpCallIndirect:
		// Conservative: this domain runs intra-procedurally only, so a
		// call's effect on any result is simply unknown.
		return assignAll(pre, instr.Results, Top(ir.I32)), nil

	default:
		merged := unionOperands(pre, instr.Operands)
		return assignAll(pre, instr.Results, merged), nil
	}
}

func (t *Transfer) ControlInstrTransfer(ctx *lattice.Context, instr *ir.Instr, pre State) (lattice.Result[State], error) {
	switch instr.Op {
	case ir.OpBrIf:
		return lattice.BranchResult(pre, pre), nil

	case ir.OpReturn:
		retVar := ir.Sym(ctx.Module.NumGlobals())
		merged := unionOperands(pre, instr.Operands)
		out := pre.Replace(retVar, merged)
		return lattice.SimpleResult(out), nil

	default:
		return lattice.Result[State]{}, waserr.Newf(waserr.MalformedCFG, ctx.FuncIdx, int(ctx.BlockID),
			"unexpected control instruction op %q", instr.Op)
	}
}

// MergeFlows folds a control-merge block's resolved predecessor states
// by pairwise join.
func (t *Transfer) MergeFlows(ctx *lattice.Context, block *ir.Block, preds []lattice.PredFlow[State]) State {
	out := NewBottomState()
	for _, p := range preds {
		out = Join(out, p.State)
	}
	return out
}

func unionOperands(pre State, vars []ir.Var) Val {
	out := Val{Lat: LatBottom}
	for _, v := range vars {
		out = out.Join(pre.Get(v))
	}
	return out
}

func assignAll(pre State, results []ir.Var, v Val) State {
	out := pre
	for _, r := range results {
		out = out.Replace(r, v)
	}
	return out
}
