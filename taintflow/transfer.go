// Package taintflow wires the taint domain (package taint) into the
// capability interface (package lattice) and the inter-procedural
// summary layer (package summary): it is the concrete Transfer[taint.Map]
// instance package intra and package driver run against.
//
// It is a separate package from taint itself to avoid an import cycle:
// taint is pure domain data (no dependency on lattice or summary), while
// Transfer here needs all three plus the per-run *summary.Table, which
// is owned by the driver and threaded through at construction time
// rather than through lattice.Context (see the doc comment on
// lattice.Context for why).
package taintflow

import (
	"fmt"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/lattice"
	"github.com/viant/wassail/summary"
	"github.com/viant/wassail/taint"
	"github.com/viant/wassail/waserr"
)

// memoryVar is the sentinel Var standing in for "linear memory" as a
// single abstract location in the taint map. Sym(-1) never collides
// with a real global or return SymVar, which are always >= 0.
var memoryVar = ir.Sym(-1)

// Transfer is the taint domain's lattice.Transfer[taint.Map] instance.
// Table is the live, driver-owned summary table consulted (read-only)
// at every call site; it changes between intra runs, never during one.
type Transfer struct {
	Module *ir.Module
	Table  *summary.Table
}

// New builds a Transfer bound to mod and table.
func New(mod *ir.Module, table *summary.Table) *Transfer {
	return &Transfer{Module: mod, Table: table}
}

func (t *Transfer) BottomState(cfg *ir.CFG) taint.Map { return taint.NewBottom() }

func (t *Transfer) JoinState(a, b taint.Map) taint.Map { return taint.Join(a, b) }

func (t *Transfer) WidenState(a, b taint.Map) taint.Map { return taint.Widen(a, b) }

func (t *Transfer) EqualState(a, b taint.Map) bool { return taint.Equal(a, b) }

// InitialState seeds the entry state of a function's own fixpoint: each
// formal parameter starts tainted by its own source label, so a
// parameter-to-return flow is observable the very first time the
// function is analyzed, before any caller ever substitutes real data in.
func (t *Transfer) InitialState(f *ir.Func) taint.Map {
	m := taint.NewBottom()
	for i := range f.ArgTypes {
		m = m.Replace(ir.Local(i), taint.One(taint.Source(fmt.Sprintf("L%d", i))))
	}
	return m
}

// DataInstrTransfer applies one Data-block instruction.
func (t *Transfer) DataInstrTransfer(ctx *lattice.Context, instr *ir.Instr, pre taint.Map) (taint.Map, error) {
	switch instr.Op {
	case ir.OpLoad:
		if instr.MemSize > 0 {
			return pre, waserr.Newf(waserr.UnsupportedMemoryOp, ctx.FuncIdx, int(ctx.BlockID),
				"sub-word load (size %d) is not supported", instr.MemSize)
		}
		return assign(pre, instr.Results, pre.Get(memoryVar)), nil

	case ir.OpStore:
		if instr.MemSize > 0 {
			return pre, waserr.Newf(waserr.UnsupportedMemoryOp, ctx.FuncIdx, int(ctx.BlockID),
				"sub-word store (size %d) is not supported", instr.MemSize)
		}
		incoming := unionOperands(pre, instr.Operands)
		return pre.Replace(memoryVar, pre.Get(memoryVar).Union(incoming)), nil

	case ir.OpCall:
		return t.applyCall(ctx, instr, pre)

	case ir.OpCallIndirect:
		return t.applyCallIndirect(ctx, instr, pre)

	default:
		// OpData, OpLocalGet/Set, OpGlobalGet/Set, OpConst: a generic
		// data-flow instruction. Propagate the union of operand taint to
		// every result; an instruction with no operands (e.g. a constant)
		// yields Bottom results.
		return assign(pre, instr.Results, unionOperands(pre, instr.Operands)), nil
	}
}

// ControlInstrTransfer applies the sole instruction of a Control block.
func (t *Transfer) ControlInstrTransfer(ctx *lattice.Context, instr *ir.Instr, pre taint.Map) (lattice.Result[taint.Map], error) {
	switch instr.Op {
	case ir.OpBrIf:
		// The branch condition's taint does not, by itself, change any
		// variable's taint; both arms inherit the same pre-state.
		return lattice.BranchResult(pre, pre), nil

	case ir.OpReturn:
		retVar := ir.Sym(ctx.Module.NumGlobals())
		out := pre.Replace(retVar, unionOperands(pre, instr.Operands))
		return lattice.SimpleResult(out), nil

	default:
		return lattice.Result[taint.Map]{}, waserr.Newf(waserr.MalformedCFG, ctx.FuncIdx, int(ctx.BlockID),
			"unexpected control instruction op %q", instr.Op)
	}
}

// MergeFlows folds a control-merge block's resolved predecessor states
// by pointwise join; a block with no predecessors (malformed CFG,
// should not occur in a validated module) merges to Bottom.
func (t *Transfer) MergeFlows(ctx *lattice.Context, block *ir.Block, preds []lattice.PredFlow[taint.Map]) taint.Map {
	out := taint.NewBottom()
	for _, p := range preds {
		out = taint.Join(out, p.State)
	}
	return out
}

// applyCall consults the callee's current summary and joins the
// renamed, substituted relation into the caller's pre-state at the
// call's post-point (§4.3).
func (t *Transfer) applyCall(ctx *lattice.Context, instr *ir.Instr, pre taint.Map) (taint.Map, error) {
	callee := t.Table.Get(instr.CalleeFuncIdx)
	if callee == nil {
		return pre, waserr.Newf(waserr.MismatchedCall, ctx.FuncIdx, int(ctx.BlockID),
			"no summary for callee function %d", instr.CalleeFuncIdx)
	}
	applied, err := t.applyOne(ctx, instr, callee, pre)
	if err != nil {
		return pre, err
	}
	return taint.Join(pre, applied), nil
}

// applyCallIndirect resolves the call_indirect's candidate callees via
// ctx.Resolve and joins every candidate's applied summary into the
// caller's state: soundness requires accounting for every function the
// table slot could hold (§4.4, Indirect-call soundness).
func (t *Transfer) applyCallIndirect(ctx *lattice.Context, instr *ir.Instr, pre taint.Map) (taint.Map, error) {
	candidates := ctx.Resolve(instr.CalleeTypeIdx)
	out := pre
	for _, funcIdx := range candidates {
		callee := t.Table.Get(funcIdx)
		if callee == nil {
			return pre, waserr.Newf(waserr.MismatchedCall, ctx.FuncIdx, int(ctx.BlockID),
				"no summary for indirect callee candidate %d", funcIdx)
		}
		applied, err := t.applyOne(ctx, instr, callee, pre)
		if err != nil {
			return pre, err
		}
		out = taint.Join(out, applied)
	}
	return out, nil
}

func (t *Transfer) applyOne(ctx *lattice.Context, instr *ir.Instr, callee *summary.Summary, pre taint.Map) (taint.Map, error) {
	globals := ir.GlobalVars(ctx.Module.NumGlobals())
	var callerRet *ir.Var
	if len(instr.Results) > 0 {
		r := instr.Results[0]
		callerRet = &r
	}
	out, err := summary.Apply(callee, ctx.FuncIdx, instr.Operands, globals, callerRet, pre)
	if fe, ok := waserr.As(err); ok && fe.BlockID < 0 {
		fe.BlockID = int(ctx.BlockID)
	}
	return out, err
}

func unionOperands(pre taint.Map, vars []ir.Var) taint.Set {
	out := taint.Bottom()
	for _, v := range vars {
		out = out.Union(pre.Get(v))
	}
	return out
}

func assign(pre taint.Map, results []ir.Var, s taint.Set) taint.Map {
	out := pre
	for _, r := range results {
		out = out.Replace(r, s)
	}
	return out
}
