package taintflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/lattice"
	"github.com/viant/wassail/summary"
	"github.com/viant/wassail/taint"
	"github.com/viant/wassail/waserr"
)

func simpleModule() *ir.Module {
	return &ir.Module{
		Types:       []ir.FunctionType{{Params: []ir.ValueType{ir.I32}, Results: []ir.ValueType{ir.I32}}},
		GlobalTypes: []ir.ValueType{ir.I32},
		Funcs: []ir.Func{
			{Idx: 0, ArgTypes: []ir.ValueType{ir.I32}, ReturnTypes: []ir.ValueType{ir.I32}},
			{Idx: 1, ArgTypes: []ir.ValueType{ir.I32}, ReturnTypes: []ir.ValueType{ir.I32}},
		},
	}
}

func ctxFor(mod *ir.Module, funcIdx int) *lattice.Context {
	return &lattice.Context{
		Module:  mod,
		FuncIdx: funcIdx,
		Resolve: func(int) []int { return nil },
	}
}

func TestDataInstrTransfer_GenericPropagatesUnion(t *testing.T) {
	mod := simpleModule()
	tf := New(mod, summary.New(mod, summary.SeedBottom, nil))
	pre := taint.NewBottom().Replace(ir.Local(0), taint.One("a")).Replace(ir.Local(1), taint.One("b"))

	instr := &ir.Instr{Op: ir.OpData, Operands: []ir.Var{ir.Local(0), ir.Local(1)}, Results: []ir.Var{ir.Local(2)}}
	out, err := tf.DataInstrTransfer(ctxFor(mod, 0), instr, pre)
	require.NoError(t, err)
	assert.Equal(t, taint.FromSources("a", "b"), out.Get(ir.Local(2)))
}

func TestDataInstrTransfer_ConstYieldsBottom(t *testing.T) {
	mod := simpleModule()
	tf := New(mod, summary.New(mod, summary.SeedBottom, nil))
	pre := taint.NewBottom().Replace(ir.Local(0), taint.One("stale"))

	instr := &ir.Instr{Op: ir.OpConst, Results: []ir.Var{ir.Local(0)}}
	out, err := tf.DataInstrTransfer(ctxFor(mod, 0), instr, pre)
	require.NoError(t, err)
	assert.True(t, out.Get(ir.Local(0)).IsBottom())
}

func TestDataInstrTransfer_SubWordMemOpIsFatal(t *testing.T) {
	mod := simpleModule()
	tf := New(mod, summary.New(mod, summary.SeedBottom, nil))

	ctx := ctxFor(mod, 0)
	ctx.BlockID = 4 // set by package intra before a real applyTransfer call
	instr := &ir.Instr{Op: ir.OpLoad, MemSize: 1, Results: []ir.Var{ir.Local(0)}}
	_, err := tf.DataInstrTransfer(ctx, instr, taint.NewBottom())
	require.Error(t, err)
	fe, ok := waserr.As(err)
	require.True(t, ok)
	assert.Equal(t, waserr.UnsupportedMemoryOp, fe.Kind)
	assert.Equal(t, 4, fe.BlockID, "fatal error must identify the active block, not a hardcoded placeholder")
}

func TestDataInstrTransfer_StoreThenLoadRoundTrips(t *testing.T) {
	mod := simpleModule()
	tf := New(mod, summary.New(mod, summary.SeedBottom, nil))
	pre := taint.NewBottom().Replace(ir.Local(0), taint.One("mem-src"))

	store := &ir.Instr{Op: ir.OpStore, Operands: []ir.Var{ir.Local(0)}}
	mid, err := tf.DataInstrTransfer(ctxFor(mod, 0), store, pre)
	require.NoError(t, err)

	load := &ir.Instr{Op: ir.OpLoad, Results: []ir.Var{ir.Local(1)}}
	out, err := tf.DataInstrTransfer(ctxFor(mod, 0), load, mid)
	require.NoError(t, err)
	assert.Equal(t, taint.One("mem-src"), out.Get(ir.Local(1)))
}

func TestControlInstrTransfer_BrIfIsBranchIdentity(t *testing.T) {
	mod := simpleModule()
	tf := New(mod, summary.New(mod, summary.SeedBottom, nil))
	pre := taint.NewBottom().Replace(ir.Local(0), taint.One("c"))

	res, err := tf.ControlInstrTransfer(ctxFor(mod, 0), &ir.Instr{Op: ir.OpBrIf}, pre)
	require.NoError(t, err)
	assert.Equal(t, lattice.Branch, res.Kind)
	assert.True(t, taint.Equal(res.True, pre))
	assert.True(t, taint.Equal(res.False, pre))
}

func TestControlInstrTransfer_ReturnSetsRetVar(t *testing.T) {
	mod := simpleModule()
	tf := New(mod, summary.New(mod, summary.SeedBottom, nil))
	pre := taint.NewBottom().Replace(ir.Local(0), taint.One("arg"))

	res, err := tf.ControlInstrTransfer(ctxFor(mod, 0), &ir.Instr{Op: ir.OpReturn, Operands: []ir.Var{ir.Local(0)}}, pre)
	require.NoError(t, err)
	require.Equal(t, lattice.Simple, res.Kind)
	assert.Equal(t, taint.One("arg"), res.State.Get(ir.Sym(mod.NumGlobals())))
}

func TestApplyCall_JoinsCalleeSummaryIntoCallerState(t *testing.T) {
	mod := simpleModule()
	table := summary.New(mod, summary.SeedBottom, nil)
	// Callee (func 1) summary: its return carries arg 0's source label L0.
	// Apply renames the return key onto the caller's result var; the label
	// itself passes through unchanged.
	table.Set(1, summary.Build(
		mod.Funcs[1].ArgTypes,
		ir.GlobalVars(mod.NumGlobals()),
		ptr(ir.Sym(mod.NumGlobals())),
		taint.NewBottom().Replace(ir.Sym(mod.NumGlobals()), taint.One("L0")),
	))
	tf := New(mod, table)

	pre := taint.NewBottom().Replace(ir.Local(0), taint.One("caller-arg"))
	instr := &ir.Instr{Op: ir.OpCall, CalleeFuncIdx: 1, Operands: []ir.Var{ir.Local(0)}, Results: []ir.Var{ir.Local(1)}}
	out, err := tf.DataInstrTransfer(ctxFor(mod, 0), instr, pre)
	require.NoError(t, err)
	assert.Equal(t, taint.One("L0"), out.Get(ir.Local(1)))
}

func TestApplyCallIndirect_UnionsAllCandidates(t *testing.T) {
	mod := simpleModule()
	table := summary.New(mod, summary.SeedBottom, nil)
	table.Set(0, summary.Build(mod.Funcs[0].ArgTypes, ir.GlobalVars(mod.NumGlobals()), ptr(ir.Sym(mod.NumGlobals())),
		taint.NewBottom().Replace(ir.Sym(mod.NumGlobals()), taint.One("from-0"))))
	table.Set(1, summary.Build(mod.Funcs[1].ArgTypes, ir.GlobalVars(mod.NumGlobals()), ptr(ir.Sym(mod.NumGlobals())),
		taint.NewBottom().Replace(ir.Sym(mod.NumGlobals()), taint.One("from-1"))))
	tf := New(mod, table)

	ctx := ctxFor(mod, 0)
	ctx.Resolve = func(int) []int { return []int{0, 1} }

	instr := &ir.Instr{Op: ir.OpCallIndirect, Operands: []ir.Var{ir.Local(0)}, Results: []ir.Var{ir.Local(1)}}
	out, err := tf.DataInstrTransfer(ctx, instr, taint.NewBottom())
	require.NoError(t, err)
	assert.Equal(t, taint.FromSources("from-0", "from-1"), out.Get(ir.Local(1)))
}

func ptr(v ir.Var) *ir.Var { return &v }
