package intra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/lattice"
	"github.com/viant/wassail/summary"
	"github.com/viant/wassail/taint"
	"github.com/viant/wassail/taintflow"
	"github.com/viant/wassail/waserr"
)

func emptyModule(nglobals int) *ir.Module {
	return &ir.Module{GlobalTypes: make([]ir.ValueType, nglobals)}
}

func ctxFor(mod *ir.Module, cfg *ir.CFG, funcIdx int) *lattice.Context {
	return &lattice.Context{Module: mod, CFG: cfg, FuncIdx: funcIdx, Resolve: func(int) []int { return nil }}
}

// Scenario 1: straight-line — a single Data block copying local 0 into
// local 1, then returning local 1.
func TestRun_StraightLinePropagatesTaint(t *testing.T) {
	mod := emptyModule(0)
	cfg := &ir.CFG{
		Entry: 0,
		Exit:  1,
		Blocks: map[ir.BlockID]*ir.Block{
			0: {ID: 0, Kind: ir.BlockData, Instrs: []ir.Instr{
				{Label: 0, Op: ir.OpData, Operands: []ir.Var{ir.Local(0)}, Results: []ir.Var{ir.Local(1)}},
			}},
			1: {ID: 1, Kind: ir.BlockControl, Control: ir.Instr{Label: 1, Op: ir.OpReturn, Operands: []ir.Var{ir.Local(1)}}},
		},
		Edges: []ir.Edge{{From: 0, To: 1}},
	}
	tf := taintflow.New(mod, summary.New(mod, summary.SeedBottom, nil))
	eng := New[taint.Map](tf)
	ctx := ctxFor(mod, cfg, 0)

	init := taint.NewBottom().Replace(ir.Local(0), taint.One("arg"))
	bd, id, err := eng.Run(ctx, init)
	require.NoError(t, err)

	final, err := eng.FinalState(ctx, bd)
	require.NoError(t, err)
	assert.Equal(t, taint.One("arg"), final.Get(ir.Sym(0)))

	// §4.5 step 2 / §6: every instruction's (pre, post) pair is recorded
	// alongside the block-level table, keyed by its Label.
	require.Contains(t, id, 0)
	assert.Equal(t, taint.One("arg"), id[0].Before.State.Get(ir.Local(0)))
	assert.Equal(t, taint.One("arg"), id[0].After.State.Get(ir.Local(1)))

	require.Contains(t, id, 1)
	assert.Equal(t, lattice.Simple, id[1].After.Kind)
	assert.Equal(t, taint.One("arg"), id[1].After.State.Get(ir.Sym(0)))
}

// Scenario 2: a br_if splitting into two arms that merge before return;
// the exit's taint must be the join of both arms.
func TestRun_BranchJoinAtMerge(t *testing.T) {
	mod := emptyModule(0)
	cfg := &ir.CFG{
		Entry: 0,
		Exit:  3,
		Blocks: map[ir.BlockID]*ir.Block{
			0: {ID: 0, Kind: ir.BlockControl, Control: ir.Instr{Op: ir.OpBrIf, Operands: []ir.Var{ir.Local(0)}}},
			1: {ID: 1, Kind: ir.BlockData, Instrs: []ir.Instr{
				{Op: ir.OpData, Operands: []ir.Var{ir.Local(1)}, Results: []ir.Var{ir.Local(2)}},
			}},
			2: {ID: 2, Kind: ir.BlockData, Instrs: []ir.Instr{
				{Op: ir.OpData, Operands: []ir.Var{ir.Local(3)}, Results: []ir.Var{ir.Local(2)}},
			}},
			3: {ID: 3, Kind: ir.BlockControl, Control: ir.Instr{Op: ir.OpReturn, Operands: []ir.Var{ir.Local(2)}}},
		},
		Edges: []ir.Edge{
			{From: 0, To: 1, Label: ir.BoolPtr(true)},
			{From: 0, To: 2, Label: ir.BoolPtr(false)},
			{From: 1, To: 3},
			{From: 2, To: 3},
		},
	}
	tf := taintflow.New(mod, summary.New(mod, summary.SeedBottom, nil))
	eng := New[taint.Map](tf)
	ctx := ctxFor(mod, cfg, 0)

	init := taint.NewBottom().
		Replace(ir.Local(1), taint.One("true-arm")).
		Replace(ir.Local(3), taint.One("false-arm"))
	bd, _, err := eng.Run(ctx, init)
	require.NoError(t, err)

	final, err := eng.FinalState(ctx, bd)
	require.NoError(t, err)
	assert.Equal(t, taint.FromSources("true-arm", "false-arm"), final.Get(ir.Sym(0)))
}

// Scenario 3: entry seeds a loop variable, a distinct loop head receives
// both the entry edge and a back edge, and a br_if decides whether to
// iterate again or exit. The engine must reach a fixpoint and terminate.
func TestRun_LoopHeadWidensAndTerminates(t *testing.T) {
	mod := emptyModule(0)
	cfg := &ir.CFG{
		Entry: 0,
		Exit:  3,
		Blocks: map[ir.BlockID]*ir.Block{
			0: {ID: 0, Kind: ir.BlockData, Instrs: []ir.Instr{
				{Op: ir.OpData, Operands: []ir.Var{ir.Local(0)}, Results: []ir.Var{ir.Local(1)}},
			}},
			1: {ID: 1, Kind: ir.BlockData, Instrs: []ir.Instr{
				{Op: ir.OpData, Operands: []ir.Var{ir.Local(1)}, Results: []ir.Var{ir.Local(1)}},
			}},
			2: {ID: 2, Kind: ir.BlockControl, Control: ir.Instr{Op: ir.OpBrIf, Operands: []ir.Var{ir.Local(1)}}},
			3: {ID: 3, Kind: ir.BlockControl, Control: ir.Instr{Op: ir.OpReturn, Operands: []ir.Var{ir.Local(1)}}},
		},
		Edges: []ir.Edge{
			{From: 0, To: 1},
			{From: 1, To: 2},
			{From: 2, To: 1, Label: ir.BoolPtr(true)},
			{From: 2, To: 3, Label: ir.BoolPtr(false)},
		},
		LoopHeads: map[ir.BlockID]bool{1: true},
	}
	tf := taintflow.New(mod, summary.New(mod, summary.SeedBottom, nil))
	eng := New[taint.Map](tf)
	ctx := ctxFor(mod, cfg, 0)

	init := taint.NewBottom().Replace(ir.Local(0), taint.One("seed"))
	bd, _, err := eng.Run(ctx, init)
	require.NoError(t, err)

	final, err := eng.FinalState(ctx, bd)
	require.NoError(t, err)
	assert.Equal(t, taint.One("seed"), final.Get(ir.Sym(0)))
}

func TestCombine_SimpleVsBranchIsFatal(t *testing.T) {
	mod := emptyModule(0)
	tf := taintflow.New(mod, summary.New(mod, summary.SeedBottom, nil))
	eng := New[taint.Map](tf)
	ctx := ctxFor(mod, &ir.CFG{}, 0)

	simple := lattice.SimpleResult(taint.NewBottom())
	branch := lattice.BranchResult(taint.NewBottom(), taint.NewBottom())

	_, err := eng.joinResult(ctx, 0, simple, branch)
	require.Error(t, err)
}

// A fatal condition raised from inside DataInstrTransfer must identify
// the block Run was actually processing when it fired, not a
// hardcoded placeholder (§7).
func TestRun_FatalErrorFromTransferIdentifiesRealBlock(t *testing.T) {
	mod := emptyModule(0)
	cfg := &ir.CFG{
		Entry: 5,
		Exit:  5,
		Blocks: map[ir.BlockID]*ir.Block{
			5: {ID: 5, Kind: ir.BlockData, Instrs: []ir.Instr{
				{Op: ir.OpLoad, MemSize: 1, Results: []ir.Var{ir.Local(0)}},
			}},
		},
	}
	tf := taintflow.New(mod, summary.New(mod, summary.SeedBottom, nil))
	eng := New[taint.Map](tf)
	ctx := ctxFor(mod, cfg, 2)

	_, _, err := eng.Run(ctx, taint.NewBottom())
	require.Error(t, err)
	fe, ok := waserr.As(err)
	require.True(t, ok)
	assert.Equal(t, 5, fe.BlockID)
	assert.Equal(t, 2, fe.FuncIdx)
}
