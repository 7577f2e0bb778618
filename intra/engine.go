// Package intra implements the intra-procedural worklist fixpoint over
// one CFG (§4.5), generic over any lattice.Transfer instance.
package intra

import (
	"golang.org/x/tools/container/intsets"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/lattice"
	"github.com/viant/wassail/waserr"
)

// BlockEntry is one block's current (In, Out) pair. The zero value is
// Uninitialized on both sides, matching the "allocate ... filled with
// Uninitialized" step of §4.5's initialization.
type BlockEntry[S any] struct {
	In  lattice.Result[S]
	Out lattice.Result[S]
}

// InstrEntry is one instruction's (pre, post) pair, keyed by the
// instruction's Label in the table Run returns alongside block_data —
// §4.5 step 2's "at each instruction, record pre/post in instr_data",
// surfaced for §6's per-instruction annotated-CFG output.
type InstrEntry[S any] struct {
	Before lattice.Result[S]
	After  lattice.Result[S]
}

// Engine runs the worklist fixpoint for a fixed Transfer instance.
type Engine[S any] struct {
	Transfer lattice.Transfer[S]
}

// New builds an Engine bound to t.
func New[S any](t lattice.Transfer[S]) *Engine[S] { return &Engine[S]{Transfer: t} }

// Run executes the fixpoint over ctx.CFG starting from init, returning
// the final per-block (In, Out) table and the per-instruction (Before,
// After) table keyed by each instruction's Label. ctx.FuncIdx is used
// only to annotate fatal errors.
func (e *Engine[S]) Run(ctx *lattice.Context, init S) (map[ir.BlockID]BlockEntry[S], map[int]InstrEntry[S], error) {
	cfg := ctx.CFG
	blockData := make(map[ir.BlockID]BlockEntry[S], len(cfg.Blocks))
	for id := range cfg.Blocks {
		blockData[id] = BlockEntry[S]{}
	}
	instrData := make(map[int]InstrEntry[S])

	worklist := &intsets.Sparse{}
	worklist.Insert(int(cfg.Entry))

	for {
		var minID int
		if !worklist.TakeMin(&minID) {
			break
		}
		blockID := ir.BlockID(minID)
		block, ok := cfg.Blocks[blockID]
		if !ok {
			return nil, nil, waserr.Newf(waserr.MalformedCFG, ctx.FuncIdx, int(blockID), "worklist references unknown block")
		}

		inState, err := e.resolveIn(ctx, cfg, blockID, init, blockData)
		if err != nil {
			return nil, nil, err
		}

		out, err := e.applyTransfer(ctx, block, inState, instrData)
		if err != nil {
			return nil, nil, err
		}

		prev := blockData[blockID]
		if e.compareResult(prev.Out, out) {
			continue
		}

		var newOut lattice.Result[S]
		if cfg.LoopHeads[blockID] {
			joined, jerr := e.joinResult(ctx, blockID, prev.Out, out)
			if jerr != nil {
				return nil, nil, jerr
			}
			newOut, err = e.widenResult(ctx, blockID, prev.Out, joined)
		} else {
			newOut, err = e.joinResult(ctx, blockID, prev.Out, out)
		}
		if err != nil {
			return nil, nil, err
		}

		blockData[blockID] = BlockEntry[S]{In: lattice.SimpleResult(inState), Out: newOut}
		for _, succ := range cfg.Succs(blockID) {
			worklist.Insert(int(succ))
		}
	}

	return blockData, instrData, nil
}

// FinalState extracts the exit block's out-state, joining the two arms
// if it ended as a Branch (§4.5 "Extraction").
func (e *Engine[S]) FinalState(ctx *lattice.Context, blockData map[ir.BlockID]BlockEntry[S]) (S, error) {
	cfg := ctx.CFG
	exit := blockData[cfg.Exit]
	switch exit.Out.Kind {
	case lattice.Simple:
		return exit.Out.State, nil
	case lattice.Branch:
		return e.Transfer.JoinState(exit.Out.True, exit.Out.False), nil
	default:
		var zero S
		return zero, waserr.New(waserr.MalformedCFG, ctx.FuncIdx, int(cfg.Exit), "exit block never reached a fixpoint")
	}
}

// resolveIn computes a block's in-state from its predecessors' current
// out-states, per §4.5 step 1. The entry block is special-cased to init
// directly rather than merged from (generally absent) predecessors.
func (e *Engine[S]) resolveIn(ctx *lattice.Context, cfg *ir.CFG, blockID ir.BlockID, init S, blockData map[ir.BlockID]BlockEntry[S]) (S, error) {
	if blockID == cfg.Entry {
		return init, nil
	}

	preds := cfg.Preds(blockID)
	flows := make([]lattice.PredFlow[S], 0, len(preds))
	for _, edge := range preds {
		predOut := blockData[edge.From].Out
		var s S
		switch predOut.Kind {
		case lattice.Simple:
			s = predOut.State
		case lattice.Branch:
			if edge.Label == nil {
				var zero S
				return zero, waserr.Newf(waserr.MalformedCFG, ctx.FuncIdx, int(blockID),
					"branch predecessor %d reaches block without an edge label", edge.From)
			}
			if *edge.Label {
				s = predOut.True
			} else {
				s = predOut.False
			}
		default: // Uninitialized
			s = e.Transfer.BottomState(cfg)
		}
		flows = append(flows, lattice.PredFlow[S]{PredID: edge.From, State: s})
	}

	block := cfg.Blocks[blockID]
	return e.Transfer.MergeFlows(ctx, block, flows), nil
}

func (e *Engine[S]) applyTransfer(ctx *lattice.Context, block *ir.Block, in S, instrData map[int]InstrEntry[S]) (lattice.Result[S], error) {
	ctx.BlockID = block.ID
	switch block.Kind {
	case ir.BlockData:
		cur := in
		for i := range block.Instrs {
			instr := &block.Instrs[i]
			next, err := e.Transfer.DataInstrTransfer(ctx, instr, cur)
			if err != nil {
				return lattice.Result[S]{}, err
			}
			instrData[instr.Label] = InstrEntry[S]{Before: lattice.SimpleResult(cur), After: lattice.SimpleResult(next)}
			cur = next
		}
		return lattice.SimpleResult(cur), nil

	case ir.BlockControl:
		result, err := e.Transfer.ControlInstrTransfer(ctx, &block.Control, in)
		if err != nil {
			return lattice.Result[S]{}, err
		}
		instrData[block.Control.Label] = InstrEntry[S]{Before: lattice.SimpleResult(in), After: result}
		return result, nil

	case ir.BlockMerge:
		return lattice.SimpleResult(in), nil

	default:
		return lattice.Result[S]{}, waserr.Newf(waserr.MalformedCFG, ctx.FuncIdx, int(block.ID), "unknown block kind %d", block.Kind)
	}
}

// compareResult reports whether two Results are equal under the
// domain's equal_state, implementing §4.5's compare_result.
func (e *Engine[S]) compareResult(a, b lattice.Result[S]) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case lattice.Uninitialized:
		return true
	case lattice.Simple:
		return e.Transfer.EqualState(a.State, b.State)
	case lattice.Branch:
		return e.Transfer.EqualState(a.True, b.True) && e.Transfer.EqualState(a.False, b.False)
	}
	return false
}

// joinResult and widenResult implement §4.5's join_result/widen_result:
// Uninitialized is the identity on both sides; Simple/Branch combine
// componentwise; a Simple/Branch mismatch is fatal.
func (e *Engine[S]) joinResult(ctx *lattice.Context, blockID ir.BlockID, a, b lattice.Result[S]) (lattice.Result[S], error) {
	return e.combine(ctx, blockID, a, b, e.Transfer.JoinState)
}

func (e *Engine[S]) widenResult(ctx *lattice.Context, blockID ir.BlockID, a, b lattice.Result[S]) (lattice.Result[S], error) {
	return e.combine(ctx, blockID, a, b, e.Transfer.WidenState)
}

func (e *Engine[S]) combine(ctx *lattice.Context, blockID ir.BlockID, a, b lattice.Result[S], op func(a, b S) S) (lattice.Result[S], error) {
	if a.Kind == lattice.Uninitialized {
		return b, nil
	}
	if b.Kind == lattice.Uninitialized {
		return a, nil
	}
	if a.Kind != b.Kind {
		return lattice.Result[S]{}, waserr.Newf(waserr.ShapeMismatch, ctx.FuncIdx, int(blockID),
			"cannot combine a Simple result with a Branch result")
	}
	switch a.Kind {
	case lattice.Simple:
		return lattice.SimpleResult(op(a.State, b.State)), nil
	case lattice.Branch:
		return lattice.BranchResult(op(a.True, b.True), op(a.False, b.False)), nil
	}
	return lattice.Result[S]{}, nil
}
