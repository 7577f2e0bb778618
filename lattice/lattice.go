// Package lattice defines the capability set (§4.1) any concrete
// analysis instance must supply: the abstract state type plus the
// handful of operations the intra-procedural fixpoint (package intra)
// and the inter-procedural driver (package driver) need to stay
// generic over it. Two instances are provided: package taintflow (the
// canonical, summary-integrated taint instance) and package value (the
// secondary value/memory instance).
//
// The teacher (viant/linager) expresses a similar idea as the
// AnalyzerPlugin interface (analyzer/option.go) wired in via functional
// options; here the same "capability bundle, no inheritance" shape is
// expressed with a generic interface instead, since the spec text
// explicitly calls for "a capability bundle (trait/interface or a
// struct of function pointers)".
package lattice

import "github.com/viant/wassail/ir"

// ResultKind tags a Result as not-yet-computed, a single state, or a
// true/false pair produced by a conditional control transfer.
type ResultKind uint8

const (
	Uninitialized ResultKind = iota
	Simple
	Branch
)

// Result is one of Uninitialized, Simple(state), or Branch(true, false).
type Result[S any] struct {
	Kind  ResultKind
	State S // valid when Kind == Simple
	True  S // valid when Kind == Branch
	False S // valid when Kind == Branch
}

// SimpleResult wraps a single state.
func SimpleResult[S any](s S) Result[S] { return Result[S]{Kind: Simple, State: s} }

// BranchResult wraps a true/false pair.
func BranchResult[S any](t, f S) Result[S] { return Result[S]{Kind: Branch, True: t, False: f} }

// PredFlow is one predecessor's contribution to a block's in-state,
// already resolved from that predecessor's Result via its edge label.
type PredFlow[S any] struct {
	PredID ir.BlockID
	State  S
}

// Transfer is the capability set an analysis instance supplies. It is
// consulted by package intra's worklist; an instance that models calls
// through summaries (package taintflow) consults the summary table from
// inside DataInstrTransfer at call sites.
type Transfer[S any] interface {
	// BottomState is the most precise starting state for a CFG.
	BottomState(cfg *ir.CFG) S
	// JoinState computes the least upper bound of two states.
	JoinState(a, b S) S
	// WidenState over-approximates Join to force convergence at loop heads.
	WidenState(a, b S) S
	// EqualState reports whether two states are identical under the domain order.
	EqualState(a, b S) bool

	// DataInstrTransfer applies one instruction of a Data block.
	DataInstrTransfer(ctx *Context, instr *ir.Instr, pre S) (S, error)
	// ControlInstrTransfer applies the instruction of a Control block,
	// producing either a single successor state or a true/false split.
	ControlInstrTransfer(ctx *Context, instr *ir.Instr, pre S) (Result[S], error)
	// MergeFlows combines a block's resolved predecessor states at a
	// control-merge point; the default instance just joins them pairwise,
	// but an instance may perform non-join merging logic here.
	MergeFlows(ctx *Context, block *ir.Block, preds []PredFlow[S]) S
}

// Context carries the read-only inputs a transfer needs beyond the
// instruction itself and the pre-state: the module and the current
// function's CFG. It is a plain struct rather than positional
// parameters so adding a new ambient input never breaks every Transfer
// implementation.
//
// The current summary table is deliberately not here: an instance that
// integrates with the inter-procedural layer (package taintflow) holds its
// own reference to the *summary.Table it was built with, since the
// table is a single mutable value owned by the driver across the whole
// run (§5) rather than something that changes per intra-fixpoint call.
type Context struct {
	Module  *ir.Module
	CFG     *ir.CFG
	FuncIdx int

	// BlockID is the block currently being transferred, set by package
	// intra once per applyTransfer call so a Transfer's fatal errors can
	// identify it (§7) without threading it through every method
	// signature. Valid for the duration of one DataInstrTransfer/
	// ControlInstrTransfer call; intra owns ctx for the whole fixpoint
	// and processes one block at a time, so this never races (§5).
	BlockID ir.BlockID

	// Resolve resolves a call_indirect's type index to candidate callee
	// function indices, honoring the configured resolution mode.
	Resolve func(typeIdx int) []int
}
