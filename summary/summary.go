// Package summary implements the per-function summary model (§4.3):
// a caller-visible projection of a function's abstract input/output
// relation, plus the rename-and-apply protocol used to consult it at a
// call site instead of re-descending into the callee.
//
// This mirrors the teacher's (viant/linager) own interprocedural
// approximation in analyzer/analyzer.go: FuncSummary{Params, Returns,
// Flows} captures a function's formal parameter/return identifiers and
// a flow map between them so callers don't need to re-walk the callee.
// Summary{Args, GlobalsPost, Ret, State} is the same idea generalized
// to the taint domain's full relation instead of an index-to-index
// flow map.
package summary

import (
	"fmt"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/taint"
	"github.com/viant/wassail/waserr"
)

// Summary is a function's outward-facing abstract relation: the
// caller-visible Vars at entry (Args) and exit (GlobalsPost, Ret), and
// the taint relation restricted to those Vars.
type Summary struct {
	Args        []ir.Var
	GlobalsPost []ir.Var
	Ret         *ir.Var
	State       taint.Map
}

// Build derives a summary from the intra fixpoint's final state per the
// construction rule in §4.3: restrict the final state to the
// outward-facing projection and record the caller-visible Vars.
func Build(argTypes []ir.ValueType, globalsPost []ir.Var, ret *ir.Var, final taint.Map) *Summary {
	args := make([]ir.Var, len(argTypes))
	for i := range argTypes {
		args[i] = ir.Local(i)
	}
	domain := make([]ir.Var, 0, len(globalsPost)+1)
	domain = append(domain, globalsPost...)
	if ret != nil {
		domain = append(domain, *ret)
	}
	return &Summary{
		Args:        args,
		GlobalsPost: globalsPost,
		Ret:         ret,
		State:       final.Restrict(domain),
	}
}

// Equal compares two summaries' taint relations; Args/GlobalsPost/Ret
// never change across iterations for the same function, only State does.
func Equal(a, b *Summary) bool {
	if (a.Ret == nil) != (b.Ret == nil) {
		return false
	}
	return taint.Equal(a.State, b.State)
}

// Apply performs the three-stage rename-and-substitute protocol (§4.3)
// that projects a callee's summary onto a caller's call site, in order:
// rename the return key, rename each global key, then substitute each
// formal argument's entry with the caller's current taint of the
// actual argument passed. The result is meant to be joined into the
// caller's state at the call's post-point by the caller.
func Apply(s *Summary, funcIdx int, callArgs []ir.Var, callerGlobalsPost []ir.Var, callerRet *ir.Var, callerState taint.Map) (taint.Map, error) {
	if len(callArgs) != len(s.Args) {
		return nil, waserr.Newf(waserr.MismatchedCall, funcIdx, -1,
			"call site supplies %d arguments, summary expects %d", len(callArgs), len(s.Args))
	}
	if len(callerGlobalsPost) != len(s.GlobalsPost) {
		return nil, waserr.Newf(waserr.MismatchedCall, funcIdx, -1,
			"call site globals_post has %d entries, summary expects %d", len(callerGlobalsPost), len(s.GlobalsPost))
	}

	state := s.State

	// 1. rename return key
	switch {
	case s.Ret != nil && callerRet != nil:
		state = state.RenameKey(*s.Ret, *callerRet)
	case s.Ret == nil && callerRet == nil:
		// no-op
	default:
		return nil, waserr.New(waserr.MismatchedCall, funcIdx, -1,
			fmt.Sprintf("callee ret=%v, caller ret=%v", s.Ret, callerRet))
	}

	// 2. rename each global key
	for i, g := range s.GlobalsPost {
		state = state.RenameKey(g, callerGlobalsPost[i])
	}

	// 3. substitute arguments
	for i, a := range s.Args {
		state = state.Replace(a, callerState.Get(callArgs[i]))
	}

	return state, nil
}
