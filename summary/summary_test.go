package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/taint"
)

func TestApply_BottomSummaryAndBottomCallerStateYieldsBottom(t *testing.T) {
	ret := ir.Sym(0)
	s := &Summary{
		Args:        []ir.Var{ir.Local(0)},
		GlobalsPost: nil,
		Ret:         &ret,
		State:       taint.NewBottom(),
	}

	callerRet := ir.Sym(1)
	out, err := Apply(s, 7, []ir.Var{ir.Local(0)}, nil, &callerRet, taint.NewBottom())
	require.NoError(t, err)
	assert.True(t, taint.Equal(taint.NewBottom(), out))
}

func TestBuild_SummaryDomainIsGlobalsPostPlusRet(t *testing.T) {
	ret := ir.Sym(1)
	final := taint.NewBottom().
		Replace(ir.Local(0), taint.One("arg")).
		Replace(ir.Sym(0), taint.One("g")).
		Replace(ret, taint.One("ret"))

	s := Build([]ir.ValueType{ir.I32}, []ir.Var{ir.Sym(0)}, &ret, final)

	assert.True(t, s.State.Get(ir.Local(0)).IsBottom(), "Local(0) must be dropped, only globals_post ∪ {ret} survive restriction")
	assert.Equal(t, taint.One("g"), s.State.Get(ir.Sym(0)))
	assert.Equal(t, taint.One("ret"), s.State.Get(ret))
}

func TestApply_MismatchedArgCountIsFatal(t *testing.T) {
	s := &Summary{Args: []ir.Var{ir.Local(0), ir.Local(1)}, State: taint.NewBottom()}
	_, err := Apply(s, 3, []ir.Var{ir.Local(0)}, nil, nil, taint.NewBottom())
	require.Error(t, err)
}

func TestApply_RenamesReturnAndGlobalKeys(t *testing.T) {
	calleeRet := ir.Sym(0)
	s := &Summary{
		Args:        []ir.Var{ir.Local(0)},
		GlobalsPost: []ir.Var{ir.Sym(1)},
		Ret:         &calleeRet,
		State: taint.NewBottom().
			Replace(calleeRet, taint.One("L0")).
			Replace(ir.Sym(1), taint.One("g")),
	}

	callerRet := ir.Local(5)
	callerGlobalsPost := []ir.Var{ir.Sym(1)}
	out, err := Apply(s, 9, []ir.Var{ir.Local(2)}, callerGlobalsPost, &callerRet, taint.NewBottom())
	require.NoError(t, err)

	assert.Equal(t, taint.One("L0"), out.Get(callerRet))
	assert.Equal(t, taint.One("g"), out.Get(ir.Sym(1)))
}
