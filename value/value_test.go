package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/wassail/ir"
)

func TestVal_JoinIdentityAndCollapse(t *testing.T) {
	bot := Bottom(ir.I32)
	a := Concrete(ir.I32, Arg(0))
	b := Concrete(ir.I32, Arg(1))

	assert.Equal(t, a, bot.Join(a))
	assert.Equal(t, a, a.Join(bot))
	assert.Equal(t, a, a.Join(a))
	assert.Equal(t, Top(ir.I32), a.Join(b))
	assert.Equal(t, Top(ir.I32), a.Join(Top(ir.I32)))
}

func TestMemory_StorePrependsAndLoadJoinsMatches(t *testing.T) {
	var m Memory
	m = m.Store(4, Concrete(ir.I32, Arg(0)))
	m = m.Store(4, Concrete(ir.I32, Arg(1)))

	got := m.Load(4, ir.I32)
	assert.Equal(t, Top(ir.I32), got) // two distinct sources at the same address collapse to Top

	assert.Equal(t, Top(ir.I32), m.Load(99, ir.I32)) // never stored -> Top
}

func TestMemory_JoinIsConcatenation(t *testing.T) {
	var a, b Memory
	a = a.Store(1, Concrete(ir.I32, Arg(0)))
	b = b.Store(2, Concrete(ir.I32, Arg(1)))

	joined := JoinMemory(a, b)
	assert.Len(t, joined, 2)
}

func TestState_JoinAndEqual(t *testing.T) {
	s1 := NewBottomState().Replace(ir.Local(0), Concrete(ir.I32, Arg(0)))
	s2 := NewBottomState().Replace(ir.Local(0), Concrete(ir.I32, Arg(0)))
	assert.True(t, Equal(s1, s2))

	s3 := NewBottomState().Replace(ir.Local(0), Concrete(ir.I32, Arg(1)))
	assert.False(t, Equal(s1, s3))

	joined := Join(s1, s3)
	assert.Equal(t, Top(ir.I32), joined.Get(ir.Local(0)))
}
