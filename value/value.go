// Package value implements the secondary symbolic-value + memory
// domain (§4.2): a WebAssembly primitive type paired with a source tag
// and explicit Bottom/Top lattice markers, plus an intentionally coarse
// append-only memory log. Unlike package taint, this domain is not
// wired into the summary layer — calls are treated conservatively
// (every result goes straight to Top) since the domain runs
// intra-procedurally only (§4.2, §9).
package value

import "github.com/viant/wassail/ir"

// SourceKind tags where a concrete Val's value originated.
type SourceKind uint8

const (
	SourceNone SourceKind = iota
	SourceArg
	SourceConst
	SourceHeap
	SourceImport
)

// Source identifies a concrete value's origin: an argument index, a
// constant instruction's label, or a heap address.
type Source struct {
	Kind SourceKind
	Addr int
}

// Arg tags a value as function argument i.
func Arg(i int) Source { return Source{Kind: SourceArg, Addr: i} }

// ConstAt tags a value as the constant produced by the instruction at label.
func ConstAt(label int) Source { return Source{Kind: SourceConst, Addr: label} }

// Heap tags a value as originating from heap address addr.
func Heap(addr int) Source { return Source{Kind: SourceHeap, Addr: addr} }

// Lattice is a Val's position in the three-point Bottom/Concrete/Top order.
type Lattice uint8

const (
	LatBottom Lattice = iota
	LatConcrete
	LatTop
)

// Val is one symbolic value: a WebAssembly primitive type, a source
// tag, and a lattice marker.
type Val struct {
	Type ir.ValueType
	Src  Source
	Lat  Lattice
}

// Bottom is the most precise ("never observed") value of type t.
func Bottom(t ir.ValueType) Val { return Val{Type: t, Lat: LatBottom} }

// Top is the least precise ("could be anything") value of type t.
func Top(t ir.ValueType) Val { return Val{Type: t, Lat: LatTop} }

// Concrete is a single known source of type t.
func Concrete(t ir.ValueType, src Source) Val { return Val{Type: t, Src: src, Lat: LatConcrete} }

// Join is the value lattice's least upper bound: Bottom is the
// identity, two different concrete sources collapse to Top, and Top
// absorbs everything.
func (v Val) Join(o Val) Val {
	if v.Lat == LatBottom {
		return o
	}
	if o.Lat == LatBottom {
		return v
	}
	if v.Lat == LatTop || o.Lat == LatTop {
		return Top(v.Type)
	}
	if v.Src == o.Src {
		return v
	}
	return Top(v.Type)
}

// Equal is structural equality (all fields are plain comparable values).
func (v Val) Equal(o Val) bool { return v == o }

// MemEntry is one (address, value) pair in the memory log.
type MemEntry struct {
	Addr int
	Val  Val
}

// Memory is an append-only association list, per §4.2/§9: store
// prepends rather than performing a strong update, and join is plain
// concatenation. This is a known, deliberate imprecision inherited from
// the system this domain models; it is not a bug to "fix" here.
type Memory []MemEntry

// Store prepends a new (addr, v) entry.
func (m Memory) Store(addr int, v Val) Memory {
	out := make(Memory, 0, len(m)+1)
	out = append(out, MemEntry{Addr: addr, Val: v})
	out = append(out, m...)
	return out
}

// Load joins every entry whose address equals addr, or returns Top if
// the address was never stored to.
func (m Memory) Load(addr int, t ir.ValueType) Val {
	out := Bottom(t)
	found := false
	for _, e := range m {
		if e.Addr == addr {
			out = out.Join(e.Val)
			found = true
		}
	}
	if !found {
		return Top(t)
	}
	return out
}

// JoinMemory concatenates two memory logs; this is memory's join
// operator (§4.2) and, by extension, its widening operator too — the
// source system has no stronger memory widening, and preserving its
// semantics (rather than inventing convergence machinery) is the
// documented Non-goal trade-off (§9).
func JoinMemory(a, b Memory) Memory {
	out := make(Memory, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func memEqual(a, b Memory) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Addr != b[i].Addr || !a[i].Val.Equal(b[i].Val) {
			return false
		}
	}
	return true
}

// State is the value domain's abstract state: a Var -> Val mapping
// plus the shared memory log.
type State struct {
	Vars map[ir.Var]Val
	Mem  Memory
}

// NewBottomState is the empty state (no vars, no memory).
func NewBottomState() State { return State{Vars: map[ir.Var]Val{}} }

// Get returns the Val bound to v, or an untyped Bottom if v is unbound.
func (s State) Get(v ir.Var) Val {
	if val, ok := s.Vars[v]; ok {
		return val
	}
	return Val{Lat: LatBottom}
}

// Replace overwrites the binding for v.
func (s State) Replace(v ir.Var, val Val) State {
	out := s.clone()
	out.Vars[v] = val
	return out
}

// Join is the pointwise join of two states' Vars plus memory-log concatenation.
func Join(a, b State) State {
	vars := make(map[ir.Var]Val, len(a.Vars)+len(b.Vars))
	for k, v := range a.Vars {
		vars[k] = v
	}
	for k, v := range b.Vars {
		if existing, ok := vars[k]; ok {
			vars[k] = existing.Join(v)
		} else {
			vars[k] = v
		}
	}
	return State{Vars: vars, Mem: JoinMemory(a.Mem, b.Mem)}
}

// Equal reports whether two states agree on every Var (missing reads as
// untyped Bottom) and have identical memory logs.
func Equal(a, b State) bool {
	for k, v := range a.Vars {
		if !v.Equal(b.Get(k)) {
			return false
		}
	}
	for k, v := range b.Vars {
		if !v.Equal(a.Get(k)) {
			return false
		}
	}
	return memEqual(a.Mem, b.Mem)
}

func (s State) clone() State {
	vars := make(map[ir.Var]Val, len(s.Vars))
	for k, v := range s.Vars {
		vars[k] = v
	}
	return State{Vars: vars, Mem: s.Mem}
}
