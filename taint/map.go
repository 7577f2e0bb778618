package taint

import "github.com/viant/wassail/ir"

// Map is the taint domain's abstract state: Var -> Set. Bottom is the
// empty mapping; an absent key reads as Bottom (the empty taint set),
// which keeps Get total without forcing every possible Var to be
// pre-populated.
type Map map[ir.Var]Set

// NewBottom is the empty taint map.
func NewBottom() Map { return Map{} }

// NewTop initializes every key in keys to the universal source set.
func NewTop(keys []ir.Var) Map {
	m := make(Map, len(keys))
	for _, k := range keys {
		m[k] = Top()
	}
	return m
}

// Get returns the taint set for v, or Bottom if v is not a key.
func (m Map) Get(v ir.Var) Set {
	if s, ok := m[v]; ok {
		return s
	}
	return Bottom()
}

// Replace overwrites the set at v.
func (m Map) Replace(v ir.Var, s Set) Map {
	out := m.clone()
	out[v] = s
	return out
}

// RenameKey moves the value at oldVar to newVar, removing oldVar. It is
// a no-op copy when oldVar == newVar, and leaves newVar absent (i.e.
// Bottom on read) when oldVar was not a key.
func (m Map) RenameKey(oldVar, newVar ir.Var) Map {
	if oldVar == newVar {
		return m.clone()
	}
	out := m.clone()
	if v, ok := out[oldVar]; ok {
		out[newVar] = v
		delete(out, oldVar)
	} else {
		delete(out, newVar)
	}
	return out
}

// Restrict keeps only the listed keys.
func (m Map) Restrict(keys []ir.Var) Map {
	keep := make(map[ir.Var]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}
	out := make(Map, len(keep))
	for k, v := range m {
		if _, ok := keep[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Join is pointwise set union over the key union of both maps.
func Join(a, b Map) Map {
	out := make(Map, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = existing.Union(v)
		} else {
			out[k] = v
		}
	}
	return out
}

// Widen is Join: the taint domain has finite height (bounded by the
// number of distinct source labels plus one for Top), so Join alone is
// already a valid widening operator.
func Widen(a, b Map) Map { return Join(a, b) }

// Equal reports whether two taint maps agree on every key present in
// either (a missing key reads as Bottom, so it compares equal to an
// explicit Bottom entry).
func Equal(a, b Map) bool {
	for k, v := range a {
		if !v.Equal(b.Get(k)) {
			return false
		}
	}
	for k, v := range b {
		if !v.Equal(a.Get(k)) {
			return false
		}
	}
	return true
}

func (m Map) clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
