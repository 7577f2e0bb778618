// Package taint implements the canonical taint-set domain (§4.2): a
// mapping from abstract Var to a set of taint sources, joined by
// pointwise set union. The Transfer instance that drives the
// intra-procedural fixpoint under it lives in package taintflow. This is
// the only domain wired into the inter-procedural summary layer (package
// summary); the value/memory domain (package value) is secondary and
// runs intra-procedurally only, per §4.2.
package taint

import "sort"

// Source identifies a taint origin: a function argument, an unmodeled
// import's return value, or any other labeled input.
type Source string

// Set is a taint source set with an explicit top marker, so Join stays
// O(1) once a key reaches "tainted by everything" instead of
// accumulating every known label.
type Set struct {
	top     bool
	sources map[Source]struct{}
}

// Bottom is the empty taint set.
func Bottom() Set { return Set{} }

// Top is the universal taint set.
func Top() Set { return Set{top: true} }

// One builds a singleton set for a single source label.
func One(src Source) Set {
	return Set{sources: map[Source]struct{}{src: {}}}
}

// FromSources builds a set from explicit labels.
func FromSources(srcs ...Source) Set {
	if len(srcs) == 0 {
		return Bottom()
	}
	m := make(map[Source]struct{}, len(srcs))
	for _, s := range srcs {
		m[s] = struct{}{}
	}
	return Set{sources: m}
}

// IsTop reports whether this is the universal set.
func (s Set) IsTop() bool { return s.top }

// IsBottom reports whether this set is empty.
func (s Set) IsBottom() bool { return !s.top && len(s.sources) == 0 }

// Union is the join of two taint sets: pointwise set union.
func (s Set) Union(o Set) Set {
	if s.top || o.top {
		return Top()
	}
	if len(s.sources) == 0 {
		return o
	}
	if len(o.sources) == 0 {
		return s
	}
	merged := make(map[Source]struct{}, len(s.sources)+len(o.sources))
	for k := range s.sources {
		merged[k] = struct{}{}
	}
	for k := range o.sources {
		merged[k] = struct{}{}
	}
	return Set{sources: merged}
}

// Equal reports structural equality between two taint sets.
func (s Set) Equal(o Set) bool {
	if s.top != o.top {
		return false
	}
	if s.top {
		return true
	}
	if len(s.sources) != len(o.sources) {
		return false
	}
	for k := range s.sources {
		if _, ok := o.sources[k]; !ok {
			return false
		}
	}
	return true
}

// Labels returns the sorted source labels in this set, or nil (not a
// sentinel "all") if the set is Top — callers that need to render Top
// should check IsTop first.
func (s Set) Labels() []Source {
	if s.top || len(s.sources) == 0 {
		return nil
	}
	out := make([]Source, 0, len(s.sources))
	for k := range s.sources {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
