// Package match turns variable-containing terms into trie queries and
// reconstructs variable bindings from the matched byte paths. Match results
// are inherently non-deterministic: every matching boundary returns a set of
// mutually exclusive binding alternatives, never a single answer.
package match

import (
	"errors"

	"triekb/internal/term"
)

// ErrBindingConflict marks the same variable bound to two different values
// within one combination. The conflict discards that one alternative, never
// the whole query.
var ErrBindingConflict = errors.New("match: conflicting values for variable")

type pair struct {
	name string
	val  term.Term
}

// Bindings maps variable names to resolved terms. The zero value is empty.
// Bindings are value types: Bind returns a new Bindings, sharing the old
// pairs.
type Bindings struct {
	pairs []pair
}

// Get returns the term directly bound to name.
func (b Bindings) Get(name string) (term.Term, bool) {
	for _, p := range b.pairs {
		if p.name == name {
			return p.val, true
		}
	}
	return term.Term{}, false
}

// Len returns the number of bound variables.
func (b Bindings) Len() int { return len(b.pairs) }

// Names returns the bound variable names in binding order.
func (b Bindings) Names() []string {
	out := make([]string, len(b.pairs))
	for i, p := range b.pairs {
		out[i] = p.name
	}
	return out
}

// Bind adds name -> val. Binding an already-bound name to a structurally
// different value fails; an identical rebinding is a no-op.
func (b Bindings) Bind(name string, val term.Term, reg *term.GroundedRegistry) (Bindings, bool) {
	if cur, ok := b.Get(name); ok {
		return b, term.Equal(cur, val, reg)
	}
	next := make([]pair, len(b.pairs), len(b.pairs)+1)
	copy(next, b.pairs)
	return Bindings{pairs: append(next, pair{name: name, val: val})}, true
}

// Resolve follows variable-to-variable aliasing chains until it reaches a
// non-variable term or a cycle. A detected cycle resolves to unbound.
func (b Bindings) Resolve(name string, reg *term.GroundedRegistry) (term.Term, bool) {
	visited := map[string]bool{name: true}
	cur := name
	for {
		val, ok := b.Get(cur)
		if !ok {
			return term.Term{}, false
		}
		if val.Kind() != term.KindVariable {
			return val, true
		}
		next := val.Name()
		if visited[next] {
			return term.Term{}, false // alias cycle: unbound
		}
		visited[next] = true
		cur = next
	}
}

// Apply substitutes every resolvable variable in t. Unbound variables are
// left in place.
func (b Bindings) Apply(t term.Term, reg *term.GroundedRegistry) term.Term {
	switch t.Kind() {
	case term.KindVariable:
		if v, ok := b.Resolve(t.Name(), reg); ok {
			return v
		}
		return t
	case term.KindCompound:
		children := t.Children()
		out := make([]term.Term, len(children))
		for i, c := range children {
			out[i] = b.Apply(c, reg)
		}
		return term.Compound(out...)
	}
	return t
}

// Merge combines two binding maps, failing on any variable bound to
// different values in each.
func (b Bindings) Merge(o Bindings, reg *term.GroundedRegistry) (Bindings, bool) {
	out := b
	for _, p := range o.pairs {
		var ok bool
		out, ok = out.Bind(p.name, p.val, reg)
		if !ok {
			return Bindings{}, false
		}
	}
	return out, true
}

// BindingSet is an ordered collection of mutually exclusive binding
// alternatives. The zero value is the empty set (a failed match); Unit() is
// the single-empty-binding set (a trivially successful match).
type BindingSet struct {
	alts []Bindings
}

// Unit returns the set containing one empty binding.
func Unit() BindingSet { return BindingSet{alts: []Bindings{{}}} }

// NewBindingSet builds a set from explicit alternatives.
func NewBindingSet(alts ...Bindings) BindingSet { return BindingSet{alts: alts} }

// IsEmpty reports whether no alternative survived.
func (s BindingSet) IsEmpty() bool { return len(s.alts) == 0 }

// Len returns the number of alternatives.
func (s BindingSet) Len() int { return len(s.alts) }

// Alternatives returns the alternatives in order. Read-only.
func (s BindingSet) Alternatives() []Bindings { return s.alts }

// Product is the conjunction of two match results: the Cartesian product of
// alternatives, with combinations that bind the same variable to conflicting
// values collapsed to no-result.
func (s BindingSet) Product(o BindingSet, reg *term.GroundedRegistry) BindingSet {
	var out []Bindings
	for _, a := range s.alts {
		for _, b := range o.alts {
			if merged, ok := a.Merge(b, reg); ok {
				out = append(out, merged)
			}
		}
	}
	return BindingSet{alts: out}
}

// Union is the disjunction: alternatives from both sets, duplicates dropped.
func (s BindingSet) Union(o BindingSet, reg *term.GroundedRegistry) BindingSet {
	out := make([]Bindings, len(s.alts), len(s.alts)+len(o.alts))
	copy(out, s.alts)
	for _, b := range o.alts {
		dup := false
		for _, a := range out {
			if sameBindings(a, b, reg) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, b)
		}
	}
	return BindingSet{alts: out}
}

func sameBindings(a, b Bindings, reg *term.GroundedRegistry) bool {
	if len(a.pairs) != len(b.pairs) {
		return false
	}
	for _, p := range a.pairs {
		v, ok := b.Get(p.name)
		if !ok || !term.Equal(v, p.val, reg) {
			return false
		}
	}
	return true
}
