package match

import (
	"fmt"

	"triekb/internal/encoding"
	"triekb/internal/term"
	"triekb/internal/trie"
)

// Matcher executes patterns against a trie of encoded paths. Matching is
// two-phase: the encoded pattern's fixed prefix gates the trie walk, then
// every surviving path is walked in lockstep with the pattern to extract
// slot values and verify that repeated variables saw identical values.
type Matcher struct {
	Enc encoding.Encoder
}

// Match returns every binding alternative under which pattern is present in
// store. A ground pattern yields the unit set when stored and the empty set
// otherwise.
func (m Matcher) Match(pattern term.Term, store *trie.Trie) (BindingSet, error) {
	pb, names, err := m.Enc.Encode(pattern)
	if err != nil {
		return BindingSet{}, err
	}
	if len(names) == 0 {
		if store.Contains(pb) {
			return Unit(), nil
		}
		return BindingSet{}, nil
	}

	fixed, err := encoding.FixedPrefix(pb)
	if err != nil {
		return BindingSet{}, err
	}

	var alts []Bindings
	var walkErr error
	store.WalkPrefix(fixed, func(path []byte, _ any) bool {
		b, ok, err := m.matchOne(pb, names, path)
		if err != nil {
			walkErr = err
			return false
		}
		if ok {
			alts = append(alts, b)
		}
		return true
	})
	if walkErr != nil {
		return BindingSet{}, walkErr
	}
	return BindingSet{alts: alts}, nil
}

// MatchFirst returns the first binding alternative, if any. Early-exits the
// trie walk; use for existence-style lookups where one answer suffices.
func (m Matcher) MatchFirst(pattern term.Term, store *trie.Trie) (Bindings, bool, error) {
	pb, names, err := m.Enc.Encode(pattern)
	if err != nil {
		return Bindings{}, false, err
	}
	if len(names) == 0 {
		return Bindings{}, store.Contains(pb), nil
	}
	fixed, err := encoding.FixedPrefix(pb)
	if err != nil {
		return Bindings{}, false, err
	}
	var (
		found   Bindings
		matched bool
		walkErr error
	)
	store.WalkPrefix(fixed, func(path []byte, _ any) bool {
		b, ok, err := m.matchOne(pb, names, path)
		if err != nil {
			walkErr = err
			return false
		}
		if ok {
			found, matched = b, true
			return false
		}
		return true
	})
	return found, matched, walkErr
}

// MatchExists reports whether any path matches pattern.
func (m Matcher) MatchExists(pattern term.Term, store *trie.Trie) (bool, error) {
	_, ok, err := m.MatchFirst(pattern, store)
	return ok, err
}

// matchOne runs the lockstep walk for a single stored path and rebuilds the
// bindings, discarding the alternative on any repeated-variable mismatch.
func (m Matcher) matchOne(pb []byte, names []string, path []byte) (Bindings, bool, error) {
	caps, refs, ok, err := encoding.MatchPath(pb, path)
	if err != nil {
		return Bindings{}, false, fmt.Errorf("walk stored path: %w", err)
	}
	if !ok {
		return Bindings{}, false, nil
	}

	slotTerms := make([]term.Term, len(caps))
	for i, c := range caps {
		t, _, err := m.Enc.DecodeSpan(c.Span, c.Base, nil)
		if err != nil {
			return Bindings{}, false, fmt.Errorf("decode captured span: %w", err)
		}
		slotTerms[i] = t
	}
	for _, r := range refs {
		t, _, err := m.Enc.DecodeSpan(r.Span, r.Base, nil)
		if err != nil {
			return Bindings{}, false, fmt.Errorf("decode reference span: %w", err)
		}
		if r.Slot >= len(slotTerms) || !term.Equal(slotTerms[r.Slot], t, m.Enc.Grounded) {
			return Bindings{}, false, nil // unification consistency check failed
		}
	}

	var b Bindings
	for i, name := range names {
		if name == term.Anonymous {
			continue
		}
		var bound bool
		b, bound = b.Bind(name, slotTerms[i], m.Enc.Grounded)
		if !bound {
			return Bindings{}, false, nil
		}
	}
	return b, true, nil
}

// MatchConjunction matches goals left-to-right, threading bindings: each
// goal is instantiated under every alternative accumulated so far and its
// matches are merged in. An alternative no goal can extend is dropped,
// never the whole conjunction.
func (m Matcher) MatchConjunction(goals []term.Term, store *trie.Trie, seed BindingSet) (BindingSet, error) {
	cur := seed
	if cur.IsEmpty() {
		cur = Unit()
	}
	reg := m.Enc.Grounded
	for _, goal := range goals {
		var next []Bindings
		for _, alt := range cur.alts {
			inst := alt.Apply(goal, reg)
			bs, err := m.Match(inst, store)
			if err != nil {
				return BindingSet{}, err
			}
			for _, nb := range bs.alts {
				if merged, ok := alt.Merge(nb, reg); ok {
					next = append(next, merged)
				}
			}
		}
		cur = BindingSet{alts: next}
		if cur.IsEmpty() {
			return cur, nil
		}
	}
	return cur, nil
}
