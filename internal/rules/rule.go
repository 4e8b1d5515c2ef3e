package rules

import (
	"errors"
	"fmt"

	"triekb/internal/term"
)

// ErrNotARule marks a term that is not an (exec ...) form.
var ErrNotARule = errors.New("rules: term is not an exec form")

// ExecHead is the head symbol marking a rule term.
const ExecHead = "exec"

// goalListHead is the head symbol of antecedent/consequent goal lists.
const goalListHead = ","

// Rule is a parsed (exec <priority> (, antecedents...) (, consequents...))
// term. Source retains the original fact so the rule can be removed from the
// store by the exact term it was asserted as.
type Rule struct {
	Priority   term.Term
	Antecedent []term.Term
	Consequent []term.Term
	Source     term.Term
}

// IsExec reports whether t has the surface shape of a rule, without
// validating its parts.
func IsExec(t term.Term) bool {
	head, ok := t.HeadSymbol()
	return ok && head == ExecHead && t.Arity() == 4
}

// Parse decomposes an exec term into a Rule. The priority must be a
// comparable shape; antecedent and consequent must be (, ...) goal lists.
func Parse(t term.Term) (Rule, error) {
	if !IsExec(t) {
		return Rule{}, fmt.Errorf("%w: %s", ErrNotARule, t)
	}
	c := t.Children()
	prio, ant, cons := c[1], c[2], c[3]
	if err := ValidatePriority(prio); err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", t, err)
	}
	antGoals, err := goalList(ant)
	if err != nil {
		return Rule{}, fmt.Errorf("rule antecedent: %w", err)
	}
	consGoals, err := goalList(cons)
	if err != nil {
		return Rule{}, fmt.Errorf("rule consequent: %w", err)
	}
	return Rule{Priority: prio, Antecedent: antGoals, Consequent: consGoals, Source: t}, nil
}

func goalList(t term.Term) ([]term.Term, error) {
	head, ok := t.HeadSymbol()
	if !ok || head != goalListHead {
		return nil, fmt.Errorf("expected (, ...) goal list, got %s", t)
	}
	return t.Children()[1:], nil
}

// headKey is the index key for a goal: its head symbol and argument count.
// Arity here excludes the head symbol, so (edge a b) keys as edge/2.
type headKey struct {
	head  string
	arity int
}

// shapeOf returns the head key of a fact or goal. Non-compounds and
// variable-headed compounds have no determinable shape.
func shapeOf(t term.Term) (headKey, bool) {
	head, ok := t.HeadSymbol()
	if !ok {
		return headKey{}, false
	}
	return headKey{head: head, arity: t.Arity() - 1}, true
}

// Index groups rules by every fact shape their firing outcome can depend
// on: antecedent goals, plain and exec consequent goals, and the fact
// arguments of (O ...) directives. A rule with any shapeless trigger lives
// in the wildcard bucket and is a candidate for every fact.
type Index struct {
	rules    []Rule
	byHead   map[headKey][]int
	wildcard []int
}

// NewIndex builds an index over rs, preserving rs's order in the candidate
// positions it reports.
func NewIndex(rs []Rule) *Index {
	idx := &Index{rules: rs, byHead: make(map[headKey][]int)}
	for i, r := range rs {
		idx.add(i, r)
	}
	return idx
}

// triggerShapes lists the head keys of every fact that can change r's
// firing outcome. ok is false when any trigger has no determinable shape.
func triggerShapes(r Rule) (shapes []headKey, ok bool) {
	seen := make(map[headKey]bool)
	take := func(t term.Term) bool {
		k, ok := shapeOf(t)
		if !ok {
			return false
		}
		if !seen[k] {
			seen[k] = true
			shapes = append(shapes, k)
		}
		return true
	}
	for _, g := range r.Antecedent {
		if !take(g) {
			return nil, false
		}
	}
	for _, g := range r.Consequent {
		if !isOpForm(g) {
			if !take(g) {
				return nil, false
			}
			continue
		}
		for _, dir := range g.Children()[1:] {
			if dir.Arity() != 2 || !take(dir.Children()[1]) {
				return nil, false
			}
		}
	}
	return shapes, true
}

func (idx *Index) add(i int, r Rule) {
	shapes, ok := triggerShapes(r)
	if !ok {
		idx.wildcard = append(idx.wildcard, i)
		return
	}
	for _, k := range shapes {
		idx.byHead[k] = append(idx.byHead[k], i)
	}
}

// Len returns the number of indexed rules.
func (idx *Index) Len() int { return len(idx.rules) }

// Candidates returns the rules whose firing can be affected by a change to
// the given fact, plus every wildcard rule.
func (idx *Index) Candidates(fact term.Term) []Rule {
	var keyed []int
	if k, ok := shapeOf(fact); ok {
		keyed = idx.byHead[k]
	}
	out := make([]Rule, 0, len(keyed)+len(idx.wildcard))
	for _, i := range keyed {
		out = append(out, idx.rules[i])
	}
	for _, i := range idx.wildcard {
		out = append(out, idx.rules[i])
	}
	return out
}

// Triggered returns the positions (in indexed order) of every rule that is
// a candidate for at least one of the given facts.
func (idx *Index) Triggered(facts []term.Term) map[int]bool {
	out := make(map[int]bool, len(idx.wildcard))
	for _, i := range idx.wildcard {
		out[i] = true
	}
	for _, f := range facts {
		k, ok := shapeOf(f)
		if !ok {
			continue
		}
		for _, i := range idx.byHead[k] {
			out[i] = true
		}
	}
	return out
}
