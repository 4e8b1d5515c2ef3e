package rules

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"triekb/internal/match"
	"triekb/internal/term"
)

// Store is the fact-store surface the evaluator drives. Rules are ordinary
// facts in the same store, so rule collection is just a pattern match.
type Store interface {
	// Add inserts a fact, reporting whether it was newly present.
	Add(t term.Term) (bool, error)
	// Remove deletes a fact, reporting whether it was present.
	Remove(t term.Term) (bool, error)
	// Match returns every binding alternative for pattern.
	Match(pattern term.Term) (match.BindingSet, error)
	// MatchFirst returns one alternative, early-exiting the walk.
	MatchFirst(pattern term.Term) (match.Bindings, bool, error)
	// MatchConjunction threads bindings left-to-right across goals.
	MatchConjunction(goals []term.Term, seed match.BindingSet) (match.BindingSet, error)
	// Len returns the number of stored facts.
	Len() int
}

// Result reports the outcome of a fixed-point run. Non-convergence at the
// iteration cap is a normal outcome, not an error.
type Result struct {
	Converged  bool
	Iterations int
	FactsAdded int
}

// opHead marks an explicit-operation consequent goal: (O (+ f) (- g) ...).
const opHead = "O"

// Evaluator runs priority-ordered rules to a fixed point. A nil Log is
// replaced by a no-op logger. The loop is single-threaded; concurrency is
// the store's concern.
type Evaluator struct {
	Store Store
	Log   *zap.Logger
}

// NewEvaluator wires an evaluator over store.
func NewEvaluator(store Store, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{Store: store, Log: log}
}

// rulePattern matches any stored exec fact; the three variables capture the
// priority, antecedent, and consequent subterms whole.
func rulePattern() term.Term {
	return term.Compound(term.Symbol(ExecHead), term.Var("$p"), term.Var("$a"), term.Var("$c"))
}

// CollectRules matches every exec fact in the store, parses it, and returns
// the survivors sorted by ascending priority. Malformed rules are logged
// and skipped, never fatal.
func (e *Evaluator) CollectRules() ([]Rule, error) {
	bs, err := e.Store.Match(rulePattern())
	if err != nil {
		return nil, fmt.Errorf("collect rules: %w", err)
	}
	var rs []Rule
	for _, alt := range bs.Alternatives() {
		p, okP := alt.Get("$p")
		a, okA := alt.Get("$a")
		c, okC := alt.Get("$c")
		if !okP || !okA || !okC {
			continue
		}
		src := term.Compound(term.Symbol(ExecHead), p, a, c)
		r, err := Parse(src)
		if err != nil {
			e.Log.Warn("skipping malformed rule", zap.String("rule", src.String()), zap.Error(err))
			continue
		}
		rs = append(rs, r)
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return ComparePriority(rs[i].Priority, rs[j].Priority) < 0
	})
	return rs, nil
}

// Run iterates rule firing until an iteration changes nothing or the cap is
// reached. Rules are re-collected from the store every iteration, so rules
// generated by meta-rules participate from the next iteration on. After the
// first pass the trigger index gates firing: a rule re-fires only when it is
// newly collected or a fact changed last pass whose shape the rule depends
// on. A failing rule forfeits only its own contribution for that iteration.
func (e *Evaluator) Run(maxIterations int) (Result, error) {
	res := Result{Converged: true}
	reg := groundedRegistry(e.Store)
	var prev []Rule
	var delta []term.Term
	for res.Iterations < maxIterations {
		rs, err := e.CollectRules()
		if err != nil {
			return res, err
		}
		if len(rs) == 0 && res.Iterations == 0 {
			return res, nil
		}
		var trig map[int]bool
		if res.Iterations > 0 {
			trig = NewIndex(rs).Triggered(delta)
		}
		res.Iterations++

		var next []term.Term
		for i, r := range rs {
			if trig != nil && !trig[i] && !newSince(r, prev, reg) {
				continue
			}
			added, changes, err := e.fire(r)
			if err != nil {
				e.Log.Warn("rule firing failed",
					zap.String("rule", r.Source.String()), zap.Error(err))
				continue
			}
			res.FactsAdded += added
			next = append(next, changes...)
		}
		prev, delta = rs, next
		if len(next) == 0 {
			return res, nil
		}
	}
	res.Converged = false
	e.Log.Info("iteration limit reached before fixed point",
		zap.Int("iterations", res.Iterations), zap.Int("facts", e.Store.Len()))
	return res, nil
}

// newSince reports whether r's source fact was absent from the previous
// iteration's rule set. A freshly generated rule must fire at least once
// even when no fact change names it in the trigger index.
func newSince(r Rule, prev []Rule, reg *term.GroundedRegistry) bool {
	for _, p := range prev {
		if term.Equal(p.Source, r.Source, reg) {
			return false
		}
	}
	return true
}

// fire matches one rule's antecedent and applies its consequent under every
// surviving binding alternative. Returns the count of facts added and the
// instantiated facts the store changed under (adds plus effective removals).
func (e *Evaluator) fire(r Rule) (added int, changed []term.Term, err error) {
	bs, err := e.Store.MatchConjunction(r.Antecedent, match.Unit())
	if err != nil {
		return 0, nil, fmt.Errorf("antecedent: %w", err)
	}
	if bs.IsEmpty() {
		return 0, nil, nil
	}
	for _, alt := range bs.Alternatives() {
		a, ch, err := e.applyConsequent(r, alt)
		// A bad alternative does not poison its siblings, but any store
		// changes it made before failing still count.
		added += a
		changed = append(changed, ch...)
		if err != nil {
			e.Log.Debug("consequent alternative discarded",
				zap.String("rule", r.Source.String()), zap.Error(err))
		}
	}
	return added, changed, nil
}

// applyConsequent runs the two-pass consequent protocol. Pass 1 matches the
// still-variable plain goals against the store first-match to complete the
// bindings, so a later goal can supply values an earlier one needs. Pass 2
// instantiates every goal and applies it: exec forms are stored as new
// rules, never fired inline; (O ...) forms apply their add/remove
// directives; everything else is asserted as a fact.
func (e *Evaluator) applyConsequent(r Rule, b match.Bindings) (added int, changed []term.Term, err error) {
	reg := groundedRegistry(e.Store)

	for _, goal := range r.Consequent {
		if IsExec(goal) || isOpForm(goal) {
			continue
		}
		inst := b.Apply(goal, reg)
		if !inst.HasVariables() {
			continue
		}
		found, ok, err := e.Store.MatchFirst(inst)
		if err != nil {
			return 0, nil, fmt.Errorf("resolve consequent goal %s: %w", goal, err)
		}
		if !ok {
			continue
		}
		merged, ok := b.Merge(found, reg)
		if !ok {
			return 0, nil, fmt.Errorf("resolve consequent goal %s: %w", goal, match.ErrBindingConflict)
		}
		b = merged
	}

	for _, goal := range r.Consequent {
		inst := b.Apply(goal, reg)
		switch {
		case isOpForm(inst):
			a, ch, err := e.applyOps(inst)
			if err != nil {
				return added, changed, err
			}
			added += a
			changed = append(changed, ch...)
		case IsExec(inst):
			// Leftover variables are the generated rule's own pattern
			// variables; validate the shape before storing.
			if _, err := Parse(inst); err != nil {
				return added, changed, fmt.Errorf("generated rule: %w", err)
			}
			isNew, err := e.Store.Add(inst)
			if err != nil {
				return added, changed, fmt.Errorf("store generated rule: %w", err)
			}
			if isNew {
				added++
				changed = append(changed, inst)
			}
		default:
			isNew, err := e.Store.Add(inst)
			if err != nil {
				return added, changed, fmt.Errorf("assert %s: %w", inst, err)
			}
			if isNew {
				added++
				changed = append(changed, inst)
			}
		}
	}
	return added, changed, nil
}

// isOpForm reports whether t is an explicit-operation goal (O ...).
func isOpForm(t term.Term) bool {
	head, ok := t.HeadSymbol()
	return ok && head == opHead
}

// applyOps executes each (+ fact) / (- fact) directive of an (O ...) goal.
func (e *Evaluator) applyOps(op term.Term) (added int, changed []term.Term, err error) {
	for _, dir := range op.Children()[1:] {
		head, ok := dir.HeadSymbol()
		if !ok || dir.Arity() != 2 {
			return added, changed, fmt.Errorf("malformed operation %s", dir)
		}
		fact := dir.Children()[1]
		switch head {
		case "+":
			isNew, err := e.Store.Add(fact)
			if err != nil {
				return added, changed, fmt.Errorf("op add %s: %w", fact, err)
			}
			if isNew {
				added++
				changed = append(changed, fact)
			}
		case "-":
			removed, err := e.Store.Remove(fact)
			if err != nil {
				return added, changed, fmt.Errorf("op remove %s: %w", fact, err)
			}
			if removed {
				changed = append(changed, fact)
			}
		default:
			return added, changed, fmt.Errorf("unknown operation %s", dir)
		}
	}
	return added, changed, nil
}

// groundedSource is implemented by stores that expose their grounded-type
// registry; substitution falls back to structural equality without it.
type groundedSource interface {
	GroundedRegistry() *term.GroundedRegistry
}

func groundedRegistry(s Store) *term.GroundedRegistry {
	if gs, ok := s.(groundedSource); ok {
		return gs.GroundedRegistry()
	}
	return nil
}
