package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"triekb/internal/encoding"
	"triekb/internal/term"
	"triekb/internal/trie"
)

func sym(name string) term.Term { return term.Symbol(name) }

func newMatcher() Matcher {
	return Matcher{Enc: encoding.Encoder{
		Symbols:  term.NewInterner(),
		Grounded: term.NewGroundedRegistry(),
	}}
}

func store(t *testing.T, m Matcher, facts ...term.Term) *trie.Trie {
	t.Helper()
	tr := trie.New()
	for _, f := range facts {
		path, _, err := m.Enc.Encode(f)
		require.NoError(t, err)
		tr, _ = tr.Insert(path)
	}
	return tr
}

func TestMatchGround(t *testing.T) {
	m := newMatcher()
	tr := store(t, m, term.Compound(sym("edge"), sym("a"), sym("b")))

	bs, err := m.Match(term.Compound(sym("edge"), sym("a"), sym("b")), tr)
	require.NoError(t, err)
	require.Equal(t, 1, bs.Len())
	require.Equal(t, 0, bs.Alternatives()[0].Len())

	bs, err = m.Match(term.Compound(sym("edge"), sym("a"), sym("c")), tr)
	require.NoError(t, err)
	require.True(t, bs.IsEmpty())
}

func TestMatchSingleVariable(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("parent"), sym("Alice"), sym("Bob")),
		term.Compound(sym("parent"), sym("Alice"), sym("Carol")),
		term.Compound(sym("parent"), sym("Dan"), sym("Erin")),
	)

	bs, err := m.Match(term.Compound(sym("parent"), sym("Alice"), term.Var("$x")), tr)
	require.NoError(t, err)
	require.Equal(t, 2, bs.Len())

	var got []string
	for _, alt := range bs.Alternatives() {
		v, ok := alt.Get("$x")
		require.True(t, ok)
		got = append(got, v.Name())
	}
	require.ElementsMatch(t, []string{"Bob", "Carol"}, got)
}

// The unification consistency check: (edge $x $x) matches (edge A A) and
// must not match (edge A B).
func TestRepeatedVariableConsistency(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("edge"), sym("A"), sym("A")),
		term.Compound(sym("edge"), sym("A"), sym("B")),
	)

	bs, err := m.Match(term.Compound(sym("edge"), term.Var("$x"), term.Var("$x")), tr)
	require.NoError(t, err)
	require.Equal(t, 1, bs.Len())
	v, ok := bs.Alternatives()[0].Get("$x")
	require.True(t, ok)
	require.Equal(t, "A", v.Name())
}

// Stored facts may themselves contain variables (rules are facts); a
// pattern variable must capture them with consistent identities.
func TestMatchVariableFact(t *testing.T) {
	m := newMatcher()
	rule := term.Compound(sym("exec"), sym("0"),
		term.Compound(sym(","), term.Compound(sym("p"), term.Var("$v"), term.Var("$v"))),
		term.Compound(sym(","), term.Compound(sym("q"), term.Var("$v"))),
	)
	tr := store(t, m, rule)

	pat := term.Compound(sym("exec"), term.Var("$prio"), term.Var("$ante"), term.Var("$cons"))
	bs, err := m.Match(pat, tr)
	require.NoError(t, err)
	require.Equal(t, 1, bs.Len())

	alt := bs.Alternatives()[0]
	ante, _ := alt.Get("$ante")
	cons, _ := alt.Get("$cons")

	// The two occurrences in the antecedent decode to the same variable,
	// and the consequent occurrence refers to it too.
	pGoal := ante.Children()[1]
	require.Equal(t, term.KindVariable, pGoal.Children()[1].Kind())
	require.Equal(t, pGoal.Children()[1].Name(), pGoal.Children()[2].Name())
	qGoal := cons.Children()[1]
	require.Equal(t, pGoal.Children()[1].Name(), qGoal.Children()[1].Name())
}

func TestMatchWholeSubterm(t *testing.T) {
	m := newMatcher()
	tr := store(t, m, term.Compound(sym("holds"), term.Compound(sym("at"), sym("x"), sym("y"))))

	bs, err := m.Match(term.Compound(sym("holds"), term.Var("$w")), tr)
	require.NoError(t, err)
	require.Equal(t, 1, bs.Len())
	w, _ := bs.Alternatives()[0].Get("$w")
	require.True(t, term.Equal(term.Compound(sym("at"), sym("x"), sym("y")), w, nil))
}

func TestAnonymousBindsNothing(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("edge"), sym("a"), sym("b")),
		term.Compound(sym("edge"), sym("a"), sym("c")),
	)

	bs, err := m.Match(term.Compound(sym("edge"), sym("a"), term.Var(term.Anonymous)), tr)
	require.NoError(t, err)
	require.Equal(t, 2, bs.Len())
	for _, alt := range bs.Alternatives() {
		require.Equal(t, 0, alt.Len())
	}
}

func TestMatchFirst(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("n"), sym("1")),
		term.Compound(sym("n"), sym("2")),
	)

	b, ok, err := m.MatchFirst(term.Compound(sym("n"), term.Var("$x")), tr)
	require.NoError(t, err)
	require.True(t, ok)
	_, bound := b.Get("$x")
	require.True(t, bound)

	_, ok, err = m.MatchFirst(term.Compound(sym("m"), term.Var("$x")), tr)
	require.NoError(t, err)
	require.False(t, ok)

	exists, err := m.MatchExists(term.Compound(sym("n"), term.Var(term.Anonymous)), tr)
	require.NoError(t, err)
	require.True(t, exists)
}

// The documented product example: (parent Alice $x) x (age $x 10) keeps
// exactly {$x: Bob}.
func TestBindingSetProduct(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("parent"), sym("Alice"), sym("Bob")),
		term.Compound(sym("parent"), sym("Alice"), sym("Carol")),
		term.Compound(sym("age"), sym("Bob"), sym("10")),
	)

	parents, err := m.Match(term.Compound(sym("parent"), sym("Alice"), term.Var("$x")), tr)
	require.NoError(t, err)
	ages, err := m.Match(term.Compound(sym("age"), term.Var("$x"), sym("10")), tr)
	require.NoError(t, err)

	prod := parents.Product(ages, nil)
	require.Equal(t, 1, prod.Len())
	v, _ := prod.Alternatives()[0].Get("$x")
	require.Equal(t, "Bob", v.Name())
}

func TestBindingSetUnion(t *testing.T) {
	var a, b Bindings
	a, _ = a.Bind("$x", sym("1"), nil)
	b, _ = b.Bind("$x", sym("2"), nil)

	u := NewBindingSet(a).Union(NewBindingSet(b, a), nil)
	require.Equal(t, 2, u.Len()) // duplicate of a dropped
}

func TestMatchConjunction(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("parent"), sym("Alice"), sym("Bob")),
		term.Compound(sym("parent"), sym("Bob"), sym("Carol")),
		term.Compound(sym("parent"), sym("Alice"), sym("Dan")),
	)

	goals := []term.Term{
		term.Compound(sym("parent"), term.Var("$g"), term.Var("$p")),
		term.Compound(sym("parent"), term.Var("$p"), term.Var("$c")),
	}
	bs, err := m.MatchConjunction(goals, tr, Unit())
	require.NoError(t, err)
	require.Equal(t, 1, bs.Len())

	alt := bs.Alternatives()[0]
	g, _ := alt.Get("$g")
	c, _ := alt.Get("$c")
	require.Equal(t, "Alice", g.Name())
	require.Equal(t, "Carol", c.Name())
}

func TestMatchConjunctionDropsAlternativesNotConjunction(t *testing.T) {
	m := newMatcher()
	tr := store(t, m,
		term.Compound(sym("item"), sym("a")),
		term.Compound(sym("item"), sym("b")),
		term.Compound(sym("ok"), sym("a")),
	)

	goals := []term.Term{
		term.Compound(sym("item"), term.Var("$i")),
		term.Compound(sym("ok"), term.Var("$i")),
	}
	bs, err := m.MatchConjunction(goals, tr, Unit())
	require.NoError(t, err)
	// Only the alternative no goal could extend is dropped.
	require.Equal(t, 1, bs.Len())
	v, _ := bs.Alternatives()[0].Get("$i")
	require.Equal(t, "a", v.Name())
}

func TestResolveAliasChain(t *testing.T) {
	var b Bindings
	b, _ = b.Bind("$x", term.Var("$y"), nil)
	b, _ = b.Bind("$y", term.Var("$z"), nil)
	b, _ = b.Bind("$z", sym("val"), nil)

	v, ok := b.Resolve("$x", nil)
	require.True(t, ok)
	require.Equal(t, "val", v.Name())
}

func TestResolveAliasCycle(t *testing.T) {
	var b Bindings
	b, _ = b.Bind("$x", term.Var("$y"), nil)
	b, _ = b.Bind("$y", term.Var("$x"), nil)

	_, ok := b.Resolve("$x", nil)
	require.False(t, ok, "a cycle resolves to unbound, never loops")
}

func TestBindConflict(t *testing.T) {
	var b Bindings
	b, ok := b.Bind("$x", sym("1"), nil)
	require.True(t, ok)
	if _, ok := b.Bind("$x", sym("2"), nil); ok {
		t.Error("conflicting rebind must fail")
	}
	// Identical rebind is a no-op.
	b2, ok := b.Bind("$x", sym("1"), nil)
	require.True(t, ok)
	require.Equal(t, 1, b2.Len())
}

func TestApply(t *testing.T) {
	var b Bindings
	b, _ = b.Bind("$x", sym("A"), nil)

	in := term.Compound(sym("f"), term.Var("$x"), term.Var("$y"))
	out := b.Apply(in, nil)
	want := term.Compound(sym("f"), sym("A"), term.Var("$y")) // unbound left in place
	require.True(t, term.Equal(want, out, nil))
}
