// Package space is the query surface over the encoded term store: a facade
// tying the encoder, the trie, the matcher, and the rule evaluator behind
// add / remove / match / run-to-fixed-point, plus snapshot save/load and a
// file watcher for hot reload.
package space

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"triekb/internal/encoding"
	"triekb/internal/match"
	"triekb/internal/rules"
	"triekb/internal/snapshot"
	"triekb/internal/term"
	"triekb/internal/trie"
)

// ErrFactLimit rejects a snapshot load that would exceed the configured
// fact cap.
var ErrFactLimit = errors.New("space: snapshot exceeds fact limit")

// Space holds one fact store. Readers traverse an immutable root snapshot
// lock-free; the mutex only guards the root swap and the write path.
// Rules are ordinary facts in the same store, so generated rules are
// visible to queries exactly like authored ones.
type Space struct {
	mu   sync.RWMutex
	root *trie.Trie

	enc      encoding.Encoder
	matcher  match.Matcher
	log      *zap.Logger
	id       uuid.UUID
	maxFacts int
}

// Option configures a Space at construction.
type Option func(*Space)

// WithLogger injects a logger; default is no-op.
func WithLogger(log *zap.Logger) Option {
	return func(s *Space) { s.log = log }
}

// WithGrounded injects a shared grounded-type registry.
func WithGrounded(reg *term.GroundedRegistry) Option {
	return func(s *Space) { s.enc.Grounded = reg }
}

// WithInterner injects a shared symbol interner, for stores that must agree
// on symbol ids.
func WithInterner(in *term.Interner) Option {
	return func(s *Space) { s.enc.Symbols = in }
}

// WithMaxFacts caps the number of facts a snapshot load may bring in.
// Zero means unbounded.
func WithMaxFacts(n int) Option {
	return func(s *Space) { s.maxFacts = n }
}

// New returns an empty space.
func New(opts ...Option) *Space {
	s := &Space{
		root: trie.New(),
		enc: encoding.Encoder{
			Symbols:  term.NewInterner(),
			Grounded: term.NewGroundedRegistry(),
		},
		log: zap.NewNop(),
		id:  uuid.New(),
	}
	for _, o := range opts {
		o(s)
	}
	s.matcher = match.Matcher{Enc: s.enc}
	return s
}

// ID returns the space's stable identity, stamped into snapshots.
func (s *Space) ID() uuid.UUID { return s.id }

// Interner returns the shared symbol table.
func (s *Space) Interner() *term.Interner { return s.enc.Symbols }

// GroundedRegistry returns the grounded-type registry.
func (s *Space) GroundedRegistry() *term.GroundedRegistry { return s.enc.Grounded }

// Snapshot returns an O(1) read snapshot of the store. The snapshot never
// changes; later writes to the space are invisible through it.
func (s *Space) Snapshot() *trie.Trie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Clone()
}

// Len returns the number of stored facts.
func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Len()
}

// Add inserts a fact, reporting whether it was newly present. Adding an
// existing fact is a no-op.
func (s *Space) Add(t term.Term) (bool, error) {
	path, _, err := s.enc.Encode(t)
	if err != nil {
		return false, fmt.Errorf("add %s: %w", t, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, st := s.root.Insert(path)
	s.root = next
	return st == trie.Changed, nil
}

// AddAll bulk-inserts terms by building a side trie and joining it in with
// one root swap. Returns the number of terms not previously present.
func (s *Space) AddAll(ts []term.Term) (int, error) {
	side := trie.New()
	for _, t := range ts {
		path, _, err := s.enc.Encode(t)
		if err != nil {
			return 0, fmt.Errorf("add %s: %w", t, err)
		}
		side, _ = side.Insert(path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.root.Len()
	next, _ := s.root.Join(side)
	s.root = next
	return next.Len() - before, nil
}

// Remove deletes a fact, reporting whether it was present.
func (s *Space) Remove(t term.Term) (bool, error) {
	path, _, err := s.enc.Encode(t)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", t, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, st := s.root.Delete(path, true)
	s.root = next
	return st != trie.Identity, nil
}

// Contains reports whether the exact (ground) term is stored.
func (s *Space) Contains(t term.Term) (bool, error) {
	path, _, err := s.enc.Encode(t)
	if err != nil {
		return false, fmt.Errorf("contains %s: %w", t, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Contains(path), nil
}

// Match returns every binding alternative for pattern against the current
// snapshot.
func (s *Space) Match(pattern term.Term) (match.BindingSet, error) {
	return s.matcher.Match(pattern, s.Snapshot())
}

// MatchFirst returns one binding alternative, early-exiting the walk.
func (s *Space) MatchFirst(pattern term.Term) (match.Bindings, bool, error) {
	return s.matcher.MatchFirst(pattern, s.Snapshot())
}

// MatchExists reports whether pattern has any match.
func (s *Space) MatchExists(pattern term.Term) (bool, error) {
	return s.matcher.MatchExists(pattern, s.Snapshot())
}

// MatchConjunction threads bindings left-to-right across goals against one
// consistent snapshot.
func (s *Space) MatchConjunction(goals []term.Term, seed match.BindingSet) (match.BindingSet, error) {
	return s.matcher.MatchConjunction(goals, s.Snapshot(), seed)
}

// Facts decodes every stored path back to a term, in store order.
func (s *Space) Facts() ([]term.Term, error) {
	snap := s.Snapshot()
	out := make([]term.Term, 0, snap.Len())
	var decodeErr error
	snap.Walk(func(path []byte, _ any) bool {
		t, err := s.enc.Decode(path, nil)
		if err != nil {
			decodeErr = fmt.Errorf("decode stored path: %w", err)
			return false
		}
		out = append(out, t)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

// RunToFixedPoint evaluates the stored rules until convergence or the
// iteration cap.
func (s *Space) RunToFixedPoint(maxIterations int) (rules.Result, error) {
	return rules.NewEvaluator(s, s.log).Run(maxIterations)
}

// Stats summarizes the store.
type Stats struct {
	Facts   int `json:"facts"`
	Symbols int `json:"symbols"`
	Rules   int `json:"rules"`
}

// Stats counts facts, interned symbols, and stored rules.
func (s *Space) Stats() (Stats, error) {
	st := Stats{Facts: s.Len(), Symbols: s.enc.Symbols.Len()}
	rulePat := term.Compound(
		term.Symbol(rules.ExecHead), term.Var("$p"), term.Var("$a"), term.Var("$c"))
	bs, err := s.Match(rulePat)
	if err != nil {
		return st, err
	}
	st.Rules = bs.Len()
	return st, nil
}

// Save writes the store to path as a snapshot file.
func (s *Space) Save(path string, compress bool) error {
	s.mu.RLock()
	snap := s.root
	s.mu.RUnlock()

	arch := snapshot.New(s.enc.Symbols.Entries(), snap.Paths())
	arch.ID = s.id
	if err := snapshot.WriteFile(path, arch, compress); err != nil {
		return err
	}
	s.log.Info("snapshot saved",
		zap.String("path", path), zap.Int("facts", snap.Len()), zap.Bool("compressed", compress))
	return nil
}

// LoadFile replaces the store's content with a verified snapshot file. The
// interner is restored before the paths become visible, so interned-symbol
// references in the paths resolve. On any error the store is unchanged.
func (s *Space) LoadFile(path string) error {
	arch, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	if s.maxFacts > 0 && len(arch.Paths) > s.maxFacts {
		return fmt.Errorf("%w: %d facts, limit %d", ErrFactLimit, len(arch.Paths), s.maxFacts)
	}
	next := trie.New()
	for _, p := range arch.Paths {
		next, _ = next.Insert(p)
	}

	s.mu.Lock()
	s.enc.Symbols.Restore(arch.Symbols)
	s.root = next
	s.id = arch.ID
	s.mu.Unlock()

	s.log.Info("snapshot loaded",
		zap.String("path", path), zap.Int("facts", next.Len()), zap.String("id", arch.ID.String()))
	return nil
}
