package trie

// Status is the three-valued outcome of every mutating or algebraic
// operation, so callers can skip downstream work when nothing changed.
type Status int

const (
	// Changed: new structure was produced.
	Changed Status = iota
	// Identity: the operation had no effect; the operand came back unchanged.
	Identity
	// Annihilated: the result is empty.
	Annihilated
)

func (s Status) String() string {
	switch s {
	case Changed:
		return "changed"
	case Identity:
		return "identity"
	case Annihilated:
		return "annihilated"
	}
	return "unknown"
}

// Trie is an immutable set of byte paths with optional per-path values.
// All methods are safe for concurrent use; mutating methods return a new
// Trie sharing every untouched node with the receiver.
type Trie struct {
	root *node
}

// New returns an empty trie.
func New() *Trie { return &Trie{} }

// Clone returns a snapshot sharing the entire structure. O(1).
func (t *Trie) Clone() *Trie { return &Trie{root: t.root} }

// Len returns the number of stored paths. O(1).
func (t *Trie) Len() int {
	if t.root == nil {
		return 0
	}
	return t.root.paths
}

// IsEmpty reports whether the trie holds no paths.
func (t *Trie) IsEmpty() bool { return t.Len() == 0 }

// Insert adds a path. Inserting an existing path is a no-op (Identity).
func (t *Trie) Insert(path []byte) (*Trie, Status) {
	return t.InsertValue(path, nil)
}

// InsertValue adds a path with an associated value. Re-inserting an existing
// path keeps the stored value and reports Identity.
func (t *Trie) InsertValue(path []byte, val any) (*Trie, Status) {
	if len(path) == 0 {
		return t, Identity
	}
	root, changed := insertNode(t.root, path, val)
	if !changed {
		return t, Identity
	}
	return &Trie{root: root}, Changed
}

func insertNode(n *node, path []byte, val any) (*node, bool) {
	if n == nil {
		return newNode(path, nil, true, val), true
	}
	common := commonPrefixLen(n.prefix, path)

	if common < len(n.prefix) {
		// Path diverges inside (or ends within) the compressed run.
		head := splitAt(n, common)
		if common == len(path) {
			return newNode(head.prefix, head.children, true, val), true
		}
		leaf := newNode(path[common:], nil, true, val)
		i, _ := head.findChild(path[common])
		return head.withChildInserted(i, leaf), true
	}

	if common == len(path) {
		if n.terminal {
			return n, false
		}
		return newNode(n.prefix, n.children, true, val), true
	}

	rest := path[common:]
	i, ok := n.findChild(rest[0])
	if !ok {
		return n.withChildInserted(i, newNode(rest, nil, true, val)), true
	}
	child, changed := insertNode(n.children[i], rest, val)
	if !changed {
		return n, false
	}
	return n.withChildAt(i, child), true
}

// Delete removes a path, reporting Identity when it was absent and
// Annihilated when the removal left the trie empty. prune removes
// now-empty scaffolding branches immediately.
func (t *Trie) Delete(path []byte, prune bool) (*Trie, Status) {
	if t.root == nil || len(path) == 0 {
		return t, Identity
	}
	root, changed := deleteNode(t.root, path, prune)
	if !changed {
		return t, Identity
	}
	out := &Trie{root: root}
	if out.Len() == 0 {
		return out, Annihilated
	}
	return out, Changed
}

func deleteNode(n *node, path []byte, prune bool) (*node, bool) {
	if n == nil {
		return nil, false
	}
	common := commonPrefixLen(n.prefix, path)
	if common < len(n.prefix) {
		return n, false // path not present
	}
	if common == len(path) {
		if !n.terminal {
			return n, false
		}
		out := newNode(n.prefix, n.children, false, nil)
		if prune {
			return collapse(out), true
		}
		return out, true
	}
	rest := path[common:]
	i, ok := n.findChild(rest[0])
	if !ok {
		return n, false
	}
	child, changed := deleteNode(n.children[i], rest, prune)
	if !changed {
		return n, false
	}
	if child == nil {
		out := n.withChildAt(i, nil)
		if prune {
			return collapse(out), true
		}
		return out, true
	}
	return n.withChildAt(i, child), true
}

// Contains reports whether path is stored.
func (t *Trie) Contains(path []byte) bool {
	_, ok := t.Value(path)
	return ok
}

// Value returns the value stored at path.
func (t *Trie) Value(path []byte) (any, bool) {
	n := t.root
	for n != nil {
		common := commonPrefixLen(n.prefix, path)
		if common < len(n.prefix) {
			return nil, false
		}
		if common == len(path) {
			if n.terminal {
				return n.val, true
			}
			return nil, false
		}
		path = path[common:]
		i, ok := n.findChild(path[0])
		if !ok {
			return nil, false
		}
		n = n.children[i]
	}
	return nil, false
}

// Walk visits every stored path in lexicographic order. The visited slice is
// reused between calls; callers that retain it must copy. Returning false
// stops the walk.
func (t *Trie) Walk(fn func(path []byte, val any) bool) {
	if t.root == nil {
		return
	}
	walkNode(t.root, nil, fn)
}

func walkNode(n *node, acc []byte, fn func(path []byte, val any) bool) bool {
	acc = append(acc, n.prefix...)
	if n.terminal {
		if !fn(acc, n.val) {
			return false
		}
	}
	for _, c := range n.children {
		if !walkNode(c, acc, fn) {
			return false
		}
	}
	return true
}

// WalkPrefix visits every stored path that starts with prefix, in
// lexicographic order.
func (t *Trie) WalkPrefix(prefix []byte, fn func(path []byte, val any) bool) {
	n := t.root
	var acc []byte
	rest := prefix
	for n != nil {
		common := commonPrefixLen(n.prefix, rest)
		if common == len(rest) {
			// Node covers the whole prefix; walk its subtree.
			walkNode(n, acc, fn)
			return
		}
		if common < len(n.prefix) {
			return // prefix diverges inside the run: nothing matches
		}
		acc = append(acc, n.prefix...)
		rest = rest[common:]
		i, ok := n.findChild(rest[0])
		if !ok {
			return
		}
		n = n.children[i]
	}
}

// Paths returns every stored path, copied, in lexicographic order.
func (t *Trie) Paths() [][]byte {
	out := make([][]byte, 0, t.Len())
	t.Walk(func(p []byte, _ any) bool {
		cp := make([]byte, len(p))
		copy(cp, p)
		out = append(out, cp)
		return true
	})
	return out
}
