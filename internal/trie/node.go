// Package trie implements the prefix-compressed, copy-on-write trie over
// encoded byte paths. Nodes are immutable after construction: every mutation
// builds new nodes along the touched spine and shares every untouched child
// by reference, so clones are O(1) and any number of readers may traverse a
// snapshot concurrently with writers.
package trie

import "bytes"

// node is an immutable radix node. prefix is the compressed byte run leading
// to it (children are ordered by their prefix's first byte, which is unique
// per sibling). terminal marks a stored path ending here; val is the optional
// associated value.
type node struct {
	prefix   []byte
	children []*node
	terminal bool
	val      any
	paths    int // terminal count of this subtree, maintained on build
}

// newNode builds a node and computes its path count. Children must be sorted
// by first prefix byte and non-empty-prefixed.
func newNode(prefix []byte, children []*node, terminal bool, val any) *node {
	n := &node{prefix: prefix, children: children, terminal: terminal, val: val}
	if terminal {
		n.paths = 1
	}
	for _, c := range children {
		n.paths += c.paths
	}
	return n
}

// findChild returns the index of the child whose prefix starts with b, or
// the insertion index with ok=false.
func (n *node) findChild(b byte) (int, bool) {
	lo, hi := 0, len(n.children)
	for lo < hi {
		mid := (lo + hi) / 2
		if n.children[mid].prefix[0] < b {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(n.children) && n.children[lo].prefix[0] == b {
		return lo, true
	}
	return lo, false
}

// withChildAt returns a copy of n with the child at i replaced, or removed
// when child is nil. Empty non-terminal single-child results are NOT
// collapsed here; callers that prune use collapse.
func (n *node) withChildAt(i int, child *node) *node {
	var children []*node
	if child == nil {
		children = make([]*node, 0, len(n.children)-1)
		children = append(children, n.children[:i]...)
		children = append(children, n.children[i+1:]...)
	} else {
		children = make([]*node, len(n.children))
		copy(children, n.children)
		children[i] = child
	}
	return newNode(n.prefix, children, n.terminal, n.val)
}

// withChildInserted returns a copy of n with child inserted at index i.
func (n *node) withChildInserted(i int, child *node) *node {
	children := make([]*node, 0, len(n.children)+1)
	children = append(children, n.children[:i]...)
	children = append(children, child)
	children = append(children, n.children[i:]...)
	return newNode(n.prefix, children, n.terminal, n.val)
}

// collapse merges a non-terminal node that has exactly one child into that
// child, extending the child's prefix. Returns nil for an empty non-terminal
// leaf. Used after removals when pruning is requested.
func collapse(n *node) *node {
	if n == nil || n.terminal {
		return n
	}
	switch len(n.children) {
	case 0:
		return nil
	case 1:
		c := n.children[0]
		merged := make([]byte, 0, len(n.prefix)+len(c.prefix))
		merged = append(merged, n.prefix...)
		merged = append(merged, c.prefix...)
		return newNode(merged, c.children, c.terminal, c.val)
	}
	return n
}

// commonPrefixLen returns the length of the shared prefix of a and b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// splitAt breaks n's prefix at k, producing a head node whose single child
// carries the remainder. k must be in (0, len(prefix)).
func splitAt(n *node, k int) *node {
	tail := newNode(n.prefix[k:], n.children, n.terminal, n.val)
	return newNode(n.prefix[:k], []*node{tail}, false, nil)
}

// sameNode is the structural-sharing short circuit: identical references are
// identical subtries without descent.
func sameNode(a, b *node) bool { return a == b }

func prefixEqual(a, b []byte) bool { return bytes.Equal(a, b) }
