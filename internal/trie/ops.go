package trie

// MergeFunc reconciles the values stored at a path present in both operands
// of a join. nil means keep the left value.
type MergeFunc func(left, right any) any

// Join returns the union of both tries. Values at shared paths keep the
// receiver's value; use JoinWith for a caller-supplied reconciliation rule.
func (t *Trie) Join(o *Trie) (*Trie, Status) {
	return t.JoinWith(o, nil)
}

// JoinWith is Join with an explicit value reconciliation rule.
func (t *Trie) JoinWith(o *Trie, merge MergeFunc) (*Trie, Status) {
	if o == nil || o.root == nil {
		if t.root == nil {
			return t, Annihilated
		}
		return t, Identity
	}
	if t.root == nil {
		return &Trie{root: o.root}, Changed
	}
	root := joinNode(t.root, o.root, merge)
	if root == t.root {
		return t, Identity
	}
	return &Trie{root: root}, Changed
}

func joinNode(a, b *node, merge MergeFunc) *node {
	if sameNode(a, b) {
		return a
	}
	common := commonPrefixLen(a.prefix, b.prefix)

	switch {
	case common < len(a.prefix) && common < len(b.prefix):
		// Diverge inside the runs: both subtries hang off a fresh fork.
		at := newNode(a.prefix[common:], a.children, a.terminal, a.val)
		bt := newNode(b.prefix[common:], b.children, b.terminal, b.val)
		children := []*node{at, bt}
		if bt.prefix[0] < at.prefix[0] {
			children = []*node{bt, at}
		}
		return newNode(a.prefix[:common], children, false, nil)

	case common == len(a.prefix) && common < len(b.prefix):
		// b nests below a: merge b's tail into a's matching child.
		bt := newNode(b.prefix[common:], b.children, b.terminal, b.val)
		i, ok := a.findChild(bt.prefix[0])
		if !ok {
			return a.withChildInserted(i, bt)
		}
		child := joinNode(a.children[i], bt, merge)
		if child == a.children[i] {
			return a
		}
		return a.withChildAt(i, child)

	case common == len(b.prefix) && common < len(a.prefix):
		// Mirror case; result must still share a's nodes where possible,
		// so rebuild from b with a's tail merged in, then compare.
		at := newNode(a.prefix[common:], a.children, a.terminal, a.val)
		i, ok := b.findChild(at.prefix[0])
		if !ok {
			return b.withChildInserted(i, at)
		}
		child := joinNode(at, b.children[i], merge)
		return b.withChildAt(i, child)
	}

	// Prefixes identical: merge terminals and children label-wise.
	terminal := a.terminal || b.terminal
	val := a.val
	if a.terminal && b.terminal {
		if merge != nil {
			val = merge(a.val, b.val)
		}
	} else if b.terminal {
		val = b.val
	}

	children := make([]*node, 0, len(a.children)+len(b.children))
	unchanged := terminal == a.terminal && val == a.val
	i, j := 0, 0
	for i < len(a.children) || j < len(b.children) {
		switch {
		case j >= len(b.children) || (i < len(a.children) && a.children[i].prefix[0] < b.children[j].prefix[0]):
			children = append(children, a.children[i])
			i++
		case i >= len(a.children) || b.children[j].prefix[0] < a.children[i].prefix[0]:
			children = append(children, b.children[j])
			unchanged = false
			j++
		default:
			c := joinNode(a.children[i], b.children[j], merge)
			if c != a.children[i] {
				unchanged = false
			}
			children = append(children, c)
			i++
			j++
		}
	}
	if unchanged && len(children) == len(a.children) {
		return a
	}
	return newNode(a.prefix, children, terminal, val)
}

// Meet returns the intersection: a path survives only if present in both.
// prune removes now-empty scaffolding branches immediately; without it they
// are kept for later reuse.
func (t *Trie) Meet(o *Trie, prune bool) (*Trie, Status) {
	if t.root == nil || o == nil || o.root == nil {
		return New(), Annihilated
	}
	root := meetNode(t.root, o.root, prune)
	out := &Trie{root: root}
	switch {
	case out.Len() == 0:
		return out, Annihilated
	case root == t.root:
		return t, Identity
	}
	return out, Changed
}

func meetNode(a, b *node, prune bool) *node {
	if a == nil || b == nil {
		return nil
	}
	if sameNode(a, b) {
		return a
	}
	common := commonPrefixLen(a.prefix, b.prefix)

	switch {
	case common < len(a.prefix) && common < len(b.prefix):
		return nil // disjoint

	case common == len(a.prefix) && common < len(b.prefix):
		// Survivors must extend b's deeper prefix.
		bt := newNode(b.prefix[common:], b.children, b.terminal, b.val)
		i, ok := a.findChild(bt.prefix[0])
		if !ok {
			return nil
		}
		child := meetNode(a.children[i], bt, prune)
		if child == nil && prune {
			return nil
		}
		var children []*node
		if child != nil {
			children = []*node{child}
		}
		return newNode(a.prefix, children, false, nil)

	case common == len(b.prefix) && common < len(a.prefix):
		at := newNode(a.prefix[common:], a.children, a.terminal, a.val)
		i, ok := b.findChild(at.prefix[0])
		if !ok {
			return nil
		}
		// Lift b's child to a's depth and retry.
		bc := b.children[i]
		lifted := make([]byte, 0, len(b.prefix)+len(bc.prefix))
		lifted = append(lifted, b.prefix[:common]...)
		lifted = append(lifted, bc.prefix...)
		return meetNode(a, newNode(lifted, bc.children, bc.terminal, bc.val), prune)
	}

	terminal := a.terminal && b.terminal
	children := make([]*node, 0, len(a.children))
	unchanged := terminal == a.terminal
	for i, j := 0, 0; i < len(a.children) && j < len(b.children); {
		la, lb := a.children[i].prefix[0], b.children[j].prefix[0]
		switch {
		case la < lb:
			unchanged = false
			i++
		case lb < la:
			j++
		default:
			c := meetNode(a.children[i], b.children[j], prune)
			if c != a.children[i] {
				unchanged = false
			}
			if c != nil {
				children = append(children, c)
			}
			i++
			j++
		}
	}
	if unchanged && len(children) == len(a.children) {
		return a
	}
	if !terminal && len(children) == 0 && prune {
		return nil
	}
	return newNode(a.prefix, children, terminal, pickVal(terminal, a))
}

// Subtract returns the paths of t not present in o. Non-commutative.
func (t *Trie) Subtract(o *Trie, prune bool) (*Trie, Status) {
	if t.root == nil {
		return t, Annihilated
	}
	if o == nil || o.root == nil {
		return t, Identity
	}
	root := subtractNode(t.root, o.root, prune)
	out := &Trie{root: root}
	switch {
	case out.Len() == 0:
		return out, Annihilated
	case root == t.root:
		return t, Identity
	}
	return out, Changed
}

func subtractNode(a, b *node, prune bool) *node {
	if a == nil {
		return nil
	}
	if b == nil {
		return a
	}
	if sameNode(a, b) {
		return nil
	}
	common := commonPrefixLen(a.prefix, b.prefix)

	switch {
	case common < len(a.prefix) && common < len(b.prefix):
		return a // disjoint: nothing to remove

	case common == len(a.prefix) && common < len(b.prefix):
		// Only a's branch under b's next byte is affected.
		bt := newNode(b.prefix[common:], b.children, b.terminal, b.val)
		i, ok := a.findChild(bt.prefix[0])
		if !ok {
			return a
		}
		child := subtractNode(a.children[i], bt, prune)
		if child == a.children[i] {
			return a
		}
		out := a.withChildAt(i, child)
		if prune {
			return collapse(out)
		}
		return out

	case common == len(b.prefix) && common < len(a.prefix):
		i, ok := b.findChild(a.prefix[common])
		if !ok {
			return a // b has nothing under a's deeper run
		}
		bc := b.children[i]
		lifted := make([]byte, 0, common+len(bc.prefix))
		lifted = append(lifted, b.prefix[:common]...)
		lifted = append(lifted, bc.prefix...)
		return subtractNode(a, newNode(lifted, bc.children, bc.terminal, bc.val), prune)
	}

	terminal := a.terminal && !b.terminal
	children := make([]*node, 0, len(a.children))
	unchanged := terminal == a.terminal
	for i, j := 0, 0; i < len(a.children); {
		if j >= len(b.children) || a.children[i].prefix[0] < b.children[j].prefix[0] {
			children = append(children, a.children[i])
			i++
			continue
		}
		if b.children[j].prefix[0] < a.children[i].prefix[0] {
			j++
			continue
		}
		c := subtractNode(a.children[i], b.children[j], prune)
		if c != a.children[i] {
			unchanged = false
		}
		if c != nil {
			children = append(children, c)
		}
		i++
		j++
	}
	if unchanged && len(children) == len(a.children) {
		return a
	}
	if !terminal && len(children) == 0 && prune {
		return nil
	}
	out := newNode(a.prefix, children, terminal, pickVal(terminal, a))
	if prune {
		return collapse(out)
	}
	return out
}

// Restrict keeps only the paths of t that have some path of o as a prefix
// (permission-by-prefix filtering). Distinct from Meet, which requires exact
// path membership in both operands.
func (t *Trie) Restrict(o *Trie) (*Trie, Status) {
	if t.root == nil || o == nil || o.root == nil {
		return New(), Annihilated
	}
	root := restrictNode(t.root, o.root)
	out := &Trie{root: root}
	switch {
	case out.Len() == 0:
		return out, Annihilated
	case root == t.root:
		return t, Identity
	}
	return out, Changed
}

func restrictNode(a, b *node) *node {
	if a == nil || b == nil {
		return nil
	}
	if sameNode(a, b) {
		return a
	}
	common := commonPrefixLen(a.prefix, b.prefix)

	switch {
	case common < len(a.prefix) && common < len(b.prefix):
		return nil

	case common == len(b.prefix) && common <= len(a.prefix):
		if b.terminal {
			return a // everything below is covered by the b-path at this point
		}
		if common == len(a.prefix) {
			break // aligned, handled below
		}
		i, ok := b.findChild(a.prefix[common])
		if !ok {
			return nil
		}
		bc := b.children[i]
		lifted := make([]byte, 0, common+len(bc.prefix))
		lifted = append(lifted, b.prefix[:common]...)
		lifted = append(lifted, bc.prefix...)
		return restrictNode(a, newNode(lifted, bc.children, bc.terminal, bc.val))

	case common == len(a.prefix) && common < len(b.prefix):
		bt := newNode(b.prefix[common:], b.children, b.terminal, b.val)
		i, ok := a.findChild(bt.prefix[0])
		if !ok {
			return nil
		}
		child := restrictNode(a.children[i], bt)
		if child == nil {
			return nil
		}
		return newNode(a.prefix, []*node{child}, false, nil)
	}

	// Aligned. A path of a ending here survives only if b also ends here.
	terminal := a.terminal && b.terminal
	children := make([]*node, 0, len(a.children))
	unchanged := terminal == a.terminal
	for i, j := 0, 0; i < len(a.children) && j < len(b.children); {
		la, lb := a.children[i].prefix[0], b.children[j].prefix[0]
		switch {
		case la < lb:
			unchanged = false
			i++
		case lb < la:
			j++
		default:
			c := restrictNode(a.children[i], b.children[j])
			if c != a.children[i] {
				unchanged = false
			}
			if c != nil {
				children = append(children, c)
			}
			i++
			j++
		}
	}
	if unchanged && len(children) == len(a.children) {
		return a
	}
	if !terminal && len(children) == 0 {
		return nil
	}
	return newNode(a.prefix, children, terminal, pickVal(terminal, a))
}

// Graft replaces the entire subtree of t rooted at path with o's contents
// by reference substitution. The terminal and value at the graft point
// itself are preserved when keepValue is true. An empty o prunes the
// subtree.
func (t *Trie) Graft(path []byte, o *Trie, keepValue bool) (*Trie, Status) {
	var sub *node
	if o != nil {
		sub = o.root
	}
	root := graftNode(t.root, path, sub, keepValue)
	out := &Trie{root: root}
	switch {
	case root == t.root:
		return t, Identity
	case out.Len() == 0:
		return out, Annihilated
	}
	return out, Changed
}

func graftNode(n *node, path []byte, sub *node, keepValue bool) *node {
	if len(path) == 0 {
		return attach(nil, sub, false, nil, keepValue)
	}
	if n == nil {
		// Graft point below an absent branch: materialize the spine.
		if sub == nil {
			return nil
		}
		return attach(path, sub, false, nil, keepValue)
	}
	common := commonPrefixLen(n.prefix, path)
	if common == len(path) {
		if common < len(n.prefix) {
			// Graft point splits the run: the whole remainder of n is the
			// subtree being replaced.
			return attach(path, sub, false, nil, keepValue)
		}
		return attach(n.prefix, sub, n.terminal, n.val, keepValue)
	}
	if common < len(n.prefix) {
		// Graft point diverges from the run: nothing stored there yet.
		if sub == nil {
			return n
		}
		head := splitAt(n, common)
		leaf := attach(path[common:], sub, false, nil, keepValue)
		i, _ := head.findChild(path[common])
		return head.withChildInserted(i, leaf)
	}
	rest := path[common:]
	i, ok := n.findChild(rest[0])
	if !ok {
		if sub == nil {
			return n
		}
		leaf := attach(rest, sub, false, nil, keepValue)
		return n.withChildInserted(i, leaf)
	}
	child := graftNode(n.children[i], rest, sub, keepValue)
	if child == n.children[i] {
		return n
	}
	return n.withChildAt(i, child)
}

// attach roots sub (the grafted trie) at prefix, restoring the graft point's
// own terminal/value when keepValue is set.
func attach(prefix []byte, sub *node, terminal bool, val any, keepValue bool) *node {
	useTerm := false
	var useVal any
	if keepValue {
		useTerm, useVal = terminal, val
	}
	if sub == nil {
		if !useTerm {
			return nil
		}
		return newNode(prefix, nil, true, useVal)
	}
	merged := make([]byte, 0, len(prefix)+len(sub.prefix))
	merged = append(merged, prefix...)
	merged = append(merged, sub.prefix...)
	if !useTerm && len(sub.prefix) > 0 {
		return newNode(merged, sub.children, sub.terminal, sub.val)
	}
	if len(sub.prefix) == 0 {
		t := sub.terminal || useTerm
		v := sub.val
		if useTerm {
			v = useVal
		}
		return newNode(prefix, sub.children, t, v)
	}
	// Graft point keeps its own terminal; sub hangs below it.
	child := newNode(sub.prefix, sub.children, sub.terminal, sub.val)
	return newNode(prefix, []*node{child}, true, useVal)
}

func pickVal(terminal bool, a *node) any {
	if terminal {
		return a.val
	}
	return nil
}
