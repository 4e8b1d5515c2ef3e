// Package rules holds the priority-ordered rule collection and the
// fixed-point evaluator that drives it over a trie-backed fact store.
package rules

import (
	"errors"
	"fmt"
	"strconv"

	"triekb/internal/term"
)

// ErrPriorityIncomparable marks a rule priority outside the supported
// domain (integers, Peano naturals, fixed tuples of priorities). Such a
// rule is rejected at ingest time.
var ErrPriorityIncomparable = errors.New("rules: priority shape not comparable")

// ValidatePriority rejects priority shapes outside the ordered domain.
// Variables and grounded values never order totally against anything.
func ValidatePriority(p term.Term) error {
	switch p.Kind() {
	case term.KindSymbol:
		return nil
	case term.KindCompound:
		for _, c := range p.Children() {
			if err := ValidatePriority(c); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPriorityIncomparable, p)
}

// ComparePriority orders two priority values: negative when a fires before
// b. Integers compare numerically, Peano numbers (Z, (S n)) by successor
// depth, tuples lexicographically with element-wise recursion. Across
// shapes the precedence is integer < plain symbol < compound, with Peano
// compounds before tuple compounds (reference engine ordering).
func ComparePriority(a, b term.Term) int {
	an, aIsNum := numericPriority(a)
	bn, bIsNum := numericPriority(b)
	if aIsNum && bIsNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	if aIsNum != bIsNum {
		if aIsNum {
			return -1
		}
		return 1
	}

	aPeano, aOK := peanoDepth(a)
	bPeano, bOK := peanoDepth(b)
	if aOK && bOK {
		return aPeano - bPeano
	}
	if aOK != bOK {
		if aOK {
			return -1
		}
		return 1
	}

	aSym := a.Kind() == term.KindSymbol
	bSym := b.Kind() == term.KindSymbol
	if aSym && bSym {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		}
		return 0
	}
	if aSym != bSym {
		if aSym {
			return -1
		}
		return 1
	}

	// Both tuples: lexicographic, shorter first on a common prefix.
	ac, bc := a.Children(), b.Children()
	n := len(ac)
	if len(bc) < n {
		n = len(bc)
	}
	for i := 0; i < n; i++ {
		if c := ComparePriority(ac[i], bc[i]); c != 0 {
			return c
		}
	}
	return len(ac) - len(bc)
}

func numericPriority(t term.Term) (int64, bool) {
	if t.Kind() != term.KindSymbol {
		return 0, false
	}
	n, err := strconv.ParseInt(t.Name(), 10, 64)
	return n, err == nil
}

// peanoDepth returns the successor depth of a Peano natural: Z is 0,
// (S n) is depth(n)+1.
func peanoDepth(t term.Term) (int, bool) {
	switch {
	case t.Kind() == term.KindSymbol && t.Name() == "Z":
		return 0, true
	case t.Kind() == term.KindCompound && t.Arity() == 2:
		c := t.Children()
		if c[0].Kind() == term.KindSymbol && c[0].Name() == "S" {
			if d, ok := peanoDepth(c[1]); ok {
				return d + 1, true
			}
		}
	}
	return 0, false
}
