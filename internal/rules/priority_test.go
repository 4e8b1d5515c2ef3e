package rules

import (
	"errors"
	"sort"
	"testing"

	"triekb/internal/term"
)

func sym(name string) term.Term { return term.Symbol(name) }

func peano(n int) term.Term {
	t := sym("Z")
	for i := 0; i < n; i++ {
		t = term.Compound(sym("S"), t)
	}
	return t
}

func tuple(parts ...term.Term) term.Term { return term.Compound(parts...) }

func TestComparePriorityOrder(t *testing.T) {
	// The documented firing order.
	ordered := []term.Term{
		tuple(sym("0"), sym("0")),
		tuple(sym("0"), sym("1")),
		tuple(sym("1"), peano(0)),
		tuple(sym("1"), peano(1)),
		tuple(sym("2"), sym("0")),
	}
	for i := 0; i < len(ordered); i++ {
		for j := 0; j < len(ordered); j++ {
			got := ComparePriority(ordered[i], ordered[j])
			switch {
			case i < j && got >= 0:
				t.Errorf("Compare(%s, %s) = %d, want < 0", ordered[i], ordered[j], got)
			case i > j && got <= 0:
				t.Errorf("Compare(%s, %s) = %d, want > 0", ordered[i], ordered[j], got)
			case i == j && got != 0:
				t.Errorf("Compare(%s, %s) = %d, want 0", ordered[i], ordered[j], got)
			}
		}
	}
}

func TestComparePriorityShapes(t *testing.T) {
	tests := []struct {
		name string
		a, b term.Term
		want int
	}{
		{"integers numeric", sym("2"), sym("10"), -1},
		{"negative integers", sym("-1"), sym("0"), -1},
		{"peano depth", peano(1), peano(3), -1},
		{"integer before peano", sym("999"), peano(0), -1},
		{"integer before plain symbol", sym("7"), sym("high"), -1},
		{"peano before tuple", peano(2), tuple(sym("0"), sym("0")), -1},
		{"plain symbols lexicographic", sym("alpha"), sym("beta"), -1},
		{"tuple shorter first", tuple(sym("1")), tuple(sym("1"), sym("0")), -1},
		{"tuple recursive", tuple(tuple(sym("0"), sym("1"))), tuple(tuple(sym("0"), sym("2"))), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComparePriority(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
			if sign(ComparePriority(tt.b, tt.a)) != -tt.want {
				t.Errorf("Compare(%s, %s) not antisymmetric", tt.b, tt.a)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestComparePrioritySortStable(t *testing.T) {
	ps := []term.Term{
		tuple(sym("2"), sym("0")),
		peano(1),
		sym("10"),
		sym("2"),
		tuple(sym("0"), sym("1")),
		peano(0),
	}
	sort.SliceStable(ps, func(i, j int) bool { return ComparePriority(ps[i], ps[j]) < 0 })
	want := []string{"2", "10", "Z", "(S Z)", "(0 1)", "(2 0)"}
	for i, p := range ps {
		if p.String() != want[i] {
			t.Errorf("position %d: %s, want %s", i, p, want[i])
		}
	}
}

func TestValidatePriority(t *testing.T) {
	good := []term.Term{sym("0"), sym("-3"), peano(4), tuple(sym("1"), peano(2)), sym("label")}
	for _, p := range good {
		if err := ValidatePriority(p); err != nil {
			t.Errorf("ValidatePriority(%s) = %v", p, err)
		}
	}
	bad := []term.Term{
		term.Var("$p"),
		term.Grounded(1, 42),
		tuple(sym("0"), term.Var("$x")),
	}
	for _, p := range bad {
		if err := ValidatePriority(p); !errors.Is(err, ErrPriorityIncomparable) {
			t.Errorf("ValidatePriority(%s) = %v, want ErrPriorityIncomparable", p, err)
		}
	}
}
