package main

import (
	"testing"

	"triekb/internal/term"
)

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in   string
		want term.Term
	}{
		{"atom", term.Symbol("atom")},
		{"$x", term.Var("$x")},
		{"()", term.Compound()},
		{"(edge a b)", term.Compound(term.Symbol("edge"), term.Symbol("a"), term.Symbol("b"))},
		{"(p $x $x)", term.Compound(term.Symbol("p"), term.Var("$x"), term.Var("$x"))},
		{"( spaced   out )", term.Compound(term.Symbol("spaced"), term.Symbol("out"))},
		{"(f (g x) y)", term.Compound(
			term.Symbol("f"),
			term.Compound(term.Symbol("g"), term.Symbol("x")),
			term.Symbol("y"))},
		{"(exec 0 (, (a $v)) (, (b $v)))", term.Compound(
			term.Symbol("exec"), term.Symbol("0"),
			term.Compound(term.Symbol(","), term.Compound(term.Symbol("a"), term.Var("$v"))),
			term.Compound(term.Symbol(","), term.Compound(term.Symbol("b"), term.Var("$v"))))},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTerm(tt.in)
			if err != nil {
				t.Fatalf("parseTerm(%q): %v", tt.in, err)
			}
			if !term.Equal(tt.want, got, nil) {
				t.Errorf("parseTerm(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTermErrors(t *testing.T) {
	bad := []string{"", "(unclosed", ")", "(a))", "a b"}
	for _, in := range bad {
		if _, err := parseTerm(in); err == nil {
			t.Errorf("parseTerm(%q) should fail", in)
		}
	}
}

func TestParseAll(t *testing.T) {
	src := `
; facts
(parent Alice Bob)
(parent Bob Carol) ; trailing comment

; a rule
(exec 0 (, (parent $g $p) (parent $p $c)) (, (grandparent $g $c)))
`
	ts, err := parseAll(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 3 {
		t.Fatalf("parsed %d terms, want 3", len(ts))
	}
	if got := ts[2].String(); got != "(exec 0 (, (parent $g $p) (parent $p $c)) (, (grandparent $g $c)))" {
		t.Errorf("rule round-trip: %s", got)
	}
}
