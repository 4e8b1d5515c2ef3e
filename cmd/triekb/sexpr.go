package main

import (
	"fmt"
	"strings"
	"unicode"

	"triekb/internal/term"
)

// The CLI accepts terms as s-expressions: (parent Alice Bob), variables as
// $-prefixed atoms, rules as (exec 0 (, ...) (, ...)). The core only ever
// sees parsed Terms; this file is the whole surface syntax.

type sexprParser struct {
	in  string
	pos int
}

// parseTerm parses exactly one term from src.
func parseTerm(src string) (term.Term, error) {
	p := &sexprParser{in: src}
	t, err := p.term()
	if err != nil {
		return term.Term{}, err
	}
	p.skipSpace()
	if p.pos != len(p.in) {
		return term.Term{}, fmt.Errorf("trailing input at byte %d: %q", p.pos, p.in[p.pos:])
	}
	return t, nil
}

// parseAll parses a whole file: any number of terms, ';' comments to
// end of line.
func parseAll(src string) ([]term.Term, error) {
	p := &sexprParser{in: src}
	var out []term.Term
	for {
		p.skipSpace()
		if p.pos == len(p.in) {
			return out, nil
		}
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

func (p *sexprParser) term() (term.Term, error) {
	p.skipSpace()
	if p.pos == len(p.in) {
		return term.Term{}, fmt.Errorf("unexpected end of input")
	}
	switch p.in[p.pos] {
	case '(':
		p.pos++
		var children []term.Term
		for {
			p.skipSpace()
			if p.pos == len(p.in) {
				return term.Term{}, fmt.Errorf("unclosed '(' ")
			}
			if p.in[p.pos] == ')' {
				p.pos++
				return term.Compound(children...), nil
			}
			c, err := p.term()
			if err != nil {
				return term.Term{}, err
			}
			children = append(children, c)
		}
	case ')':
		return term.Term{}, fmt.Errorf("unexpected ')' at byte %d", p.pos)
	default:
		return p.atom()
	}
}

func (p *sexprParser) atom() (term.Term, error) {
	start := p.pos
	for p.pos < len(p.in) && !isDelim(rune(p.in[p.pos])) {
		p.pos++
	}
	text := p.in[start:p.pos]
	if text == "" {
		return term.Term{}, fmt.Errorf("empty atom at byte %d", start)
	}
	if strings.HasPrefix(text, "$") {
		return term.Var(text), nil
	}
	return term.Symbol(text), nil
}

func (p *sexprParser) skipSpace() {
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		switch {
		case unicode.IsSpace(rune(c)):
			p.pos++
		case c == ';':
			for p.pos < len(p.in) && p.in[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isDelim(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == ';'
}
