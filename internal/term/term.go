// Package term defines the structured term representation shared by the
// store, the encoder, and the rule evaluator: symbols, variables, compound
// terms, and opaque grounded values, plus the interning and grounded-type
// registries that encode/decode require.
package term

import (
	"fmt"
	"strings"
)

// Kind discriminates the four term variants.
type Kind uint8

const (
	KindSymbol Kind = iota
	KindVariable
	KindCompound
	KindGrounded
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindVariable:
		return "variable"
	case KindCompound:
		return "compound"
	case KindGrounded:
		return "grounded"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Term is an immutable tagged union. The zero value is the empty symbol.
// Terms are value types; callers must not mutate Children after construction.
type Term struct {
	kind     Kind
	name     string // symbol text or variable name
	children []Term // compound children, arity-ordered
	grounded GroundedValue
}

// GroundedValue is an opaque typed payload identified by a registered type id.
// Equality and serialization are supplied by the registry bundle, not by the
// value itself.
type GroundedValue struct {
	TypeID uint64
	Value  any
}

// Symbol returns a symbol term.
func Symbol(name string) Term {
	return Term{kind: KindSymbol, name: name}
}

// Var returns a named variable term. Variable names conventionally start
// with '$'; the constructor does not enforce this.
func Var(name string) Term {
	return Term{kind: KindVariable, name: name}
}

// Anonymous is the variable name that never unifies with itself: every
// occurrence encodes as a fresh binding site.
const Anonymous = "$_"

// Compound returns an ordered, arity-tagged compound term.
func Compound(children ...Term) Term {
	return Term{kind: KindCompound, children: children}
}

// Grounded returns a grounded term carrying an opaque value.
func Grounded(typeID uint64, value any) Term {
	return Term{kind: KindGrounded, grounded: GroundedValue{TypeID: typeID, Value: value}}
}

// Kind reports the variant of t.
func (t Term) Kind() Kind { return t.kind }

// Name returns the symbol text or variable name; empty for other kinds.
func (t Term) Name() string { return t.name }

// Children returns the compound children. Callers must treat the slice as
// read-only.
func (t Term) Children() []Term { return t.children }

// Arity returns the number of children of a compound, 0 otherwise.
func (t Term) Arity() int { return len(t.children) }

// GroundedValue returns the opaque payload of a grounded term.
func (t Term) GroundedValue() GroundedValue { return t.grounded }

// IsAnonymous reports whether t is the anonymous variable.
func (t Term) IsAnonymous() bool { return t.kind == KindVariable && t.name == Anonymous }

// HasVariables reports whether t contains any variable, at any depth.
func (t Term) HasVariables() bool {
	switch t.kind {
	case KindVariable:
		return true
	case KindCompound:
		for _, c := range t.children {
			if c.HasVariables() {
				return true
			}
		}
	}
	return false
}

// HeadSymbol returns the head symbol of a compound (its first child, when
// that child is a symbol). Used by the rule index.
func (t Term) HeadSymbol() (string, bool) {
	if t.kind == KindCompound && len(t.children) > 0 && t.children[0].kind == KindSymbol {
		return t.children[0].name, true
	}
	return "", false
}

// Equal reports recursive structural equality. Grounded values compare by
// type id and the registry's match rule when reg is non-nil; with a nil
// registry they compare by type id and Go equality of the payload.
func Equal(a, b Term, reg *GroundedRegistry) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindSymbol, KindVariable:
		return a.name == b.name
	case KindCompound:
		if len(a.children) != len(b.children) {
			return false
		}
		for i := range a.children {
			if !Equal(a.children[i], b.children[i], reg) {
				return false
			}
		}
		return true
	case KindGrounded:
		if a.grounded.TypeID != b.grounded.TypeID {
			return false
		}
		if reg != nil {
			if c, ok := reg.LookupID(a.grounded.TypeID); ok && c.Match != nil {
				return c.Match(a.grounded.Value, b.grounded.Value)
			}
		}
		return a.grounded.Value == b.grounded.Value
	}
	return false
}

// String renders t in s-expression form, for logs and test failures.
func (t Term) String() string {
	switch t.kind {
	case KindSymbol, KindVariable:
		return t.name
	case KindGrounded:
		return fmt.Sprintf("#g%d{%v}", t.grounded.TypeID, t.grounded.Value)
	case KindCompound:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, c := range t.children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(c.String())
		}
		sb.WriteByte(')')
		return sb.String()
	}
	return "?"
}
