package encoding

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"triekb/internal/term"
)

func newEncoder() Encoder {
	return Encoder{Symbols: term.NewInterner(), Grounded: term.NewGroundedRegistry()}
}

func sym(name string) term.Term { return term.Symbol(name) }

func roundTrip(t *testing.T, e Encoder, in term.Term) {
	t.Helper()
	path, names, err := e.Encode(in)
	if err != nil {
		t.Fatalf("Encode(%s): %v", in, err)
	}
	out, err := e.Decode(path, names)
	if err != nil {
		t.Fatalf("Decode(%s): %v", in, err)
	}
	if !term.Equal(in, out, e.Grounded) {
		t.Errorf("round trip changed term:\n in:  %s\n out: %s", in, out)
	}
}

func TestRoundTrip(t *testing.T) {
	e := newEncoder()
	long := sym(strings.Repeat("z", 100)) // over the inline threshold, interned

	tests := []struct {
		name string
		in   term.Term
	}{
		{"short symbol", sym("a")},
		{"max inline symbol", sym(strings.Repeat("m", 63))},
		{"interned symbol", long},
		{"empty symbol", sym("")},
		{"flat compound", term.Compound(sym("edge"), sym("a"), sym("b"))},
		{"nested compound", term.Compound(sym("f"), term.Compound(sym("g"), sym("x")), sym("y"))},
		{"empty compound", term.Compound()},
		{"single variable", term.Compound(sym("p"), term.Var("$x"))},
		{"repeated variable", term.Compound(sym("edge"), term.Var("$x"), term.Var("$x"))},
		{"two variables", term.Compound(sym("f"), term.Var("$x"), term.Var("$y"), term.Var("$x"))},
		{"anonymous variables", term.Compound(sym("f"), term.Var(term.Anonymous), term.Var(term.Anonymous))},
		{"interned inside compound", term.Compound(sym("has"), long, term.Var("$v"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, e, tt.in)
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	e := newEncoder()
	in := term.Compound(sym("edge"), term.Var("$x"), term.Var("$y"))
	a, _, err := e.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	// Different variable names, same occurrence structure: identical bytes.
	b, _, err := e.Encode(term.Compound(sym("edge"), term.Var("$p"), term.Var("$q")))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("renaming variables changed the encoding:\n%s", diff)
	}
}

func TestVariableSlots(t *testing.T) {
	e := newEncoder()
	// (f $x $x $y): new-var, ref 0, new-var.
	path, names, err := e.Encode(term.Compound(sym("f"), term.Var("$x"), term.Var("$x"), term.Var("$y")))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"$x", "$y"}, names); diff != "" {
		t.Errorf("name table mismatch:\n%s", diff)
	}
	want := []byte{
		0x04,      // arity 4
		0xC1, 'f', // inline symbol "f"
		0xC0, // new var (slot 0)
		0x80, // ref slot 0
		0xC0, // new var (slot 1)
	}
	if diff := cmp.Diff(want, path); diff != "" {
		t.Errorf("encoding mismatch:\n%s", diff)
	}
}

func TestAnonymousNeverShared(t *testing.T) {
	e := newEncoder()
	path, names, err := e.Encode(term.Compound(sym("f"), term.Var(term.Anonymous), term.Var(term.Anonymous)))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("anonymous variables must each claim a slot, got %d", len(names))
	}
	// Both occurrences are new-var tags; no slot reference anywhere.
	for _, b := range path {
		if b >= varRefBase && b < tagNewVar {
			t.Errorf("anonymous variable emitted a slot reference (0x%02X)", b)
		}
	}
}

func TestDecodeCanonicalNames(t *testing.T) {
	e := newEncoder()
	path, _, err := e.Encode(term.Compound(sym("f"), term.Var("$foo"), term.Var("$bar")))
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.Decode(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := term.Compound(sym("f"), term.Var("$a"), term.Var("$b"))
	if !term.Equal(want, out, nil) {
		t.Errorf("canonical decode = %s, want %s", out, want)
	}
}

func TestDecodeSpanBaseSlot(t *testing.T) {
	e := newEncoder()
	// A span cut from a larger path keeps the enclosing slot numbering.
	path, _, err := e.Encode(term.Compound(sym("f"), term.Var("$x"), term.Var("$y")))
	if err != nil {
		t.Fatal(err)
	}
	// The last byte is $y's new-var tag. With baseSlot 1 it decodes to the
	// slot-1 canonical name, not slot 0.
	v, n, err := e.DecodeSpan(path[len(path)-1:], 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("consumed %d bytes, want 1", n)
	}
	if v.Name() != "$b" {
		t.Errorf("decoded %s, want $b", v.Name())
	}
}

func TestGroundedRoundTrip(t *testing.T) {
	e := newEncoder()
	id, err := e.Grounded.Register(term.Codec{
		Name:        "text",
		Serialize:   func(v any) ([]byte, error) { return []byte(v.(string)), nil },
		Deserialize: func(b []byte) (any, error) { return string(b), nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	roundTrip(t, e, term.Compound(sym("doc"), term.Grounded(id, "payload bytes")))
}

func TestEncodeErrors(t *testing.T) {
	e := newEncoder()

	wide := make([]term.Term, MaxArity+1)
	for i := range wide {
		wide[i] = sym("c")
	}
	if _, _, err := e.Encode(term.Compound(wide...)); !errors.Is(err, ErrArityOverflow) {
		t.Errorf("over-wide compound: got %v, want ErrArityOverflow", err)
	}

	many := make([]term.Term, 0, MaxSlots+2)
	many = append(many, sym("f"))
	for i := 0; i < MaxSlots+1; i++ {
		many = append(many, term.Var(term.Anonymous))
	}
	// MaxSlots+1 > MaxArity, so split over two nested compounds.
	inner := term.Compound(many[32:]...)
	outer := term.Compound(append(append([]term.Term{}, many[:32]...), inner)...)
	if _, _, err := e.Encode(outer); !errors.Is(err, ErrSlotOverflow) {
		t.Errorf("over-many slots: got %v, want ErrSlotOverflow", err)
	}

	if _, _, err := e.Encode(term.Grounded(99, "x")); !errors.Is(err, ErrUnregisteredGrounded) {
		t.Errorf("unregistered grounded: got %v, want ErrUnregisteredGrounded", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	e := newEncoder()
	tests := []struct {
		name string
		path []byte
		want error
	}{
		{"reserved tag", []byte{0x40}, ErrMalformedTag},
		{"truncated symbol", []byte{0xC3, 'a'}, ErrTruncated},
		{"truncated compound", []byte{0x02, 0xC1, 'a'}, ErrTruncated},
		{"unknown interned id", append([]byte{0x49}, make([]byte, 8)...), ErrMalformedTag},
		{"empty path", nil, ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Decode(tt.path, nil); !errors.Is(err, tt.want) {
				t.Errorf("Decode(% X) = %v, want %v", tt.path, err, tt.want)
			}
		})
	}

	// Trailing bytes after a complete term are rejected.
	path, _, err := e.Encode(sym("a"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Decode(append(path, 0xC1, 'b'), nil); err == nil {
		t.Error("trailing bytes must be rejected")
	}
}

func TestSpanLen(t *testing.T) {
	e := newEncoder()
	terms := []term.Term{
		sym("a"),
		term.Compound(sym("f"), sym("a"), term.Var("$x")),
		term.Compound(sym("f"), term.Compound(sym("g"), term.Var("$x"), term.Var("$x"))),
	}
	for _, in := range terms {
		path, _, err := e.Encode(in)
		if err != nil {
			t.Fatal(err)
		}
		n, err := SpanLen(path)
		if err != nil {
			t.Fatalf("SpanLen(%s): %v", in, err)
		}
		if n != len(path) {
			t.Errorf("SpanLen(%s) = %d, want %d", in, n, len(path))
		}
	}
	if _, err := SpanLen([]byte{0x02, 0xC1, 'a'}); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated span: got %v, want ErrTruncated", err)
	}
}

func TestFixedPrefix(t *testing.T) {
	e := newEncoder()
	pat, _, err := e.Encode(term.Compound(sym("edge"), sym("a"), term.Var("$x")))
	if err != nil {
		t.Fatal(err)
	}
	fixed, err := FixedPrefix(pat)
	if err != nil {
		t.Fatal(err)
	}
	// Everything before the variable tag is fixed: arity, "edge", "a".
	want := pat[:len(pat)-1]
	if diff := cmp.Diff(want, fixed); diff != "" {
		t.Errorf("fixed prefix mismatch:\n%s", diff)
	}

	ground, _, err := e.Encode(term.Compound(sym("edge"), sym("a"), sym("b")))
	if err != nil {
		t.Fatal(err)
	}
	fixed, err = FixedPrefix(ground)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ground, fixed); diff != "" {
		t.Errorf("ground pattern should be all fixed:\n%s", diff)
	}
}
