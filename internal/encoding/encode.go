package encoding

import (
	"encoding/binary"
	"fmt"

	"triekb/internal/term"
)

// Encoder holds the shared registries an encode or decode needs. Both fields
// are required; the zero Encoder is not usable.
type Encoder struct {
	Symbols  *term.Interner
	Grounded *term.GroundedRegistry
}

// Encode serializes t to its canonical byte path. The returned name table
// maps slot indices to the original variable names, in slot order; pass it
// back to Decode to recover exact names. Terms without variables return a
// nil name table.
//
// Variable encoding is position-dependent: the first occurrence of a name
// emits the new-variable tag and claims the next slot; later occurrences of
// the same name emit a reference to that slot. Anonymous variables always
// claim a fresh slot so they never unify with each other.
func (e Encoder) Encode(t term.Term) ([]byte, []string, error) {
	st := encodeState{enc: e, slots: make(map[string]int)}
	if err := st.emit(t); err != nil {
		return nil, nil, err
	}
	return st.buf, st.names, nil
}

type encodeState struct {
	enc   Encoder
	buf   []byte
	slots map[string]int // variable name -> slot of first occurrence
	names []string       // slot -> name
}

func (st *encodeState) emit(t term.Term) error {
	switch t.Kind() {
	case term.KindSymbol:
		return st.emitSymbol(t.Name())

	case term.KindVariable:
		if slot, ok := st.slots[t.Name()]; ok && !t.IsAnonymous() {
			st.buf = append(st.buf, byte(varRefBase+slot))
			return nil
		}
		slot := len(st.names)
		if slot >= MaxSlots {
			return fmt.Errorf("%w: %q would be slot %d", ErrSlotOverflow, t.Name(), slot)
		}
		if !t.IsAnonymous() {
			st.slots[t.Name()] = slot
		}
		st.names = append(st.names, t.Name())
		st.buf = append(st.buf, tagNewVar)
		return nil

	case term.KindCompound:
		n := t.Arity()
		if n > MaxArity {
			return fmt.Errorf("%w: arity %d > %d", ErrArityOverflow, n, MaxArity)
		}
		st.buf = append(st.buf, byte(n))
		for _, c := range t.Children() {
			if err := st.emit(c); err != nil {
				return err
			}
		}
		return nil

	case term.KindGrounded:
		gv := t.GroundedValue()
		codec, ok := st.enc.Grounded.LookupID(gv.TypeID)
		if !ok {
			return fmt.Errorf("%w: id %d", ErrUnregisteredGrounded, gv.TypeID)
		}
		payload, err := codec.Serialize(gv.Value)
		if err != nil {
			return fmt.Errorf("serialize grounded %q: %w", codec.Name, err)
		}
		st.buf = append(st.buf, tagGrounded)
		st.buf = binary.AppendUvarint(st.buf, gv.TypeID)
		st.buf = binary.AppendUvarint(st.buf, uint64(len(payload)))
		st.buf = append(st.buf, payload...)
		return nil
	}
	return fmt.Errorf("%w: unknown term kind %v", ErrMalformedTag, t.Kind())
}

func (st *encodeState) emitSymbol(name string) error {
	if n := len(name); n >= 1 && n <= maxInlineSymbol {
		st.buf = append(st.buf, byte(symbolBase+n))
		st.buf = append(st.buf, name...)
		return nil
	}
	// Too long (or empty) for the inline form: go through the shared table.
	id := st.enc.Symbols.Intern(name)
	st.buf = append(st.buf, tagInterned)
	st.buf = binary.BigEndian.AppendUint64(st.buf, id)
	return nil
}
