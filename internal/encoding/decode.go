package encoding

import (
	"encoding/binary"
	"fmt"

	"triekb/internal/term"
)

// Decode deserializes a byte path back into a term. names may be nil, in
// which case variables take canonical slot-derived names. Decode consumes
// exactly one term and rejects trailing bytes.
func (e Encoder) Decode(path []byte, names []string) (term.Term, error) {
	t, n, err := e.DecodeSpan(path, 0, names)
	if err != nil {
		return term.Term{}, err
	}
	if n != len(path) {
		return term.Term{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTag, len(path)-n)
	}
	return t, nil
}

// DecodeSpan deserializes the single term at the start of path and returns
// it with the number of bytes consumed. baseSlot offsets new-variable slot
// numbering: a span cut out of a larger path must keep the enclosing path's
// slot identities, so the caller passes how many binding sites precede the
// span. Slot references are absolute and unaffected.
func (e Encoder) DecodeSpan(path []byte, baseSlot int, names []string) (term.Term, int, error) {
	st := decodeState{enc: e, buf: path, nextSlot: baseSlot, names: names}
	t, err := st.parse()
	if err != nil {
		return term.Term{}, 0, err
	}
	return t, st.pos, nil
}

type decodeState struct {
	enc      Encoder
	buf      []byte
	pos      int
	nextSlot int
	names    []string
}

func (st *decodeState) varName(slot int) string {
	if slot >= 0 && slot < len(st.names) && st.names[slot] != "" {
		return st.names[slot]
	}
	return CanonicalVarName(slot)
}

func (st *decodeState) readByte() (byte, error) {
	if st.pos >= len(st.buf) {
		return 0, fmt.Errorf("%w: at offset %d", ErrTruncated, st.pos)
	}
	b := st.buf[st.pos]
	st.pos++
	return b, nil
}

func (st *decodeState) take(n int) ([]byte, error) {
	if st.pos+n > len(st.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, st.pos)
	}
	b := st.buf[st.pos : st.pos+n]
	st.pos += n
	return b, nil
}

func (st *decodeState) uvarint() (uint64, error) {
	v, n := binary.Uvarint(st.buf[st.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: bad uvarint at offset %d", ErrMalformedTag, st.pos)
	}
	st.pos += n
	return v, nil
}

func (st *decodeState) parse() (term.Term, error) {
	tag, err := st.readByte()
	if err != nil {
		return term.Term{}, err
	}

	switch {
	case tag <= MaxArity: // compound
		n := int(tag)
		children := make([]term.Term, 0, n)
		for i := 0; i < n; i++ {
			c, err := st.parse()
			if err != nil {
				return term.Term{}, err
			}
			children = append(children, c)
		}
		return term.Compound(children...), nil

	case tag == tagNewVar:
		slot := st.nextSlot
		st.nextSlot++
		return term.Var(st.varName(slot)), nil

	case tag >= varRefBase && tag < tagNewVar:
		return term.Var(st.varName(int(tag - varRefBase))), nil

	case tag > symbolBase: // inline symbol
		b, err := st.take(int(tag - symbolBase))
		if err != nil {
			return term.Term{}, err
		}
		return term.Symbol(string(b)), nil

	case tag == tagInterned:
		b, err := st.take(internedLen)
		if err != nil {
			return term.Term{}, err
		}
		id := binary.BigEndian.Uint64(b)
		name, ok := st.enc.Symbols.Lookup(id)
		if !ok {
			return term.Term{}, fmt.Errorf("%w: unknown symbol id %d", ErrMalformedTag, id)
		}
		return term.Symbol(name), nil

	case tag == tagGrounded:
		typeID, err := st.uvarint()
		if err != nil {
			return term.Term{}, err
		}
		size, err := st.uvarint()
		if err != nil {
			return term.Term{}, err
		}
		payload, err := st.take(int(size))
		if err != nil {
			return term.Term{}, err
		}
		codec, ok := st.enc.Grounded.LookupID(typeID)
		if !ok {
			return term.Term{}, fmt.Errorf("%w: id %d", ErrUnregisteredGrounded, typeID)
		}
		value, err := codec.Deserialize(payload)
		if err != nil {
			return term.Term{}, fmt.Errorf("deserialize grounded %q: %w", codec.Name, err)
		}
		return term.Grounded(typeID, value), nil
	}

	return term.Term{}, fmt.Errorf("%w: 0x%02X at offset %d", ErrMalformedTag, tag, st.pos-1)
}

// SpanLen returns the byte length of the single complete term encoded at the
// start of path, without building the term. The matcher uses it to cut
// variable-occupied subterm spans out of matched paths.
func SpanLen(path []byte) (int, error) {
	pos := 0
	pending := 1
	for pending > 0 {
		if pos >= len(path) {
			return 0, fmt.Errorf("%w: at offset %d", ErrTruncated, pos)
		}
		tag := path[pos]
		pos++
		pending--
		switch {
		case tag <= MaxArity:
			pending += int(tag)
		case tag == tagNewVar || (tag >= varRefBase && tag < tagNewVar):
			// no payload
		case tag > symbolBase:
			pos += int(tag - symbolBase)
		case tag == tagInterned:
			pos += internedLen
		case tag == tagGrounded:
			_, n := binary.Uvarint(path[pos:])
			if n <= 0 {
				return 0, fmt.Errorf("%w: bad uvarint at offset %d", ErrMalformedTag, pos)
			}
			pos += n
			size, n2 := binary.Uvarint(path[pos:])
			if n2 <= 0 {
				return 0, fmt.Errorf("%w: bad uvarint at offset %d", ErrMalformedTag, pos)
			}
			pos += n2 + int(size)
		default:
			return 0, fmt.Errorf("%w: 0x%02X at offset %d", ErrMalformedTag, tag, pos-1)
		}
	}
	if pos > len(path) {
		return 0, fmt.Errorf("%w: span runs past end", ErrTruncated)
	}
	return pos, nil
}
