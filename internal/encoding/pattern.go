package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Capture is a subterm span cut out of a stored path by a pattern variable's
// first occurrence. Base is the number of binding sites the stored path
// introduces before the span, so the span can be decoded with its enclosing
// path's slot identities intact.
type Capture struct {
	Span []byte
	Base int
}

// RefCheck is a later occurrence of pattern slot Slot: the span found there
// must denote the same value the slot captured.
type RefCheck struct {
	Slot int
	Span []byte
	Base int
}

// FixedPrefix returns the leading bytes of an encoded pattern up to (not
// including) its first variable tag. The trie walk is gated on this prefix;
// a ground pattern returns its full encoding.
func FixedPrefix(pattern []byte) ([]byte, error) {
	pos := 0
	for pos < len(pattern) {
		tag := pattern[pos]
		if tag == tagNewVar || (tag >= varRefBase && tag < tagNewVar) {
			return pattern[:pos], nil
		}
		n, err := tokenLen(pattern[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
	}
	return pattern, nil
}

// MatchPath walks a stored path in lockstep with an encoded pattern.
// Non-variable regions of the pattern must be byte-identical to the path;
// each pattern variable occurrence swallows exactly one complete subterm
// span. Returns the first-occurrence captures in slot order plus the
// reference checks the caller must verify, or ok=false on a structural
// mismatch.
func MatchPath(pattern, path []byte) (caps []Capture, refs []RefCheck, ok bool, err error) {
	pi, si := 0, 0
	storeVars := 0

	for pi < len(pattern) {
		tag := pattern[pi]
		switch {
		case tag == tagNewVar:
			span, n, cErr := cutSpan(path, si)
			if cErr != nil {
				return nil, nil, false, cErr
			}
			if span == nil {
				return nil, nil, false, nil
			}
			caps = append(caps, Capture{Span: span, Base: storeVars})
			storeVars += n
			pi++
			si += len(span)

		case tag >= varRefBase && tag < tagNewVar:
			span, n, cErr := cutSpan(path, si)
			if cErr != nil {
				return nil, nil, false, cErr
			}
			if span == nil {
				return nil, nil, false, nil
			}
			refs = append(refs, RefCheck{Slot: int(tag - varRefBase), Span: span, Base: storeVars})
			storeVars += n
			pi++
			si += len(span)

		default:
			n, tErr := tokenLen(pattern[pi:])
			if tErr != nil {
				return nil, nil, false, tErr
			}
			if si+n > len(path) || !bytes.Equal(pattern[pi:pi+n], path[si:si+n]) {
				return nil, nil, false, nil
			}
			pi += n
			si += n
		}
	}
	if si != len(path) {
		return nil, nil, false, nil
	}
	return caps, refs, true, nil
}

// cutSpan slices one complete subterm out of path at offset, returning the
// span and how many new binding sites it introduces. A nil span with nil
// error means the path ends before a full subterm (structural mismatch).
func cutSpan(path []byte, offset int) ([]byte, int, error) {
	if offset >= len(path) {
		return nil, 0, nil
	}
	l, err := SpanLen(path[offset:])
	if err != nil {
		return nil, 0, err
	}
	span := path[offset : offset+l]
	return span, countNewVars(span), nil
}

// countNewVars counts new-variable tags at token boundaries of an encoded
// span (payload bytes that happen to equal the tag are skipped).
func countNewVars(span []byte) int {
	pos, count := 0, 0
	for pos < len(span) {
		if span[pos] == tagNewVar {
			count++
			pos++
			continue
		}
		n, err := tokenLen(span[pos:])
		if err != nil {
			return count
		}
		pos += n
	}
	return count
}

// tokenLen returns the byte length of one tag plus its immediate payload,
// not descending into compound children.
func tokenLen(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty token", ErrTruncated)
	}
	tag := b[0]
	switch {
	case tag <= MaxArity:
		return 1, nil
	case tag == tagNewVar || (tag >= varRefBase && tag < tagNewVar):
		return 1, nil
	case tag > symbolBase:
		return 1 + int(tag-symbolBase), nil
	case tag == tagInterned:
		return 1 + internedLen, nil
	case tag == tagGrounded:
		pos := 1
		_, n := binary.Uvarint(b[pos:])
		if n <= 0 {
			return 0, fmt.Errorf("%w: bad uvarint", ErrMalformedTag)
		}
		pos += n
		size, n2 := binary.Uvarint(b[pos:])
		if n2 <= 0 {
			return 0, fmt.Errorf("%w: bad uvarint", ErrMalformedTag)
		}
		return pos + n2 + int(size), nil
	}
	return 0, fmt.Errorf("%w: 0x%02X", ErrMalformedTag, tag)
}
