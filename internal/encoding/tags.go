// Package encoding converts terms to and from the canonical tagged byte
// paths keyed by the trie store. Two terms are path-equal iff their
// encodings are byte-identical.
//
// Tag byte layout (payload follows the tag, recursively for children):
//
//	0x00..0x3F  compound, arity = tag (children follow)
//	0x47        grounded value: uvarint type id, uvarint length, payload
//	0x49        interned symbol: 8-byte big-endian id
//	0x80..0xBF  variable reference to slot tag-0x80
//	0xC0        new variable (first occurrence, next slot)
//	0xC1..0xFF  inline symbol, length = tag-0xC0 (1..63 bytes)
//
// Every other byte in 0x40..0x7F is reserved and rejected on decode.
package encoding

import "errors"

const (
	// MaxArity is the compound width cap per encoding layer; wider
	// compounds are rejected, not silently chunked.
	MaxArity = 63

	// MaxSlots caps variable binding sites per encoded path.
	MaxSlots = 64

	maxInlineSymbol = 63

	tagGrounded = 0x47
	tagInterned = 0x49
	tagNewVar   = 0xC0

	varRefBase  = 0x80
	symbolBase  = 0xC0
	internedLen = 8
)

// Error kinds. All are recoverable by rejecting the single offending term.
var (
	ErrUnregisteredGrounded = errors.New("encoding: unregistered grounded type")
	ErrArityOverflow        = errors.New("encoding: compound arity exceeds encoding limit")
	ErrSlotOverflow         = errors.New("encoding: variable slots exceed encoding limit")
	ErrMalformedTag         = errors.New("encoding: malformed or reserved tag byte")
	ErrTruncated            = errors.New("encoding: truncated byte path")
)

// varNames is the canonical slot-to-name table used when a decode has no
// caller-supplied name table.
var varNames = [MaxSlots]string{
	"$a", "$b", "$c", "$d", "$e", "$f", "$g", "$h", "$i", "$j",
	"x10", "x11", "x12", "x13", "x14", "x15", "x16", "x17", "x18", "x19",
	"x20", "x21", "x22", "x23", "x24", "x25", "x26", "x27", "x28", "x29",
	"x30", "x31", "x32", "x33", "x34", "x35", "x36", "x37", "x38", "x39",
	"x40", "x41", "x42", "x43", "x44", "x45", "x46", "x47", "x48", "x49",
	"x50", "x51", "x52", "x53", "x54", "x55", "x56", "x57", "x58", "x59",
	"x60", "x61", "x62", "x63",
}

// CanonicalVarName returns the canonical name for a slot index.
func CanonicalVarName(slot int) string {
	if slot >= 0 && slot < len(varNames) {
		return varNames[slot]
	}
	return "$_overflow"
}
