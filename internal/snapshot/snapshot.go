// Package snapshot reads and writes the versioned binary persisted form of
// a term store: a fixed header, snapshot metadata, the interned-symbol
// table, the encoded paths, and a trailing integrity checksum. Loads verify
// the checksum and version before trusting any content; a corrupt or
// unknown snapshot is rejected whole, never partially applied.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/google/uuid"

	"triekb/internal/term"
)

// Layout, all integers big-endian:
//
//	magic "TKB1" | u16 version | u16 flags | body | u64 xxhash64
//
// The checksum covers every preceding byte, header included. The body is
// snappy-compressed when flag bit 0 is set:
//
//	16-byte uuid | i64 created-at (unix seconds)
//	| uvarint symbol count | { uvarint id, uvarint len, name bytes }...
//	| uvarint path count   | { uvarint len, path bytes }...

const (
	magic   = "TKB1"
	version = 1

	flagSnappy uint16 = 1 << 0

	headerLen   = 8
	checksumLen = 8
)

var (
	// ErrVersionUnsupported marks a snapshot written by a format revision
	// this loader does not understand.
	ErrVersionUnsupported = errors.New("snapshot: unsupported version")
	// ErrChecksumMismatch marks a snapshot whose trailing hash does not
	// cover its content. The load fails entirely.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	// ErrBadMagic marks a file that is not a snapshot at all.
	ErrBadMagic = errors.New("snapshot: bad magic")
	errTruncated = errors.New("snapshot: truncated body")
)

// Archive is the in-memory form of a snapshot.
type Archive struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Symbols   []term.Entry
	Paths     [][]byte
}

// New returns an archive stamped with a fresh id and the current time.
func New(symbols []term.Entry, paths [][]byte) *Archive {
	// Second precision: the persisted form stores unix seconds.
	return &Archive{ID: uuid.New(), CreatedAt: time.Now().UTC().Truncate(time.Second), Symbols: symbols, Paths: paths}
}

// Write serializes a to w, optionally snappy-compressing the body.
func Write(w io.Writer, a *Archive, compress bool) error {
	body := appendBody(nil, a)
	var flags uint16
	if compress {
		flags |= flagSnappy
		body = snappy.Encode(nil, body)
	}

	buf := make([]byte, 0, headerLen+len(body)+checksumLen)
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint16(buf, version)
	buf = binary.BigEndian.AppendUint16(buf, flags)
	buf = append(buf, body...)
	buf = binary.BigEndian.AppendUint64(buf, xxhash.Sum64(buf))

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("snapshot: write: %w", err)
	}
	return nil
}

// Read parses a snapshot, verifying checksum and version first.
func Read(r io.Reader) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	if len(data) < headerLen+checksumLen {
		return nil, fmt.Errorf("%w: %d bytes", errTruncated, len(data))
	}
	if string(data[:4]) != magic {
		return nil, ErrBadMagic
	}
	content, trailer := data[:len(data)-checksumLen], data[len(data)-checksumLen:]
	if xxhash.Sum64(content) != binary.BigEndian.Uint64(trailer) {
		return nil, ErrChecksumMismatch
	}
	if v := binary.BigEndian.Uint16(data[4:6]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrVersionUnsupported, v)
	}
	flags := binary.BigEndian.Uint16(data[6:8])

	body := content[headerLen:]
	if flags&flagSnappy != 0 {
		body, err = snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("snapshot: decompress body: %w", err)
		}
	}
	return parseBody(body)
}

// WriteFile writes the archive atomically: to a temp file in the target
// directory, then renamed into place.
func WriteFile(path string, a *Archive, compress bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, a, compress); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}
	return nil
}

// ReadFile loads and verifies a snapshot file.
func ReadFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func appendBody(buf []byte, a *Archive) []byte {
	buf = append(buf, a.ID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(a.CreatedAt.Unix()))

	buf = binary.AppendUvarint(buf, uint64(len(a.Symbols)))
	for _, e := range a.Symbols {
		buf = binary.AppendUvarint(buf, e.ID)
		buf = binary.AppendUvarint(buf, uint64(len(e.Name)))
		buf = append(buf, e.Name...)
	}

	buf = binary.AppendUvarint(buf, uint64(len(a.Paths)))
	for _, p := range a.Paths {
		buf = binary.AppendUvarint(buf, uint64(len(p)))
		buf = append(buf, p...)
	}
	return buf
}

func parseBody(body []byte) (*Archive, error) {
	a := &Archive{}
	if len(body) < 16+8 {
		return nil, errTruncated
	}
	copy(a.ID[:], body[:16])
	a.CreatedAt = time.Unix(int64(binary.BigEndian.Uint64(body[16:24])), 0).UTC()
	body = body[24:]

	nSyms, body, err := takeUvarint(body)
	if err != nil {
		return nil, err
	}
	a.Symbols = make([]term.Entry, 0, nSyms)
	for i := uint64(0); i < nSyms; i++ {
		id, rest, err := takeUvarint(body)
		if err != nil {
			return nil, err
		}
		nameLen, rest, err := takeUvarint(rest)
		if err != nil {
			return nil, err
		}
		if uint64(len(rest)) < nameLen {
			return nil, errTruncated
		}
		a.Symbols = append(a.Symbols, term.Entry{ID: id, Name: string(rest[:nameLen])})
		body = rest[nameLen:]
	}

	nPaths, body, err := takeUvarint(body)
	if err != nil {
		return nil, err
	}
	a.Paths = make([][]byte, 0, nPaths)
	for i := uint64(0); i < nPaths; i++ {
		pathLen, rest, err := takeUvarint(body)
		if err != nil {
			return nil, err
		}
		if uint64(len(rest)) < pathLen {
			return nil, errTruncated
		}
		p := make([]byte, pathLen)
		copy(p, rest[:pathLen])
		a.Paths = append(a.Paths, p)
		body = rest[pathLen:]
	}
	if len(body) != 0 {
		return nil, fmt.Errorf("snapshot: %d trailing body bytes", len(body))
	}
	return a, nil
}

func takeUvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, errTruncated
	}
	return v, b[n:], nil
}
