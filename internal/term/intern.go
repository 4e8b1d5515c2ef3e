package term

import "sync"

// Interner is the shared symbol table: bidirectional name <-> id mapping used
// by the encoder for symbols too long to inline. It is an explicit, injected
// object with its own lifecycle, never a hidden singleton; reads are
// concurrent, writes serialized.
type Interner struct {
	mu    sync.RWMutex
	byStr map[string]uint64
	byID  map[uint64]string
	next  uint64
}

// NewInterner returns an empty symbol table. Ids start at 1; 0 is never a
// valid id so it can serve as a "not interned" sentinel.
func NewInterner() *Interner {
	return &Interner{
		byStr: make(map[string]uint64),
		byID:  make(map[uint64]string),
		next:  1,
	}
}

// Intern returns the id for name, inserting it on first use.
func (in *Interner) Intern(name string) uint64 {
	in.mu.RLock()
	id, ok := in.byStr[name]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byStr[name]; ok {
		return id
	}
	id = in.next
	in.next++
	in.byStr[name] = id
	in.byID[id] = name
	return id
}

// Lookup resolves an id back to its symbol name.
func (in *Interner) Lookup(id uint64) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	name, ok := in.byID[id]
	return name, ok
}

// ID returns the id of an already-interned name without inserting.
func (in *Interner) ID(name string) (uint64, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byStr[name]
	return id, ok
}

// Len returns the number of interned symbols.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byStr)
}

// Entry is one row of the table, used by snapshot save/load.
type Entry struct {
	ID   uint64
	Name string
}

// Entries returns a copy of the table contents in unspecified order.
func (in *Interner) Entries() []Entry {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]Entry, 0, len(in.byID))
	for id, name := range in.byID {
		out = append(out, Entry{ID: id, Name: name})
	}
	return out
}

// Restore replaces the table contents, keeping the next id above every
// restored id. Used when loading a persisted store.
func (in *Interner) Restore(entries []Entry) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.byStr = make(map[string]uint64, len(entries))
	in.byID = make(map[uint64]string, len(entries))
	in.next = 1
	for _, e := range entries {
		in.byStr[e.Name] = e.ID
		in.byID[e.ID] = e.Name
		if e.ID >= in.next {
			in.next = e.ID + 1
		}
	}
}
