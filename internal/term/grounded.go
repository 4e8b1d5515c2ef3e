package term

import (
	"fmt"
	"sync"
)

// Codec is the capability bundle registered for one grounded type: how to
// serialize and deserialize its payload, how two payloads match, and an
// optional execute hook for grounded operations. A closed set of these,
// looked up by stable integer id, replaces runtime polymorphism in the term
// type itself.
type Codec struct {
	Name        string
	Serialize   func(value any) ([]byte, error)
	Deserialize func(data []byte) (any, error)
	Match       func(a, b any) bool
	Execute     func(args []Term) (Term, error)
}

// GroundedRegistry maps type ids and names to codecs. Lookups are concurrent;
// registration is serialized and expected to happen at startup.
type GroundedRegistry struct {
	mu     sync.RWMutex
	byID   map[uint64]Codec
	byName map[string]uint64
	next   uint64
}

// NewGroundedRegistry returns an empty registry. Type ids start at 1.
func NewGroundedRegistry() *GroundedRegistry {
	return &GroundedRegistry{
		byID:   make(map[uint64]Codec),
		byName: make(map[string]uint64),
		next:   1,
	}
}

// Register adds a codec under a fresh type id and returns the id.
// Registering a name twice returns the existing id unchanged.
func (r *GroundedRegistry) Register(c Codec) (uint64, error) {
	if c.Serialize == nil || c.Deserialize == nil {
		return 0, fmt.Errorf("register grounded type %q: serialize and deserialize are required", c.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[c.Name]; ok {
		return id, nil
	}
	id := r.next
	r.next++
	r.byID[id] = c
	r.byName[c.Name] = id
	return id, nil
}

// LookupID returns the codec for a type id.
func (r *GroundedRegistry) LookupID(id uint64) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// LookupName returns the type id registered under name.
func (r *GroundedRegistry) LookupName(name string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}
