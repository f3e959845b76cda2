package registry

import (
	"sync"

	"github.com/roach88/quorumgate/internal/message"
)

// Adapter pairs a bridge adapter's identity with its human-readable channel
// name (e.g. "wormhole", "axelar"). The name is reporting metadata only;
// identity is what delivery bookkeeping keys on.
type Adapter struct {
	Identity message.Address
	Name     string
}

// Registry is the trusted adapter set.
// Thread-safe; insertion-ordered.
type Registry struct {
	mu      sync.RWMutex
	order   []message.Address
	entries map[message.Address]string // identity -> name
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[message.Address]string),
	}
}

// Add registers an adapter. Adding an already-trusted identity is a no-op
// (no duplicate accounting, the existing name is kept). Returns true if the
// identity was newly added.
func (r *Registry) Add(identity message.Address, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[identity]; exists {
		return false
	}
	if name == "" {
		name = string(identity)
	}
	r.entries[identity] = name
	r.order = append(r.order, identity)
	return true
}

// Remove drops an adapter from the set. Removing a non-member is a no-op.
// Returns true if the identity was a member.
func (r *Registry) Remove(identity message.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[identity]; !exists {
		return false
	}
	delete(r.entries, identity)
	for i, id := range r.order {
		if id == identity {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// IsTrusted reports current membership. Membership is evaluated at the
// moment of the call, never cached by callers.
func (r *Registry) IsTrusted(identity message.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[identity]
	return ok
}

// Count returns the number of trusted adapters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns the trusted identities in insertion order.
func (r *Registry) List() []message.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]message.Address, len(r.order))
	copy(out, r.order)
	return out
}

// Name resolves an identity to its channel name.
func (r *Registry) Name(identity message.Address) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.entries[identity]
	return name, ok
}

// Snapshot returns the full membership in insertion order.
func (r *Registry) Snapshot() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Adapter{Identity: id, Name: r.entries[id]})
	}
	return out
}

// Clone returns an independent copy of the registry.
// Administration batches mutate a clone so a failing batch leaves the live
// set untouched.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := New()
	c.order = make([]message.Address, len(r.order))
	copy(c.order, r.order)
	for id, name := range r.entries {
		c.entries[id] = name
	}
	return c
}
