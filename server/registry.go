// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

// EntityID identifies a [Handle] within a [Registry].
type EntityID uint64

// Registry maps identifiers to live handles. It is owned by the
// orchestrator and is not safe for concurrent use.
type Registry struct {
	next    EntityID
	handles map[EntityID]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[EntityID]*Handle),
	}
}

// Insert registers h under a fresh identifier.
func (r *Registry) Insert(h *Handle) EntityID {
	r.next++
	r.handles[r.next] = h
	return r.next
}

func (r *Registry) Get(id EntityID) (*Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) Remove(id EntityID) {
	delete(r.handles, id)
}

func (r *Registry) Len() int {
	return len(r.handles)
}

// Each calls f for every handle, in no particular order, until f
// returns false. f may remove the handle it is given.
func (r *Registry) Each(f func(EntityID, *Handle) bool) {
	for id, h := range r.handles {
		if !f(id, h) {
			return
		}
	}
}
