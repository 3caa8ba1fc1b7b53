// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

// Registry is a side table that attaches metadata to an opaque Vulkan
// handle. Lookups are by handle identity. Iteration through Handles
// follows insertion order, and removal keeps the order of survivors.
//
// A Registry is not safe for concurrent use.
type Registry[H comparable, M any] struct {
	entries map[H]M
	order   []H
}

// Insert attaches metadata to handle. Inserting a handle that is already
// present replaces its metadata in place.
func (r *Registry[H, M]) Insert(handle H, metadata M) error {
	var zero H
	if handle == zero {
		return newCallerError("Registry.Insert", "null handle")
	}
	if r.entries == nil {
		r.entries = make(map[H]M)
	}
	if _, ok := r.entries[handle]; !ok {
		r.order = append(r.order, handle)
	}
	r.entries[handle] = metadata
	return nil
}

// Find returns the metadata of a live handle.
func (r *Registry[H, M]) Find(handle H) (M, bool) {
	m, ok := r.entries[handle]
	return m, ok
}

// Remove detaches handle and returns what was attached to it.
// Once the last entry is gone the backing storage is released.
func (r *Registry[H, M]) Remove(handle H) (M, bool) {
	m, ok := r.entries[handle]
	if !ok {
		return m, false
	}
	delete(r.entries, handle)
	for idx, h := range r.order {
		if h == handle {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	if len(r.entries) == 0 {
		r.entries = nil
		r.order = nil
	}
	return m, true
}

// Len returns the number of live entries.
func (r *Registry[H, M]) Len() int {
	return len(r.entries)
}

// Capacity returns the number of slots currently allocated for entries.
// An emptied registry reports zero.
func (r *Registry[H, M]) Capacity() int {
	return cap(r.order)
}

// Handles returns live handles in insertion order.
func (r *Registry[H, M]) Handles() []H {
	handles := make([]H, len(r.order))
	copy(handles, r.order)
	return handles
}

// Clear drops every entry.
func (r *Registry[H, M]) Clear() {
	r.entries = nil
	r.order = nil
}
