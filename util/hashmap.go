// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

// HashMap is a chained hash map with caller-supplied equality and hash
// functions. It exists because the interned-value tables key on structural
// equality of terms, which Go's built-in maps cannot express.
type HashMap[K, V any] struct {
	eq    func(K, K) bool
	hash  func(K) int
	table map[int]*hashEntry[K, V]
	size  int
}

type hashEntry[K, V any] struct {
	k    K
	v    V
	next *hashEntry[K, V]
}

// NewHashMap returns a new empty HashMap.
func NewHashMap[K, V any](eq func(K, K) bool, hash func(K) int) *HashMap[K, V] {
	return &HashMap[K, V]{
		eq:    eq,
		hash:  hash,
		table: make(map[int]*hashEntry[K, V]),
	}
}

// Get returns the value for k.
func (h *HashMap[K, V]) Get(k K) (V, bool) {
	for entry := h.table[h.hash(k)]; entry != nil; entry = entry.next {
		if h.eq(entry.k, k) {
			return entry.v, true
		}
	}
	var zero V
	return zero, false
}

// Put inserts a key/value pair, overwriting any existing value for k.
func (h *HashMap[K, V]) Put(k K, v V) {
	hash := h.hash(k)
	head := h.table[hash]
	for entry := head; entry != nil; entry = entry.next {
		if h.eq(entry.k, k) {
			entry.v = v
			return
		}
	}
	h.table[hash] = &hashEntry[K, V]{k: k, v: v, next: head}
	h.size++
}

// Delete removes the entry for k. It returns false if k was not present.
func (h *HashMap[K, V]) Delete(k K) bool {
	hash := h.hash(k)
	var prev *hashEntry[K, V]
	for entry := h.table[hash]; entry != nil; entry = entry.next {
		if h.eq(entry.k, k) {
			if prev != nil {
				prev.next = entry.next
			} else if entry.next != nil {
				h.table[hash] = entry.next
			} else {
				delete(h.table, hash)
			}
			h.size--
			return true
		}
		prev = entry
	}
	return false
}

// Iter invokes iter for each entry. If iter returns true, iteration stops
// and Iter returns true.
func (h *HashMap[K, V]) Iter(iter func(K, V) bool) bool {
	for _, entry := range h.table {
		for ; entry != nil; entry = entry.next {
			if iter(entry.k, entry.v) {
				return true
			}
		}
	}
	return false
}

// Len returns the number of entries.
func (h *HashMap[K, V]) Len() int {
	return h.size
}
