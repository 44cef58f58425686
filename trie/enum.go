// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package trie

import (
	"slices"
	"strings"
)

// Iterator enumerates the payload-carrying nodes of a trie in
// children-then-grandchildren order. It maintains an explicit choice-point
// stack (one frame per multi-child node visited) rather than recursing, so
// an enumeration can be suspended, cloned and resumed across scheduling
// boundaries.
//
// Enumeration is well-defined over the structure reachable at creation
// time; siblings inserted concurrently are not guaranteed to be seen.
type Iterator struct {
	t     *Trie
	stack []*choicePoint
	fresh bool
	done  bool
}

type choicePoint struct {
	keys  []key
	nodes []*Node
	idx   int
}

// Iterate returns a new iterator over t. The iterator holds a reference to
// the trie until Close is called.
func (t *Trie) Iterate() *Iterator {
	t.Acquire()
	it := &Iterator{t: t, fresh: true}
	it.descend(&t.root)
	return it
}

// Close releases the iterator's reference. Safe to call more than once.
func (it *Iterator) Close() {
	if !it.done {
		it.done = true
		it.t.Release()
	}
}

// Clone returns an independent iterator positioned at the same choice-point
// snapshot. Used to resume an enumeration from a saved state.
func (it *Iterator) Clone() *Iterator {
	it.t.Acquire()
	cpy := &Iterator{t: it.t, fresh: it.fresh, done: it.done}
	cpy.stack = make([]*choicePoint, len(it.stack))
	for i, cp := range it.stack {
		cpy.stack[i] = &choicePoint{keys: cp.keys, nodes: cp.nodes, idx: cp.idx}
	}
	return cpy
}

// Next returns the next node carrying a payload, or false when the
// enumeration is exhausted.
func (it *Iterator) Next() (*Node, bool) {
	if it.done {
		return nil, false
	}
	for {
		if it.fresh {
			it.fresh = false
		} else if !it.advance() {
			return nil, false
		}
		leaf := it.current()
		if leaf == nil {
			return nil, false
		}
		if leaf.value.Load() != nil {
			return leaf, true
		}
	}
}

func (it *Iterator) current() *Node {
	if len(it.stack) == 0 {
		return nil
	}
	cp := it.stack[len(it.stack)-1]
	return cp.nodes[cp.idx]
}

// descend pushes one choice point per node with children, stopping at a
// childless node.
func (it *Iterator) descend(n *Node) {
	for {
		cp := newChoicePoint(n)
		if cp == nil {
			return
		}
		it.stack = append(it.stack, cp)
		n = cp.nodes[cp.idx]
	}
}

// advance backtracks to the deepest choice point with an untried sibling
// and descends from it.
func (it *Iterator) advance() bool {
	for len(it.stack) > 0 {
		cp := it.stack[len(it.stack)-1]
		cp.idx++
		if cp.idx < len(cp.nodes) {
			it.descend(cp.nodes[cp.idx])
			return true
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	return false
}

func newChoicePoint(n *Node) *choicePoint {
	ch := n.children.Load()
	if ch == nil {
		return nil
	}
	switch ch.kind {
	case childrenSingle:
		return &choicePoint{keys: []key{ch.key}, nodes: []*Node{ch.child}}
	case childrenHashed:
		cp := &choicePoint{}
		ch.hashed.Range(func(k, v any) bool {
			cp.keys = append(cp.keys, k.(key))
			cp.nodes = append(cp.nodes, v.(*Node))
			return true
		})
		if len(cp.nodes) == 0 {
			return nil
		}
		// Hashed children have no inherent order; sort the snapshot so
		// repeated enumerations of an unchanged trie agree.
		order := make([]int, len(cp.keys))
		for i := range order {
			order[i] = i
		}
		slices.SortFunc(order, func(a, b int) int {
			return compareKeys(cp.keys[a], cp.keys[b])
		})
		keys := make([]key, len(order))
		nodes := make([]*Node, len(order))
		for i, j := range order {
			keys[i], nodes[i] = cp.keys[j], cp.nodes[j]
		}
		cp.keys, cp.nodes = keys, nodes
		return cp
	}
	return nil
}

func compareKeys(a, b key) int {
	if a.kind != b.kind {
		return int(a.kind) - int(b.kind)
	}
	if cmp := strings.Compare(a.str, b.str); cmp != 0 {
		return cmp
	}
	switch {
	case a.num < b.num:
		return -1
	case a.num > b.num:
		return 1
	}
	return 0
}
