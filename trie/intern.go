// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package trie

import (
	"sync"

	"github.com/prolite-lang/prolite/term"
	"github.com/prolite-lang/prolite/util"
)

// indirectTable interns heavy atomic values (strings) reached through a
// token so many paths can share one copy. Entries are reference counted
// independently of the node structure: every node whose key references an
// entry holds one reference.
type indirectTable struct {
	mtx    sync.Mutex
	byVal  *util.HashMap[term.Value, *indirect]
	byID   map[int64]*indirect
	nextID int64
}

type indirect struct {
	id    int64
	value term.Value
	refs  int64
}

func newIndirectTable() *indirectTable {
	eq := func(a, b term.Value) bool { return a.Equal(b) }
	hash := func(v term.Value) int { return v.Hash() }
	return &indirectTable{
		byVal: util.NewHashMap[term.Value, *indirect](eq, hash),
		byID:  map[int64]*indirect{},
	}
}

// intern returns the id for v, creating an entry if add is true. The second
// return value is false if v is not interned and add is false. The returned
// entry's reference count has been incremented when add is true.
func (t *indirectTable) intern(v term.Value, add bool) (int64, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	entry, ok := t.byVal.Get(v)
	if !ok {
		if !add {
			return 0, false
		}
		t.nextID++
		entry = &indirect{id: t.nextID, value: v}
		t.byVal.Put(v, entry)
		t.byID[entry.id] = entry
	}
	if add {
		entry.refs++
	}
	return entry.id, true
}

// value returns the interned value for id.
func (t *indirectTable) value(id int64) (term.Value, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	entry, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return entry.value, true
}

// release drops one reference to id, removing the entry when the count
// reaches zero.
func (t *indirectTable) release(id int64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	entry, ok := t.byID[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		t.byVal.Delete(entry.value)
		delete(t.byID, id)
	}
}

func (t *indirectTable) len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.byID)
}
