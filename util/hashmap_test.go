// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"testing"
)

func newTestMap() *HashMap[string, int] {
	eq := func(a, b string) bool { return a == b }
	// Constant hash forces every key onto one chain, exercising collision
	// handling.
	hash := func(string) int { return 7 }
	return NewHashMap[string, int](eq, hash)
}

func TestHashMapPutGet(t *testing.T) {
	m := newTestMap()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 3)

	if v, ok := m.Get("a"); !ok || v != 3 {
		t.Fatalf("Expected 3 but got %v, %v", v, ok)
	}
	if v, ok := m.Get("b"); !ok || v != 2 {
		t.Fatalf("Expected 2 but got %v, %v", v, ok)
	}
	if _, ok := m.Get("c"); ok {
		t.Fatal("Expected miss for c")
	}
	if m.Len() != 2 {
		t.Fatalf("Expected len 2 but got %d", m.Len())
	}
}

func TestHashMapDelete(t *testing.T) {
	m := newTestMap()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3)

	if !m.Delete("b") {
		t.Fatal("Expected delete of b to succeed")
	}
	if m.Delete("b") {
		t.Fatal("Expected second delete of b to fail")
	}
	if m.Len() != 2 {
		t.Fatalf("Expected len 2 but got %d", m.Len())
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := m.Get(k); !ok {
			t.Fatalf("Expected %v to survive", k)
		}
	}
}

func TestHashMapIter(t *testing.T) {
	m := newTestMap()
	m.Put("a", 1)
	m.Put("b", 2)

	seen := map[string]int{}
	stopped := m.Iter(func(k string, v int) bool {
		seen[k] = v
		return false
	})
	if stopped {
		t.Fatal("Expected full iteration")
	}
	if len(seen) != 2 || seen["a"] != 1 || seen["b"] != 2 {
		t.Fatalf("Unexpected entries: %v", seen)
	}

	count := 0
	stopped = m.Iter(func(string, int) bool {
		count++
		return true
	})
	if !stopped || count != 1 {
		t.Fatalf("Expected early stop after 1 entry, got %v after %d", stopped, count)
	}
}

func TestFIFO(t *testing.T) {
	q := NewFIFO(1, 2, 3)
	if q.Len() != 3 {
		t.Fatalf("Expected len 3 but got %d", q.Len())
	}

	for want := 1; want <= 3; want++ {
		got, ok := q.Pop()
		if !ok || got != want {
			t.Fatalf("Expected %d but got %v, %v", want, got, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Expected empty queue")
	}

	q.Push(4)
	if got, ok := q.Pop(); !ok || got != 4 {
		t.Fatalf("Expected 4 but got %v, %v", got, ok)
	}
	if q.Len() != 0 {
		t.Fatalf("Expected len 0 but got %d", q.Len())
	}
}
