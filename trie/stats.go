// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package trie

// Stats describes the approximate footprint of a trie.
type Stats struct {
	Nodes    int   `json:"nodes"`
	Values   int   `json:"values"`
	Hashes   int   `json:"hashes"`
	Interned int   `json:"interned"`
	Bytes    int64 `json:"bytes"`
}

// Stats walks the trie and returns its footprint. Not performance critical;
// intended for introspection tooling.
func (t *Trie) Stats() Stats {
	t.Acquire()
	defer t.Release()

	stats := Stats{Interned: t.indirects.len()}
	t.statChildren(&t.root, &stats)
	return stats
}

// statChildren tallies the subtrie below n. The root is embedded in the
// Trie rather than allocated, so it stays out of the node count and Stats
// agrees with NodeCount.
func (t *Trie) statChildren(n *Node, stats *Stats) {
	ch := n.children.Load()
	if ch == nil {
		return
	}
	switch ch.kind {
	case childrenSingle:
		t.statNode(ch.child, stats)
	case childrenHashed:
		stats.Hashes++
		ch.hashed.Range(func(_, v any) bool {
			t.statNode(v.(*Node), stats)
			return true
		})
	}
}

func (t *Trie) statNode(n *Node, stats *Stats) {
	stats.Nodes++
	stats.Bytes += nodeBytes
	if n.value.Load() != nil {
		stats.Values++
	}
	t.statChildren(n, stats)
}
