// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package trie implements the answer index: a path-compressed tree mapping
// the depth-first token serialization of a term to a node that optionally
// carries a payload. Lookups are wait-free and inserts lock-free: all
// structural transitions (first-child install, single-to-hashed promotion,
// payload attach) are single compare-and-publish operations with retry on
// conflict, so concurrent readers never observe a partially constructed
// child.
package trie

import (
	"sync"
	"sync/atomic"

	"github.com/prolite-lang/prolite/term"
)

// approximate per-node footprint used for pool accounting and stats.
const nodeBytes = 96

type childrenKind uint8

const (
	childrenSingle childrenKind = iota
	childrenHashed
)

// children is the children relation of a node. It starts absent (nil slot),
// becomes a single (key, child) pair for the first distinct child and is
// promoted to a hashed key->child map once a second distinct key appears.
// Promotion is one-directional.
type children struct {
	kind   childrenKind
	key    key      // single
	child  *Node    // single
	hashed sync.Map // hashed: key -> *Node
	size   atomic.Int64
}

// Node represents one token position reached from the root.
type Node struct {
	key      key
	parent   *Node
	value    atomic.Pointer[valueBox]
	children atomic.Pointer[children]
}

type valueBox struct {
	value any
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsGround reports whether the path from the root to n contains no variable
// tokens.
func (n *Node) IsGround() bool {
	for ; n.parent != nil; n = n.parent {
		if n.key.kind == keyVar {
			return false
		}
	}
	return true
}

func (n *Node) getChild(k key) *Node {
	ch := n.children.Load()
	if ch == nil {
		return nil
	}
	switch ch.kind {
	case childrenSingle:
		if ch.key == k {
			return ch.child
		}
		return nil
	case childrenHashed:
		if v, ok := ch.hashed.Load(k); ok {
			return v.(*Node)
		}
		return nil
	}
	return nil
}

// Pool bounds the node space of one or more tries. The zero limit means
// unbounded.
type Pool struct {
	size  atomic.Int64
	limit int64
}

// NewPool returns a pool limited to the given number of bytes.
func NewPool(limit int64) *Pool {
	return &Pool{limit: limit}
}

// Size returns the current pool usage in bytes.
func (p *Pool) Size() int64 {
	return p.size.Load()
}

func (p *Pool) reserve(n int64) bool {
	if p == nil {
		return true
	}
	if p.limit > 0 && p.size.Load()+n > p.limit {
		return false
	}
	p.size.Add(n)
	return true
}

func (p *Pool) unreserve(n int64) {
	if p != nil {
		p.size.Add(-n)
	}
}

// Trie is a reference-counted answer index. Every concurrent holder,
// including in-flight iterators, must Acquire before use and Release after;
// the structure is torn down when the count reaches zero.
type Trie struct {
	root       Node
	refs       atomic.Int64
	nodeCount  atomic.Int64
	valueCount atomic.Int64
	indirects  *indirectTable
	pool       *Pool
	eq         func(a, b any) bool
	maxTerm    int
}

// Option configures a Trie.
type Option func(*Trie)

// WithPool bounds node allocation by the given pool.
func WithPool(p *Pool) Option {
	return func(t *Trie) { t.pool = p }
}

// WithValueEqual overrides the payload equality predicate used to detect
// redundant updates.
func WithValueEqual(eq func(a, b any) bool) Option {
	return func(t *Trie) { t.eq = eq }
}

// WithMaxTermSize bounds the number of values allocated by a single
// materialization. Exceeding the bound is a retryable resource error.
func WithMaxTermSize(n int) Option {
	return func(t *Trie) { t.maxTerm = n }
}

// New returns a new empty Trie with one reference held by the caller.
func New(opts ...Option) *Trie {
	t := &Trie{
		indirects: newIndirectTable(),
		eq:        defaultValueEqual,
	}
	t.refs.Store(1)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func defaultValueEqual(a, b any) bool {
	if av, ok := a.(term.Value); ok {
		if bv, ok := b.(term.Value); ok {
			return av.Equal(bv)
		}
		return false
	}
	return a == b
}

// Acquire increments the reference count.
func (t *Trie) Acquire() {
	t.refs.Add(1)
}

// Release decrements the reference count, destroying the index when it
// reaches zero.
func (t *Trie) Release() {
	if t.refs.Add(-1) == 0 {
		t.clearNode(&t.root)
	}
}

// NodeCount returns the number of allocated nodes.
func (t *Trie) NodeCount() int {
	return int(t.nodeCount.Load())
}

// ValueCount returns the number of nodes carrying a payload.
func (t *Trie) ValueCount() int {
	return int(t.valueCount.Load())
}

func (t *Trie) newNode(k key) (*Node, error) {
	if !t.pool.reserve(nodeBytes) {
		return nil, resourceErr("table space")
	}
	t.nodeCount.Add(1)
	return &Node{key: k}, nil
}

// discardNode undoes the accounting of a node that lost an insertion race
// and was never published.
func (t *Trie) discardNode(n *Node) {
	t.pool.unreserve(nodeBytes)
	t.nodeCount.Add(-1)
}

// destroyNode releases a node that was published and has since been
// unlinked.
func (t *Trie) destroyNode(n *Node) {
	if n.value.Swap(nil) != nil {
		t.valueCount.Add(-1)
	}
	if n.key.kind == keyIndirect {
		t.indirects.release(n.key.num)
	}
	t.pool.unreserve(nodeBytes)
	t.nodeCount.Add(-1)
}

// clearNode tears down the subtree rooted at n. Only called once the
// reference count has dropped to zero, so no concurrent access remains.
func (t *Trie) clearNode(n *Node) {
	ch := n.children.Swap(nil)
	if n != &t.root {
		t.destroyNode(n)
	}
	if ch == nil {
		return
	}
	switch ch.kind {
	case childrenSingle:
		t.clearNode(ch.child)
	case childrenHashed:
		ch.hashed.Range(func(_, v any) bool {
			t.clearNode(v.(*Node))
			return true
		})
	}
}

// follow returns the child of n for k, creating it if create is true. The
// second return value reports whether a new node was created. A nil node
// with nil error means absent.
func (t *Trie) follow(n *Node, k key, create bool) (*Node, bool, error) {
	if c := n.getChild(k); c != nil {
		return c, false, nil
	}
	if !create {
		return nil, false, nil
	}
	return t.insertChild(n, k)
}

// insertChild atomically installs a new child of n under k, retrying on a
// lost race by re-reading the children slot and continuing.
func (t *Trie) insertChild(n *Node, k key) (*Node, bool, error) {
	for {
		ch := n.children.Load()
		if ch == nil {
			nn, err := t.newNode(k)
			if err != nil {
				return nil, false, err
			}
			nn.parent = n
			single := &children{kind: childrenSingle, key: k, child: nn}
			if n.children.CompareAndSwap(nil, single) {
				return nn, true, nil
			}
			t.discardNode(nn)
			continue
		}
		switch ch.kind {
		case childrenSingle:
			if ch.key == k {
				return ch.child, false, nil
			}
			nn, err := t.newNode(k)
			if err != nil {
				return nil, false, err
			}
			nn.parent = n
			hashed := &children{kind: childrenHashed}
			hashed.hashed.Store(ch.key, ch.child)
			hashed.hashed.Store(k, nn)
			hashed.size.Store(2)
			if n.children.CompareAndSwap(ch, hashed) {
				return nn, true, nil
			}
			t.discardNode(nn)
			continue
		case childrenHashed:
			nn, err := t.newNode(k)
			if err != nil {
				return nil, false, err
			}
			nn.parent = n
			if existing, loaded := ch.hashed.LoadOrStore(k, nn); loaded {
				t.discardNode(nn)
				return existing.(*Node), false, nil
			}
			ch.size.Add(1)
			return nn, true, nil
		}
	}
}

// acyclicCheckThreshold is the number of structure tokens after which an
// insertion runs an explicit acyclicity check. Cheap enough to amortize,
// deep enough that ordinary terms never trigger it.
const acyclicCheckThreshold = 1000

// Lookup walks the token serialization of v from the root, returning the
// node terminating the path. With create true, missing nodes are installed
// along the way; otherwise a missing node makes Lookup return nil with no
// error. Terms containing attributed variables or cycles are rejected with
// an input error after pruning any partially built path.
func (t *Trie) Lookup(v term.Value, create bool) (*Node, error) {
	node := &t.root
	varIndexes := map[*term.Var]int64{}
	compounds := 0
	w := term.NewWalker(v)

	for {
		val, ev := w.Next()
		if ev == term.EventDone {
			return node, nil
		}

		var k key
		switch ev {
		case term.EventPop:
			k = popKey
		case term.EventValue:
			switch x := val.(type) {
			case *term.Var:
				if x.Attributed {
					t.pruneError(node)
					return nil, attVarErr()
				}
				idx, ok := varIndexes[x]
				if !ok {
					idx = int64(len(varIndexes)) + 1
					varIndexes[x] = idx
				}
				k = varKey(idx)
			case *term.Compound:
				if create {
					if compounds++; compounds == acyclicCheckThreshold && !term.IsAcyclic(v) {
						t.pruneError(node)
						return nil, cyclicErr()
					}
				}
				k = functorKey(x)
			case term.Atom:
				k = atomKey(x)
			case term.Int:
				k = intKey(x)
			case term.Str:
				id, ok := t.indirects.intern(x, create)
				if !ok {
					return nil, nil
				}
				k = indirectKey(id)
				next, created, err := t.follow(node, k, create)
				if create && !created {
					// The interning reference belongs to the node; give
					// it back when no node was created.
					t.indirects.release(id)
				}
				if err != nil {
					t.pruneError(node)
					return nil, err
				}
				if next == nil {
					return nil, nil
				}
				node = next
				continue
			default:
				t.pruneError(node)
				return nil, &Error{Code: InternalErr, Message: "unindexable term kind"}
			}
		}

		next, _, err := t.follow(node, k, create)
		if err != nil {
			t.pruneError(node)
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		node = next
	}
}

// pruneError removes the partially built path below a failed insertion. The
// prune starts from a fresh sentinel child so that only nodes created by
// this insertion can be removed.
func (t *Trie) pruneError(node *Node) {
	if node == &t.root {
		return
	}
	sentinel, _, err := t.follow(node, errorKey, true)
	if err != nil || sentinel == nil {
		return
	}
	t.pruneNode(sentinel)
}

// SetValue attaches a payload to n. If the node already carries a payload
// that equals v, SetValue reports false with no error ("no new
// information"). A differing payload is replaced when update is true and
// rejected with a permission error otherwise.
func (t *Trie) SetValue(n *Node, v any, update bool) (bool, error) {
	box := &valueBox{value: v}
	for {
		old := n.value.Load()
		if old == nil {
			if n.value.CompareAndSwap(nil, box) {
				t.valueCount.Add(1)
				return true, nil
			}
			continue
		}
		if t.eq(old.value, v) {
			return false, nil
		}
		if !update {
			return false, permissionErr("trie key")
		}
		if n.value.CompareAndSwap(old, box) {
			return true, nil
		}
	}
}

// Value returns the payload attached to n.
func (t *Trie) Value(n *Node) (any, bool) {
	box := n.value.Load()
	if box == nil {
		return nil, false
	}
	return box.value, true
}

// DeleteValue clears the payload of n. If prune is true, now-childless
// ancestors are removed until a node with remaining children or a value is
// reached or the root is hit.
func (t *Trie) DeleteValue(n *Node, prune bool) {
	if n.value.Swap(nil) != nil {
		t.valueCount.Add(-1)
	}
	if prune {
		t.pruneNode(n)
	}
}

// pruneNode removes the dead branch ending at n. Concurrent deletion of
// hashed branches is a documented limitation: pruning is only safe at
// evaluation quiescence points (table completion, invalidation).
func (t *Trie) pruneNode(n *Node) {
	for n.parent != nil {
		if n.value.Load() != nil {
			return
		}
		if ch := n.children.Load(); ch != nil {
			switch ch.kind {
			case childrenSingle:
				return
			case childrenHashed:
				if ch.size.Load() > 0 {
					return
				}
			}
		}
		p := n.parent
		if pch := p.children.Load(); pch != nil {
			switch pch.kind {
			case childrenSingle:
				if pch.child == n {
					p.children.CompareAndSwap(pch, nil)
				}
			case childrenHashed:
				if _, ok := pch.hashed.LoadAndDelete(n.key); ok {
					pch.size.Add(-1)
				}
			}
		}
		t.destroyNode(n)
		n = p
	}
}
