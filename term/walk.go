// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// Event identifies what a Walker produced on a call to Next.
type Event int

const (
	// EventValue indicates Next returned a value. For compound values the
	// walker will subsequently visit the arguments followed by a pop.
	EventValue Event = iota

	// EventPop marks the end of a compound value's argument list.
	EventPop

	// EventDone indicates the traversal is exhausted.
	EventDone
)

// Walker performs an iterative depth-first, argument-order traversal of a
// value, emitting an explicit pop event after the last argument of every
// compound. The token stream of the answer index is produced directly from
// this traversal.
type Walker struct {
	stack []walkEntry
}

type walkEntry struct {
	value Value
	pop   bool
}

// NewWalker returns a Walker positioned before the first value of v.
func NewWalker(v Value) *Walker {
	return &Walker{stack: []walkEntry{{value: v}}}
}

// Next returns the next value or pop event of the traversal.
func (w *Walker) Next() (Value, Event) {
	if len(w.stack) == 0 {
		return nil, EventDone
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	if top.pop {
		return nil, EventPop
	}
	if c, ok := top.value.(*Compound); ok {
		w.stack = append(w.stack, walkEntry{pop: true})
		for i := len(c.Args) - 1; i >= 0; i-- {
			w.stack = append(w.stack, walkEntry{value: c.Args[i]})
		}
	}
	return top.value, EventValue
}

// IsAcyclic reports whether v is free of cycles through compound arguments.
// Terms built by Unify without an occurs check can be cyclic; the answer
// index calls this before committing a suspiciously deep insertion.
func IsAcyclic(v Value) bool {
	onPath := map[*Compound]struct{}{}
	return acyclic(v, onPath)
}

func acyclic(v Value, onPath map[*Compound]struct{}) bool {
	c, ok := v.(*Compound)
	if !ok {
		return true
	}
	if _, cyc := onPath[c]; cyc {
		return false
	}
	onPath[c] = struct{}{}
	for _, arg := range c.Args {
		if !acyclic(arg, onPath) {
			return false
		}
	}
	delete(onPath, c)
	return true
}
