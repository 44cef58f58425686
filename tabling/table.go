// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"github.com/prolite-lang/prolite/term"
	"github.com/prolite-lang/prolite/trie"
)

// Status is the evaluation state of a variant table.
type Status int

const (
	// StatusFresh marks a table that has never been evaluated.
	StatusFresh Status = iota

	// StatusEvaluating marks a table owned by an active component.
	StatusEvaluating

	// StatusMerged marks a table whose component was absorbed into an
	// enclosing one. Still under evaluation; completes with the absorber.
	StatusMerged

	// StatusComplete marks a table whose fixpoint has been reached. The
	// answer index is read-only until invalidated.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusEvaluating:
		return "evaluating"
	case StatusMerged:
		return "merged"
	case StatusComplete:
		return "complete"
	}
	return "unknown"
}

// Active reports whether the table is under evaluation.
func (s Status) Active() bool {
	return s == StatusEvaluating || s == StatusMerged
}

// answer is the payload stored at an answer-trie node. An empty delay set
// means the answer is unconditionally true; otherwise it is conditional on
// the recorded obligations.
type answer struct {
	// term is set for aggregated answers, whose trie key only covers the
	// identity arguments. Plain answers rematerialize from the node path.
	term   term.Value
	delays []delay
}

// delay is one not-yet-decided truth obligation attached to a conditional
// answer: the awaited table must end up with (positive) or without
// (negative) an unconditional answer.
type delay struct {
	table    *Table
	positive bool
}

func delaysEqual(a, b []delay) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func answerEqual(x, y any) bool {
	a, ok1 := x.(*answer)
	b, ok2 := y.(*answer)
	if !ok1 || !ok2 {
		return false
	}
	if (a.term == nil) != (b.term == nil) {
		return false
	}
	if a.term != nil && !a.term.Equal(b.term) {
		return false
	}
	return delaysEqual(a.delays, b.delays)
}

// Table is the per-variant store of memoized answers plus evaluation state.
type Table struct {
	id        uint64
	variant   term.Value // canonical variant (fresh variables, first-occurrence order)
	indicator string
	answers   *trie.Trie
	node      *trie.Node // this table's node in the registry variant index

	status Status
	comp   *component

	// consumers are suspended derivations awaiting answers from this
	// table; negs are negative suspensions awaiting its completion.
	consumers []*consumer
	negs      []*negSuspension

	mode *ModeDecl

	// ordered records answer nodes in publication order. Consumers hold an
	// index into it, which makes delivery exactly-once even while the trie
	// itself keeps growing. Re-published nodes (aggregate refinements,
	// conditional-to-unconditional upgrades) appear again so consumers can
	// re-derive with the stronger answer.
	ordered []*trie.Node

	uncondCount int
	condCount   int
}

// Variant returns the canonical variant this table memoizes.
func (t *Table) Variant() term.Value {
	return t.variant
}

// Status returns the table's evaluation status.
func (t *Table) Status() Status {
	return t.status
}

// Stats returns the footprint of the table's answer index.
func (t *Table) Stats() trie.Stats {
	return t.answers.Stats()
}

// AnswerCount returns the number of stored answers, conditional included.
func (t *Table) AnswerCount() int {
	return t.uncondCount + t.condCount
}

func (t *Table) hasUnconditional() bool {
	return t.uncondCount > 0
}

func (t *Table) hasConditional() bool {
	return t.condCount > 0
}

// addAnswer inserts a candidate answer, returning true if the table gained
// new information: a new answer, an upgraded (conditional to unconditional)
// answer, or a changed aggregate.
func (t *Table) addAnswer(ansTerm term.Value, delays []delay) (bool, error) {
	if t.mode != nil {
		return t.addAggregated(ansTerm, delays)
	}

	node, err := t.answers.Lookup(ansTerm, true)
	if err != nil {
		return false, err
	}
	return t.publish(node, &answer{delays: delays})
}

// publish attaches ans to node, keeping the strongest truth value: an
// unconditional answer is never downgraded, a conditional one may be
// upgraded or have its delay set replaced.
func (t *Table) publish(node *trie.Node, ans *answer) (bool, error) {
	existing, ok := t.answers.Value(node)
	if !ok {
		inserted, err := t.answers.SetValue(node, ans, false)
		if err != nil {
			return false, err
		}
		if inserted {
			if len(ans.delays) == 0 {
				t.uncondCount++
			} else {
				t.condCount++
			}
			t.ordered = append(t.ordered, node)
		}
		return inserted, nil
	}

	old := existing.(*answer)
	if len(old.delays) == 0 {
		// Already unconditionally true; nothing is new.
		return false, nil
	}
	if len(ans.delays) == 0 {
		// Upgrade conditional to unconditional.
		if _, err := t.answers.SetValue(node, ans, true); err != nil {
			return false, err
		}
		t.condCount--
		t.uncondCount++
		t.ordered = append(t.ordered, node)
		return true, nil
	}
	if delaysEqual(old.delays, ans.delays) {
		return false, nil
	}
	// Differing delay sets for the same answer: keep the first. One delay
	// list per answer is an approximation; keeping the alternatives as a
	// disjunction would let an answer survive on a second support when its
	// recorded set is refuted. An answer lost that way errs toward false,
	// never toward true.
	return false, nil
}

// replaceDelays overwrites the delay set of a conditional answer in place.
// Used by answer completion when obligations collapse.
func (t *Table) replaceDelays(node *trie.Node, old *answer, delays []delay) error {
	upd := &answer{term: old.term, delays: delays}
	if _, err := t.answers.SetValue(node, upd, true); err != nil {
		return err
	}
	if len(old.delays) > 0 && len(delays) == 0 {
		t.condCount--
		t.uncondCount++
	}
	return nil
}

// dropAnswer removes a stored answer and prunes its dead branch.
func (t *Table) dropAnswer(node *trie.Node, old *answer) {
	if len(old.delays) == 0 {
		t.uncondCount--
	} else {
		t.condCount--
	}
	t.answers.DeleteValue(node, true)
}

// release drops the table's reference to its answer index.
func (t *Table) release() {
	for _, c := range t.consumers {
		c.close()
	}
	t.consumers = nil
	t.negs = nil
	t.ordered = nil
	t.answers.Release()
}
