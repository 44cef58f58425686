// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"github.com/prolite-lang/prolite/util"
)

// component groups mutually dependent tables that must reach their fixpoint
// together. The table whose evaluation created the component is its leader;
// tables encountered later that loop back are merged in and complete when
// the leader's component does.
type component struct {
	id      uint64
	leader  *Table
	members []*Table

	// work holds pending evaluation steps: rule derivations to resume and
	// consumers to feed newly published answers.
	work *util.FIFO[task]

	// parent is the next-outer component on the scheduler stack, nil for
	// the outermost. After a merge, parent links the absorbed component to
	// its absorber and member lookups follow root().
	parent *component
	merged bool
}

func newComponent(id uint64, leader *Table) *component {
	c := &component{
		id:      id,
		leader:  leader,
		members: []*Table{leader},
		work:    util.NewFIFO[task](),
	}
	leader.comp = c
	leader.status = StatusEvaluating
	return c
}

// root follows merge links to the component that now owns this one's
// members. Path is short in practice; no compression needed.
func (c *component) root() *component {
	for c.merged {
		c = c.parent
	}
	return c
}

// absorb folds inner (and everything merged into it) into c. Inner's
// members, worklist and suspensions move to c; inner's tables become
// StatusMerged so dependency checks can tell them from fresh completions.
func (c *component) absorb(inner *component) {
	for _, t := range inner.members {
		t.comp = c
		if t.status == StatusEvaluating {
			t.status = StatusMerged
		}
		c.members = append(c.members, t)
	}
	for {
		tk, ok := inner.work.Pop()
		if !ok {
			break
		}
		c.work.Push(tk)
	}
	inner.members = nil
	inner.merged = true
	inner.parent = c
}
