// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"errors"

	"github.com/prolite-lang/prolite/metrics"
	"github.com/prolite-lang/prolite/term"
)

// Truth is a three-valued verdict under the well-founded semantics.
type Truth int

const (
	// False means the goal has no answer.
	False Truth = iota

	// True means the goal has an unconditional answer.
	True

	// Undefined means the goal's only answers are conditional: it sits on
	// an unresolved loop through negation.
	Undefined
)

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case Undefined:
		return "undefined"
	}
	return "false"
}

// negSuspension is a derivation stopped at a negative literal, waiting for
// the awaited table to complete so the negation can be decided.
type negSuspension struct {
	table *Table
	state *evalState
}

// errStopSolve aborts a Program.Solve enumeration after the first solution.
var errStopSolve = errors.New("stop")

// stepNegative resolves a negative body literal. Ground goals only; a
// non-ground negation has no well-founded reading here.
func (s *scheduler) stepNegative(st *evalState, lit Literal) error {
	goal, err := st.bindings.Plug(lit.Goal)
	if err != nil {
		return cyclicTermErr()
	}
	if !goal.IsGround() {
		return instantiationErrf("negated goal %v is not ground", goal)
	}
	ind, ok := term.Indicator(goal)
	if !ok {
		return instantiationErrf("goal %v is not callable", goal)
	}

	if !s.eng.program.Tabled(ind) {
		// Plain negation as failure for non-tabled goals.
		found := false
		err := s.eng.program.Solve(goal, st.bindings, func() error {
			found = true
			return errStopSolve
		})
		if err != nil && !errors.Is(err, errStopSolve) {
			return err
		}
		if !found {
			s.resume(st, nil)
		}
		return nil
	}

	t, err := s.eng.tableFor(goal)
	if err != nil {
		return err
	}

	switch {
	case t.status == StatusComplete:
		s.decideNegation(st, t)
	case t.status == StatusFresh:
		// Evaluate the subgoal in its own component and suspend until it
		// completes. If the subgoal loops back, the merge converts this
		// suspension into a delayed obligation.
		s.evalTable(t)
		t.negs = append(t.negs, &negSuspension{table: t, state: st})
		s.eng.metrics.Counter(metrics.TableSuspensions).Incr()
	default:
		// The awaited table is already under evaluation, so its fate is
		// entangled with ours: fold the components together and carry the
		// negation as a delayed obligation.
		s.mergeInto(t.comp.root())
		s.resume(st, &delay{table: t, positive: false})
	}
	return nil
}

// decideNegation resumes or drops a derivation stopped at a negation over a
// completed table.
func (s *scheduler) decideNegation(st *evalState, t *Table) {
	switch {
	case t.hasUnconditional():
		// Negation fails; the derivation dies here.
	case t.hasConditional():
		s.resume(st, &delay{table: t, positive: false})
	default:
		s.resume(st, nil)
	}
}
