// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"context"
	"slices"

	"github.com/prolite-lang/prolite/metrics"
	"github.com/prolite-lang/prolite/term"
)

// evalState is one in-flight rule derivation: a rule body being resolved
// left to right against a private set of bindings. States are forked at
// every choice (a fact match, a consumed answer) so siblings never share
// bindings.
type evalState struct {
	table    *Table
	bindings *term.Bindings
	body     []Literal
	pos      int
	delays   []delay
}

func (st *evalState) fork() *evalState {
	cpy := *st
	cpy.bindings = st.bindings.Copy()
	cpy.delays = slices.Clone(st.delays)
	return &cpy
}

// addDelay records an obligation on the derivation, dropping duplicates.
func (st *evalState) addDelay(d delay) {
	for _, have := range st.delays {
		if have == d {
			return
		}
	}
	st.delays = append(st.delays, d)
}

// consumer is a suspended derivation feeding on a producer table's answers.
// next indexes into the producer's publication order, so each published
// answer is delivered exactly once no matter how often the consumer wakes.
type consumer struct {
	producer *Table
	goal     term.Value // literal instance each answer unifies against
	state    *evalState // frozen at the consuming literal
	next     int
	closed   bool
}

func (c *consumer) close() {
	c.closed = true
}

// task is one unit of scheduler work: either a derivation step to run or a
// consumer to feed. Exactly one field is set.
type task struct {
	state *evalState
	cons  *consumer
}

// scheduler drives a single top-level evaluation to its fixpoint. It keeps
// a stack of active components, always working the innermost: a component
// whose worklist drains with no inner component pending has, by local
// evaluation, reached its fixpoint and is completed.
type scheduler struct {
	eng    *Engine
	ctx    context.Context
	stack  []*component
	nextID uint64
}

func newScheduler(eng *Engine, ctx context.Context) *scheduler {
	return &scheduler{eng: eng, ctx: ctx}
}

// evalTable opens a new component led by t and seeds one derivation per
// defining rule. The caller must have checked t is fresh.
func (s *scheduler) evalTable(t *Table) *component {
	s.nextID++
	c := newComponent(s.nextID, t)
	s.stack = append(s.stack, c)
	s.eng.logger.Debug("Component %d opened for %v.", c.id, c.leader.variant)

	for _, r := range s.eng.program.Rules(t.indicator) {
		head, body := renameRule(r)
		st := &evalState{
			table:    t,
			bindings: term.NewBindings(),
			body:     body,
		}
		if _, ok := st.bindings.Unify(head, t.variant); !ok {
			continue
		}
		c.work.Push(task{state: st})
	}
	return c
}

// renameRule refreshes a rule's variables with a shared mapping so the head
// and body keep their sharing pattern.
func renameRule(r Rule) (term.Value, []Literal) {
	args := make([]term.Value, 0, len(r.Body)+1)
	args = append(args, r.Head)
	for _, lit := range r.Body {
		args = append(args, lit.Goal)
	}
	renamed := term.Rename(&term.Compound{Functor: ":-", Args: args}).(*term.Compound)

	body := make([]Literal, len(r.Body))
	for i, lit := range r.Body {
		body[i] = Literal{Goal: renamed.Args[i+1], Negated: lit.Negated}
	}
	return renamed.Args[0], body
}

// run drains the component stack. On error or cancellation the partial
// state of every open component is discarded so the tables can be retried.
func (s *scheduler) run() error {
	for len(s.stack) > 0 {
		if err := s.interrupted(); err != nil {
			s.discard()
			return err
		}
		top := s.stack[len(s.stack)-1]
		tk, ok := top.work.Pop()
		if !ok {
			if err := s.complete(top); err != nil {
				s.discard()
				return err
			}
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}
		var err error
		if tk.state != nil {
			err = s.step(tk.state)
		} else {
			err = s.stepConsumer(tk.cons)
		}
		if err != nil {
			s.discard()
			return err
		}
	}
	return nil
}

func (s *scheduler) interrupted() error {
	if s.eng.cancel != nil && !s.eng.cancel.Ok() {
		return cancelErr()
	}
	if s.ctx != nil {
		select {
		case <-s.ctx.Done():
			return cancelErr()
		default:
		}
	}
	return nil
}

// discard resets every table of every open component back to fresh so the
// registry holds no half-evaluated state.
func (s *scheduler) discard() {
	for _, c := range s.stack {
		for _, t := range c.members {
			s.eng.resetTable(t)
		}
	}
	s.stack = nil
}

// resume pushes st's continuation, optionally extended by one obligation.
// The state is exclusively owned once popped, so it is advanced in place.
func (s *scheduler) resume(st *evalState, d *delay) {
	if d != nil {
		st.addDelay(*d)
	}
	st.pos++
	st.table.comp.root().work.Push(task{state: st})
}

// step runs one derivation until its next suspension point: the following
// body literal, or answer production when the body is exhausted.
func (s *scheduler) step(st *evalState) error {
	if st.pos >= len(st.body) {
		return s.produceAnswer(st)
	}
	lit := st.body[st.pos]
	if lit.Negated {
		return s.stepNegative(st, lit)
	}
	return s.stepPositive(st, lit)
}

func (s *scheduler) stepPositive(st *evalState, lit Literal) error {
	goal := st.bindings.Resolve(lit.Goal)
	ind, ok := term.Indicator(goal)
	if !ok {
		return instantiationErrf("goal %v is not callable", goal)
	}

	if !s.eng.program.Tabled(ind) {
		// Non-tabled goals resolve eagerly through the program; each
		// solution forks an advanced sibling.
		return s.eng.program.Solve(goal, st.bindings, func() error {
			sib := st.fork()
			sib.pos++
			st.table.comp.root().work.Push(task{state: sib})
			return nil
		})
	}

	plugged, err := st.bindings.Plug(goal)
	if err != nil {
		return cyclicTermErr()
	}
	sub, err := s.eng.tableFor(plugged)
	if err != nil {
		return err
	}

	switch {
	case sub.status == StatusFresh:
		s.evalTable(sub)
	case sub.status.Active():
		// A call back into a table under evaluation closes a loop: fold
		// every component opened since into the awaited table's.
		s.mergeInto(sub.comp.root())
	}

	c := &consumer{producer: sub, goal: plugged, state: st}
	if sub.status != StatusComplete {
		sub.consumers = append(sub.consumers, c)
		s.eng.metrics.Counter(metrics.TableSuspensions).Incr()
	}
	st.table.comp.root().work.Push(task{cons: c})
	return nil
}

// mergeInto absorbs every component stacked inside target into target and
// rechecks negative suspensions: a suspension awaiting a table that is now
// in the suspended derivation's own component can never see it complete
// first, so it resumes immediately with a delayed obligation.
func (s *scheduler) mergeInto(target *component) {
	merged := false
	for s.stack[len(s.stack)-1] != target {
		inner := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		target.absorb(inner)
		merged = true
	}
	if !merged {
		return
	}
	s.eng.metrics.Counter(metrics.ComponentMerges).Incr()
	s.eng.logger.Debug("Merged %d tables into component %d.", len(target.members), target.id)

	for _, t := range target.members {
		if len(t.negs) == 0 {
			continue
		}
		kept := t.negs[:0]
		for _, ns := range t.negs {
			if ns.state.table.comp.root() == target {
				s.resume(ns.state, &delay{table: t, positive: false})
			} else {
				kept = append(kept, ns)
			}
		}
		t.negs = kept
	}
}

// stepConsumer delivers every not-yet-seen answer of the producer to the
// suspended derivation, forking one advanced sibling per unifying answer.
func (s *scheduler) stepConsumer(c *consumer) error {
	if c.closed {
		return nil
	}
	if c.next < len(c.producer.ordered) {
		s.eng.metrics.Counter(metrics.TableResumptions).Incr()
	}
	for c.next < len(c.producer.ordered) {
		node := c.producer.ordered[c.next]
		c.next++

		raw, ok := c.producer.answers.Value(node)
		if !ok {
			continue // pruned by answer completion
		}
		ans := raw.(*answer)
		at := ans.term
		if at == nil {
			timer := s.eng.metrics.Timer(metrics.TrieMaterialize)
			timer.Start()
			var err error
			at, err = c.producer.answers.MaterializeTerm(node)
			timer.Stop()
			if err != nil {
				return err
			}
		} else {
			at = term.Rename(at)
		}

		sib := c.state.fork()
		if _, ok := sib.bindings.Unify(c.goal, at); !ok {
			continue
		}
		for _, d := range ans.delays {
			sib.addDelay(d)
		}
		sib.pos++
		sib.table.comp.root().work.Push(task{state: sib})
	}
	if c.producer.status == StatusComplete {
		c.close()
	}
	return nil
}

// produceAnswer publishes the derivation's head instance into its table and
// wakes the table's consumers if the table gained information.
func (s *scheduler) produceAnswer(st *evalState) error {
	t := st.table
	at, err := st.bindings.Plug(t.variant)
	if err != nil {
		return cyclicTermErr()
	}

	timer := s.eng.metrics.Timer(metrics.TrieInsert)
	timer.Start()
	added, err := t.addAnswer(at, pruneSelfDelays(t, st.delays))
	timer.Stop()
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	s.eng.metrics.Counter(metrics.TableAnswers).Incr()
	for _, c := range t.consumers {
		if c.closed {
			continue
		}
		c.state.table.comp.root().work.Push(task{cons: c})
	}
	return nil
}

// pruneSelfDelays drops positive obligations a derivation holds on its own
// table; an answer cannot usefully wait on the table it is about to join.
func pruneSelfDelays(t *Table, delays []delay) []delay {
	kept := make([]delay, 0, len(delays))
	for _, d := range delays {
		if d.table == t && d.positive {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// complete finalizes a drained component: conditional answers are simplified
// against the now-final tables, members become complete, and negative
// suspensions held by outer components are decided.
func (s *scheduler) complete(c *component) error {
	if err := s.answerCompletion(c); err != nil {
		return err
	}

	for _, t := range c.members {
		t.status = StatusComplete
		t.comp = nil
		s.eng.metrics.Counter(metrics.TableComplete).Incr()
		s.eng.logger.WithFields(map[string]any{
			"variant":     t.variant.String(),
			"answers":     t.uncondCount,
			"conditional": t.condCount,
		}).Debug("Table completed.")
	}

	for _, t := range c.members {
		negs := t.negs
		t.negs = nil
		for _, ns := range negs {
			s.decideNegation(ns.state, t)
		}
		t.consumers = nil
	}
	return nil
}

// answerCompletion runs the delay-simplification fixpoint over a component
// about to complete. Obligations on final tables are discharged or refuted;
// an answer with a refuted obligation is pruned, which can in turn refute
// or discharge obligations elsewhere, so the pass repeats until stable.
func (s *scheduler) answerCompletion(c *component) error {
	final := func(t *Table) bool {
		return t.status == StatusComplete || (t.comp != nil && t.comp.root() == c)
	}

	for changed := true; changed; {
		changed = false
		s.eng.metrics.Counter(metrics.AnswersPropagate).Incr()

		for _, t := range c.members {
			for _, node := range t.ordered {
				raw, ok := t.answers.Value(node)
				if !ok {
					continue
				}
				ans := raw.(*answer)
				if len(ans.delays) == 0 {
					continue
				}

				kept := make([]delay, 0, len(ans.delays))
				killed := false
				for _, d := range ans.delays {
					if !final(d.table) {
						kept = append(kept, d)
						continue
					}
					switch {
					case d.positive && d.table.hasUnconditional():
						// discharged
					case d.positive && !d.table.hasConditional():
						killed = true
					case !d.positive && d.table.hasUnconditional():
						killed = true
					case !d.positive && !d.table.hasConditional():
						// discharged
					default:
						kept = append(kept, d)
					}
					if killed {
						break
					}
				}

				switch {
				case killed:
					t.dropAnswer(node, ans)
					changed = true
				case len(kept) != len(ans.delays):
					if err := t.replaceDelays(node, ans, kept); err != nil {
						return err
					}
					changed = true
				}
			}
		}
	}
	return nil
}
