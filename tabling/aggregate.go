// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"strconv"
	"strings"

	"github.com/prolite-lang/prolite/term"
)

// Mode directs how answers for one argument position are folded together.
// Arguments marked ModeIndex identify the answer; all answers sharing their
// index arguments collapse into a single stored answer whose remaining
// arguments are combined per mode.
type Mode int

const (
	// ModeIndex makes the argument part of the answer's identity.
	ModeIndex Mode = iota

	// ModeFirst keeps the argument of the first answer.
	ModeFirst

	// ModeLast keeps the argument of the most recent answer.
	ModeLast

	// ModeMin keeps the smallest argument in standard order.
	ModeMin

	// ModeMax keeps the largest argument in standard order.
	ModeMax

	// ModeSum accumulates integer arguments.
	ModeSum

	// ModeLattice folds arguments through the declaration's Join.
	ModeLattice
)

// ModeDecl declares mode-directed aggregation for one tabled predicate.
type ModeDecl struct {
	Modes []Mode

	// Join combines an accumulated argument with a new one. Required when
	// any argument uses ModeLattice.
	Join func(acc, arg term.Value) (term.Value, error)
}

func (d *ModeDecl) validate(indicator string) error {
	i := strings.LastIndexByte(indicator, '/')
	if i < 0 {
		return stateErrf("invalid predicate indicator %q", indicator)
	}
	arity, err := strconv.Atoi(indicator[i+1:])
	if err != nil || arity < 0 {
		return stateErrf("invalid predicate indicator %q", indicator)
	}
	if len(d.Modes) != arity {
		return stateErrf("mode declaration for %v has %d modes, want %d", indicator, len(d.Modes), arity)
	}
	for _, m := range d.Modes {
		if m == ModeLattice && d.Join == nil {
			return stateErrf("mode declaration for %v uses a lattice argument without a join", indicator)
		}
	}
	return nil
}

// projection returns the identity of an answer term: the index arguments
// only, so aggregated variants of the same answer land on the same node.
func (d *ModeDecl) projection(v *term.Compound) term.Value {
	var args []term.Value
	for i, m := range d.Modes {
		if m == ModeIndex {
			args = append(args, v.Args[i])
		}
	}
	if len(args) == 0 {
		return term.Atom(v.Functor)
	}
	return &term.Compound{Functor: v.Functor, Args: args}
}

// combine folds a new answer into the accumulated one, argument by argument.
func (d *ModeDecl) combine(acc, arg *term.Compound) (term.Value, error) {
	args := make([]term.Value, len(acc.Args))
	for i, m := range d.Modes {
		a, b := acc.Args[i], arg.Args[i]
		switch m {
		case ModeIndex, ModeFirst:
			args[i] = a
		case ModeLast:
			args[i] = b
		case ModeMin:
			if term.Compare(b, a) < 0 {
				args[i] = b
			} else {
				args[i] = a
			}
		case ModeMax:
			if term.Compare(b, a) > 0 {
				args[i] = b
			} else {
				args[i] = a
			}
		case ModeSum:
			x, ok1 := a.(term.Int)
			y, ok2 := b.(term.Int)
			if !ok1 || !ok2 {
				return nil, instantiationErrf("sum argument of %v must be an integer", acc.Functor)
			}
			args[i] = x + y
		case ModeLattice:
			joined, err := d.Join(a, b)
			if err != nil {
				return nil, err
			}
			args[i] = joined
		default:
			return nil, internalErrf("unknown mode %d", m)
		}
	}
	return &term.Compound{Functor: acc.Functor, Args: args}, nil
}

// addAggregated folds a candidate answer into the moded table. The trie is
// keyed on the identity projection; the full answer term lives in the
// payload and is rewritten in place as better answers arrive.
func (t *Table) addAggregated(ansTerm term.Value, delays []delay) (bool, error) {
	c, ok := ansTerm.(*term.Compound)
	if !ok {
		return false, instantiationErrf("moded answer %v must be a compound term", ansTerm)
	}
	if len(c.Args) != len(t.mode.Modes) {
		return false, internalErrf("moded answer %v does not match its declaration", ansTerm)
	}

	node, err := t.answers.Lookup(t.mode.projection(c), true)
	if err != nil {
		return false, err
	}

	existing, found := t.answers.Value(node)
	if !found {
		if _, err := t.answers.SetValue(node, &answer{term: c, delays: delays}, false); err != nil {
			return false, err
		}
		if len(delays) == 0 {
			t.uncondCount++
		} else {
			t.condCount++
		}
		t.ordered = append(t.ordered, node)
		return true, nil
	}

	old := existing.(*answer)
	combined, err := t.mode.combine(old.term.(*term.Compound), c)
	if err != nil {
		return false, err
	}

	if combined.Equal(old.term) {
		// Same aggregate; at most the truth value strengthens.
		if len(old.delays) > 0 && len(delays) == 0 {
			if err := t.replaceDelays(node, old, nil); err != nil {
				return false, err
			}
			t.ordered = append(t.ordered, node)
			return true, nil
		}
		return false, nil
	}

	merged := mergeDelays(old.delays, delays)
	if _, err := t.answers.SetValue(node, &answer{term: combined, delays: merged}, true); err != nil {
		return false, err
	}
	if len(old.delays) > 0 && len(merged) == 0 {
		t.condCount--
		t.uncondCount++
	} else if len(old.delays) == 0 && len(merged) > 0 {
		t.uncondCount--
		t.condCount++
	}
	t.ordered = append(t.ordered, node)
	return true, nil
}

// mergeDelays unions two obligation sets. The combined aggregate depends on
// every contribution that shaped it.
func mergeDelays(a, b []delay) []delay {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]delay, 0, len(a)+len(b))
	out = append(out, a...)
	for _, d := range b {
		dup := false
		for _, have := range out {
			if have == d {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	return out
}
