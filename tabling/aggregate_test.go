// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prolite-lang/prolite/term"
)

// offersProgram tables best(Item, Price) over offer/2 facts with the given
// price mode.
func offersProgram(t *testing.T, mode Mode, prices ...int64) (*Engine, term.Value) {
	t.Helper()
	rs := NewRuleSet()
	for _, p := range prices {
		rs.Fact(c("offer", a("widget"), term.Int(p)))
	}
	x, p := term.NewVar("X"), term.NewVar("P")
	rs.Table(c("best", x, p), Pos(c("offer", x, p)))

	eng := NewEngine(rs)
	if err := eng.DeclareMode("best/2", ModeDecl{Modes: []Mode{ModeIndex, mode}}); err != nil {
		t.Fatal(err)
	}
	return eng, c("best", a("widget"), term.NewVar("P"))
}

func TestAggregateMin(t *testing.T) {
	eng, goal := offersProgram(t, ModeMin, 5, 3, 8, 1)
	got := callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"best(widget,1)"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestAggregateMax(t *testing.T) {
	eng, goal := offersProgram(t, ModeMax, 5, 3, 8, 1)
	got := callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"best(widget,8)"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestAggregateSum(t *testing.T) {
	eng, goal := offersProgram(t, ModeSum, 5, 3, 8, 1)
	got := callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"best(widget,17)"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestAggregateFirstAndLast(t *testing.T) {
	eng, goal := offersProgram(t, ModeFirst, 5, 3, 8)
	got := callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"best(widget,5)"}, got); diff != "" {
		t.Fatalf("Unexpected first answers (-want +got):\n%s", diff)
	}

	eng, goal = offersProgram(t, ModeLast, 5, 3, 8)
	got = callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"best(widget,8)"}, got); diff != "" {
		t.Fatalf("Unexpected last answers (-want +got):\n%s", diff)
	}
}

func TestAggregateGroupsByIndexArguments(t *testing.T) {
	rs := NewRuleSet()
	rs.Fact(c("offer", a("widget"), term.Int(5)))
	rs.Fact(c("offer", a("widget"), term.Int(2)))
	rs.Fact(c("offer", a("gadget"), term.Int(7)))
	x, p := term.NewVar("X"), term.NewVar("P")
	rs.Table(c("best", x, p), Pos(c("offer", x, p)))

	eng := NewEngine(rs)
	if err := eng.DeclareMode("best/2", ModeDecl{Modes: []Mode{ModeIndex, ModeMin}}); err != nil {
		t.Fatal(err)
	}

	got := callStrings(t, eng, c("best", term.NewVar("X"), term.NewVar("P")))
	want := []string{"best(gadget,7)", "best(widget,2)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestAggregateLattice(t *testing.T) {
	rs := NewRuleSet()
	rs.Fact(c("tag", a("doc"), a("red")))
	rs.Fact(c("tag", a("doc"), a("blue")))
	rs.Fact(c("tag", a("doc"), a("red")))
	x, l := term.NewVar("X"), term.NewVar("L")
	rs.Table(c("tags", x, l), Pos(c("tag", x, l)))

	eng := NewEngine(rs)
	decl := ModeDecl{
		Modes: []Mode{ModeIndex, ModeLattice},
		// Join builds a sorted, deduplicated chain of atoms.
		Join: func(acc, arg term.Value) (term.Value, error) {
			merged := map[string]bool{}
			for _, v := range chainToSlice(acc) {
				merged[v.String()] = true
			}
			for _, v := range chainToSlice(arg) {
				merged[v.String()] = true
			}
			var names []string
			for n := range merged {
				names = append(names, n)
			}
			return sliceToChain(names), nil
		},
	}
	if err := eng.DeclareMode("tags/2", decl); err != nil {
		t.Fatal(err)
	}

	got := callStrings(t, eng, c("tags", a("doc"), term.NewVar("L")))
	if diff := cmp.Diff([]string{"tags(doc,set(blue,red))"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

// shortestProgram tables dist(From, To, Cost) with a ModeMin cost over
// weighted edges, using a native plus/3 for the arithmetic.
func shortestProgram(edges map[[2]string]int64) *RuleSet {
	rs := NewRuleSet()
	for e, w := range edges {
		rs.Fact(c("arc", a(e[0]), a(e[1]), term.Int(w)))
	}
	rs.Builtin("plus/3", func(goal term.Value, b *term.Bindings, emit func() error) error {
		args := goal.(*term.Compound).Args
		x, xok := b.Resolve(args[0]).(term.Int)
		y, yok := b.Resolve(args[1]).(term.Int)
		if !xok || !yok {
			return instantiationErrf("plus/3 needs bound integer operands")
		}
		undo, ok := b.Unify(args[2], x+y)
		if !ok {
			return nil
		}
		err := emit()
		undo.Undo()
		return err
	})

	x, y, z := term.NewVar("X"), term.NewVar("Y"), term.NewVar("Z")
	d, d1, w := term.NewVar("D"), term.NewVar("D1"), term.NewVar("W")
	rs.Table(c("dist", x, y, d), Pos(c("arc", x, y, d)))
	rs.Table(c("dist", x, y, d),
		Pos(c("dist", x, z, d1)),
		Pos(c("arc", z, y, w)),
		Pos(c("plus", d1, w, d)))
	return rs
}

func TestAggregateShortestPath(t *testing.T) {
	rs := shortestProgram(map[[2]string]int64{
		{"a", "b"}: 1,
		{"b", "c"}: 2,
		{"a", "c"}: 10,
		{"c", "a"}: 1, // cycle back
	})
	eng := NewEngine(rs)
	if err := eng.DeclareMode("dist/3", ModeDecl{Modes: []Mode{ModeIndex, ModeIndex, ModeMin}}); err != nil {
		t.Fatal(err)
	}

	got := callStrings(t, eng, c("dist", a("a"), term.NewVar("Y"), term.NewVar("D")))
	want := []string{"dist(a,a,4)", "dist(a,b,1)", "dist(a,c,3)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestDeclareModeValidation(t *testing.T) {
	eng := NewEngine(NewRuleSet())

	var tErr *Error
	err := eng.DeclareMode("p", ModeDecl{})
	if !errors.As(err, &tErr) || tErr.Code != StateErr {
		t.Fatalf("Expected state error for bad indicator but got %v", err)
	}

	err = eng.DeclareMode("p/2", ModeDecl{Modes: []Mode{ModeIndex}})
	if !errors.As(err, &tErr) || tErr.Code != StateErr {
		t.Fatalf("Expected state error for arity mismatch but got %v", err)
	}

	err = eng.DeclareMode("p/1", ModeDecl{Modes: []Mode{ModeLattice}})
	if !errors.As(err, &tErr) || tErr.Code != StateErr {
		t.Fatalf("Expected state error for missing join but got %v", err)
	}
}

func TestDeclareModeAfterEvaluationRejected(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}))
	callStrings(t, eng, c("path", a("a"), term.NewVar("Y")))

	err := eng.DeclareMode("path/2", ModeDecl{Modes: []Mode{ModeIndex, ModeLast}})
	var tErr *Error
	if !errors.As(err, &tErr) || tErr.Code != StateErr {
		t.Fatalf("Expected state error but got %v", err)
	}
}

func chainToSlice(v term.Value) []term.Value {
	if set, ok := v.(*term.Compound); ok && set.Functor == "set" {
		return set.Args
	}
	return []term.Value{v}
}

func sliceToChain(names []string) term.Value {
	sort.Strings(names)
	if len(names) == 1 {
		return term.Atom(names[0])
	}
	args := make([]term.Value, len(names))
	for i, n := range names {
		args[i] = term.Atom(n)
	}
	return &term.Compound{Functor: "set", Args: args}
}
