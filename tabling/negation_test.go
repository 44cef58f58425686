// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prolite-lang/prolite/term"
)

// winProgram tables win(X) :- move(X,Y), \+ win(Y) over the given moves.
func winProgram(moves ...[2]string) *RuleSet {
	rs := NewRuleSet()
	for _, m := range moves {
		rs.Fact(c("move", a(m[0]), a(m[1])))
	}
	x, y := term.NewVar("X"), term.NewVar("Y")
	rs.Table(c("win", x), Pos(c("move", x, y)), Neg(c("win", y)))
	return rs
}

func truthOf(t *testing.T, eng *Engine, goal term.Value) Truth {
	t.Helper()
	truth, err := eng.Truth(context.Background(), goal)
	if err != nil {
		t.Fatal(err)
	}
	return truth
}

func TestNegationStratified(t *testing.T) {
	// a -> b -> c, c is terminal: c loses, b wins, a loses.
	eng := NewEngine(winProgram([2]string{"a", "b"}, [2]string{"b", "c"}))

	if got := truthOf(t, eng, c("win", a("c"))); got != False {
		t.Fatalf("Expected win(c) false but got %v", got)
	}
	if got := truthOf(t, eng, c("win", a("b"))); got != True {
		t.Fatalf("Expected win(b) true but got %v", got)
	}
	if got := truthOf(t, eng, c("win", a("a"))); got != False {
		t.Fatalf("Expected win(a) false but got %v", got)
	}
}

func TestNegationUndefinedLoop(t *testing.T) {
	// a <-> b: neither position is winning or losing.
	eng := NewEngine(winProgram([2]string{"a", "b"}, [2]string{"b", "a"}))

	if got := truthOf(t, eng, c("win", a("a"))); got != Undefined {
		t.Fatalf("Expected win(a) undefined but got %v", got)
	}
	if got := truthOf(t, eng, c("win", a("b"))); got != Undefined {
		t.Fatalf("Expected win(b) undefined but got %v", got)
	}
}

func TestNegationLoopWithEscape(t *testing.T) {
	// a -> b, b -> a, a -> c, c terminal: the escape to a lost position
	// makes a winning despite the loop, and b losing.
	eng := NewEngine(winProgram(
		[2]string{"a", "b"}, [2]string{"b", "a"}, [2]string{"a", "c"},
	))

	if got := truthOf(t, eng, c("win", a("a"))); got != True {
		t.Fatalf("Expected win(a) true but got %v", got)
	}
	if got := truthOf(t, eng, c("win", a("b"))); got != False {
		t.Fatalf("Expected win(b) false but got %v", got)
	}
}

func TestConditionalAnswerSurfaced(t *testing.T) {
	eng := NewEngine(winProgram([2]string{"a", "b"}, [2]string{"b", "a"}))

	answers, err := eng.Call(context.Background(), c("win", a("a")))
	if err != nil {
		t.Fatal(err)
	}
	got, err := answers.Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Conditional {
		t.Fatalf("Expected one conditional answer but got %+v", got)
	}
	if !got[0].Term.Equal(c("win", a("a"))) {
		t.Fatalf("Expected win(a) but got %v", got[0].Term)
	}
}

func TestNegationOverNonTabledGoal(t *testing.T) {
	rs := NewRuleSet()
	rs.Fact(c("blocked", a("b")))
	rs.Fact(c("node", a("a")))
	rs.Fact(c("node", a("b")))
	x := term.NewVar("X")
	rs.Table(c("open", x), Pos(c("node", x)), Neg(c("blocked", x)))
	eng := NewEngine(rs)

	got := callStrings(t, eng, c("open", term.NewVar("X")))
	if diff := cmp.Diff([]string{"open(a)"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestNonGroundNegationRejected(t *testing.T) {
	rs := NewRuleSet()
	x, y := term.NewVar("X"), term.NewVar("Y")
	rs.Table(c("p", x), Neg(c("q", x, y)))
	rs.Table(c("q", x, y))
	eng := NewEngine(rs)

	_, err := eng.Call(context.Background(), c("p", a("a")))
	var tErr *Error
	if !errors.As(err, &tErr) || tErr.Code != InstantiationErr {
		t.Fatalf("Expected instantiation error but got %v", err)
	}
}

func TestThreeValuedChain(t *testing.T) {
	// p :- \+ q. q :- \+ q. The loop leaves q undefined, and p inherits
	// the undefinedness through its negation.
	rs := NewRuleSet()
	rs.Table(a("p"), Neg(a("q")))
	rs.Table(a("q"), Neg(a("q")))
	eng := NewEngine(rs)

	if got := truthOf(t, eng, a("q")); got != Undefined {
		t.Fatalf("Expected q undefined but got %v", got)
	}
	if got := truthOf(t, eng, a("p")); got != Undefined {
		t.Fatalf("Expected p undefined but got %v", got)
	}
}

func TestNotInvertsTruth(t *testing.T) {
	// a -> b, b -> a, a -> c, c terminal: win(a) true, win(c) false, and a
	// pure loop d <-> e leaves win(d) undefined.
	eng := NewEngine(winProgram(
		[2]string{"a", "b"}, [2]string{"b", "a"}, [2]string{"a", "c"},
		[2]string{"d", "e"}, [2]string{"e", "d"},
	))

	cases := []struct {
		pos  string
		want Truth
	}{
		{"a", False},
		{"c", True},
		{"d", Undefined},
	}
	for _, tc := range cases {
		got, err := eng.Not(context.Background(), c("win", a(tc.pos)))
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Fatalf("Expected not win(%v) to be %v but got %v", tc.pos, tc.want, got)
		}
	}

	if _, err := eng.Not(context.Background(), c("win", term.NewVar("X"))); err == nil {
		t.Fatal("Expected error for non-ground goal")
	}
}

func TestStratifiedThroughCompletedTable(t *testing.T) {
	// reach/2 is computed first; unreachable/1 negates over the completed
	// tables.
	rs := pathProgram([2]string{"a", "b"}, [2]string{"b", "c"})
	rs.Fact(c("node", a("a")))
	rs.Fact(c("node", a("b")))
	rs.Fact(c("node", a("c")))
	rs.Fact(c("node", a("d")))
	x := term.NewVar("X")
	rs.Table(c("unreachable", x), Pos(c("node", x)), Neg(c("path", a("a"), x)))
	eng := NewEngine(rs)

	got := callStrings(t, eng, c("unreachable", term.NewVar("X")))
	if diff := cmp.Diff([]string{"unreachable(a)", "unreachable(d)"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}
