// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"

	"github.com/prolite-lang/prolite/term"
)

func a(s string) term.Value {
	return term.Atom(s)
}

func c(f string, args ...term.Value) term.Value {
	return term.NewCompound(f, args...)
}

// edges installs edge/2 facts and the usual transitive closure rules for
// path/2.
func pathProgram(edges ...[2]string) *RuleSet {
	rs := NewRuleSet()
	for _, e := range edges {
		rs.Fact(c("edge", a(e[0]), a(e[1])))
	}
	x, y, z := term.NewVar("X"), term.NewVar("Y"), term.NewVar("Z")
	rs.Table(c("path", x, y), Pos(c("edge", x, y)))
	rs.Table(c("path", x, y), Pos(c("path", x, z)), Pos(c("edge", z, y)))
	return rs
}

func callStrings(t *testing.T, eng *Engine, goal term.Value) []string {
	t.Helper()
	answers, err := eng.Call(context.Background(), goal)
	if err != nil {
		t.Fatal(err)
	}
	collected, err := answers.Collect()
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, ans := range collected {
		s := ans.Term.String()
		if ans.Conditional {
			s += " (undefined)"
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestTransitiveClosure(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "d"}))

	got := callStrings(t, eng, c("path", a("a"), term.NewVar("Y")))
	want := []string{"path(a,b)", "path(a,c)", "path(a,d)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestCyclicGraphTerminates(t *testing.T) {
	eng := NewEngine(pathProgram(
		[2]string{"a", "b"}, [2]string{"b", "a"}, [2]string{"b", "c"},
	))

	got := callStrings(t, eng, c("path", a("a"), term.NewVar("Y")))
	want := []string{"path(a,a)", "path(a,b)", "path(a,c)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestOpenCallEnumeratesAllVariantAnswers(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))

	got := callStrings(t, eng, c("path", term.NewVar("X"), term.NewVar("Y")))
	want := []string{"path(a,b)", "path(a,c)", "path(b,c)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}
}

func TestVariantTablesAreIndependent(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))

	gotA := callStrings(t, eng, c("path", a("a"), term.NewVar("Y")))
	gotB := callStrings(t, eng, c("path", a("b"), term.NewVar("Y")))

	if diff := cmp.Diff([]string{"path(a,b)", "path(a,c)"}, gotA); diff != "" {
		t.Fatalf("Unexpected answers for a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"path(b,c)"}, gotB); diff != "" {
		t.Fatalf("Unexpected answers for b (-want +got):\n%s", diff)
	}
}

func TestSecondCallAnswersFromTable(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))
	goal := c("path", a("a"), term.NewVar("Y"))

	first := callStrings(t, eng, goal)
	if status, ok := eng.TableStatus(goal); !ok || status != StatusComplete {
		t.Fatalf("Expected completed table but got %v, %v", status, ok)
	}

	second := callStrings(t, eng, c("path", a("a"), term.NewVar("Z")))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Expected identical answers (-first +second):\n%s", diff)
	}
}

func TestMutualRecursion(t *testing.T) {
	rs := NewRuleSet()
	n := term.NewVar("N")
	rs.Table(c("even", a("0")))
	rs.Table(c("even", c("s", n)), Pos(c("odd", n)))
	rs.Table(c("odd", c("s", n)), Pos(c("even", n)))
	eng := NewEngine(rs)

	four := c("s", c("s", c("s", c("s", a("0")))))
	truth, err := eng.Truth(context.Background(), c("even", four))
	if err != nil {
		t.Fatal(err)
	}
	if truth != True {
		t.Fatalf("Expected even(s^4(0)) true but got %v", truth)
	}

	truth, err = eng.Truth(context.Background(), c("odd", four))
	if err != nil {
		t.Fatal(err)
	}
	if truth != False {
		t.Fatalf("Expected odd(s^4(0)) false but got %v", truth)
	}
}

func TestAnswersCloneResumes(t *testing.T) {
	eng := NewEngine(pathProgram(
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "d"}, [2]string{"d", "e"},
	))

	answers, err := eng.Call(context.Background(), c("path", a("a"), term.NewVar("Y")))
	if err != nil {
		t.Fatal(err)
	}
	if first, ok := answers.Next(); !ok || first.Term == nil {
		t.Fatal("Expected a first answer")
	}

	clone := answers.Clone()
	rest1, err := answers.Collect()
	if err != nil {
		t.Fatal(err)
	}
	rest2, err := clone.Collect()
	if err != nil {
		t.Fatal(err)
	}

	if len(rest1) != 3 || len(rest2) != 3 {
		t.Fatalf("Expected 3 remaining answers on both cursors, got %d and %d", len(rest1), len(rest2))
	}
	for i := range rest1 {
		if !term.Variant(rest1[i].Term, rest2[i].Term) {
			t.Fatalf("Cursor divergence at %d: %v vs %v", i, rest1[i].Term, rest2[i].Term)
		}
	}
}

func TestNonTabledGoalRejected(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}))

	_, err := eng.Call(context.Background(), c("edge", a("a"), term.NewVar("Y")))
	var tErr *Error
	if !errors.As(err, &tErr) || tErr.Code != StateErr {
		t.Fatalf("Expected state error but got %v", err)
	}

	_, err = eng.Call(context.Background(), term.Int(1))
	if !errors.As(err, &tErr) || tErr.Code != InstantiationErr {
		t.Fatalf("Expected instantiation error but got %v", err)
	}
}

func TestCyclicBindingRejected(t *testing.T) {
	// knot/1 unifies its argument into its own value, which the missing
	// occurs check permits. Producing the answer must fail cleanly.
	rs := NewRuleSet()
	rs.Builtin("knot/1", func(goal term.Value, b *term.Bindings, emit func() error) error {
		arg := goal.(*term.Compound).Args[0]
		undo, ok := b.Unify(arg, c("f", arg))
		if !ok {
			return nil
		}
		err := emit()
		undo.Undo()
		return err
	})
	x := term.NewVar("X")
	rs.Table(c("p", x), Pos(c("knot", x)))
	eng := NewEngine(rs)

	_, err := eng.Call(context.Background(), c("p", term.NewVar("Y")))
	var tErr *Error
	if !errors.As(err, &tErr) || tErr.Code != CyclicErr {
		t.Fatalf("Expected cyclic term error but got %v", err)
	}

	// The failed component is discarded; an acyclic variant of the same
	// predicate still evaluates.
	if status, ok := eng.TableStatus(c("p", term.NewVar("Z"))); ok && status != StatusFresh {
		t.Fatalf("Expected fresh table after failure but got %v", status)
	}
}

func TestInvalidate(t *testing.T) {
	rs := pathProgram([2]string{"a", "b"})
	eng := NewEngine(rs)
	goal := c("path", a("a"), term.NewVar("Y"))

	got := callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"path(a,b)"}, got); diff != "" {
		t.Fatalf("Unexpected answers (-want +got):\n%s", diff)
	}

	// New facts are invisible until the table is invalidated.
	rs.Fact(c("edge", a("b"), a("c")))
	got = callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"path(a,b)"}, got); diff != "" {
		t.Fatalf("Expected stale answers before invalidation (-want +got):\n%s", diff)
	}

	if err := eng.Invalidate(goal); err != nil {
		t.Fatal(err)
	}
	if status, ok := eng.TableStatus(goal); !ok || status != StatusFresh {
		t.Fatalf("Expected fresh table but got %v, %v", status, ok)
	}

	got = callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"path(a,b)", "path(a,c)"}, got); diff != "" {
		t.Fatalf("Unexpected answers after invalidation (-want +got):\n%s", diff)
	}
}

func TestInvalidateIndicator(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))

	callStrings(t, eng, c("path", a("a"), term.NewVar("Y")))
	callStrings(t, eng, c("path", a("b"), term.NewVar("Y")))

	if err := eng.InvalidateIndicator("path/2"); err != nil {
		t.Fatal(err)
	}
	for _, g := range []term.Value{
		c("path", a("a"), term.NewVar("Y")),
		c("path", a("b"), term.NewVar("Y")),
	} {
		if status, ok := eng.TableStatus(g); !ok || status != StatusFresh {
			t.Fatalf("Expected fresh table for %v but got %v, %v", g, status, ok)
		}
	}
}

func TestInvalidateUnknownTableIsNoOp(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}))
	if err := eng.Invalidate(c("path", a("zzz"), term.NewVar("Y"))); err != nil {
		t.Fatal(err)
	}
}

func TestCancelledContext(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))
	goal := c("path", a("a"), term.NewVar("Y"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Call(ctx, goal)
	if !IsCancel(err) {
		t.Fatalf("Expected cancel error but got %v", err)
	}

	// The aborted component's tables must be retryable.
	if status, ok := eng.TableStatus(goal); ok && status != StatusFresh {
		t.Fatalf("Expected discarded table but got %v", status)
	}
	got := callStrings(t, eng, goal)
	if diff := cmp.Diff([]string{"path(a,b)", "path(a,c)"}, got); diff != "" {
		t.Fatalf("Unexpected answers after retry (-want +got):\n%s", diff)
	}
}

func TestCancelFlag(t *testing.T) {
	cancel := NewCancel()
	eng := NewEngine(pathProgram([2]string{"a", "b"}), WithCancel(cancel))

	cancel.Cancel()
	_, err := eng.Call(context.Background(), c("path", a("a"), term.NewVar("Y")))
	if !IsCancel(err) {
		t.Fatalf("Expected cancel error but got %v", err)
	}
}

func TestEngineStats(t *testing.T) {
	defer leaktest.Check(t)()

	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))
	goal := c("path", a("a"), term.NewVar("Y"))
	callStrings(t, eng, goal)

	stats := eng.Stats()
	if stats.Nodes == 0 || stats.Values == 0 {
		t.Fatalf("Expected populated stats but got %+v", stats)
	}

	tstats, ok := eng.TableStats(goal)
	if !ok || tstats.Values != 2 {
		t.Fatalf("Expected 2 answers in table stats but got %+v, %v", tstats, ok)
	}
}

func TestTablesListing(t *testing.T) {
	eng := NewEngine(pathProgram([2]string{"a", "b"}, [2]string{"b", "c"}))
	callStrings(t, eng, c("path", a("a"), term.NewVar("Y")))
	callStrings(t, eng, c("path", a("b"), term.NewVar("Y")))

	infos := eng.Tables("path/2")
	if len(infos) != 2 {
		t.Fatalf("Expected 2 tables but got %d", len(infos))
	}
	for _, info := range infos {
		if info.Indicator != "path/2" {
			t.Fatalf("Expected path/2 indicator but got %v", info.Indicator)
		}
		if info.Status != StatusComplete {
			t.Fatalf("Expected complete status but got %v", info.Status)
		}
		if info.Answers == 0 {
			t.Fatalf("Expected answers in %v", info.Variant)
		}
	}

	if got := eng.Tables("edge"); len(got) != 0 {
		t.Fatalf("Expected no tables for edge but got %d", len(got))
	}
	if got := eng.Tables(""); len(got) != 2 {
		t.Fatalf("Expected 2 tables for empty prefix but got %d", len(got))
	}
}
