// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"github.com/prolite-lang/prolite/term"
)

// Literal is one goal of a rule body, optionally negated.
type Literal struct {
	Goal    term.Value
	Negated bool
}

// Pos returns a positive literal for goal.
func Pos(goal term.Value) Literal {
	return Literal{Goal: goal}
}

// Neg returns a negated literal for goal.
func Neg(goal term.Value) Literal {
	return Literal{Goal: goal, Negated: true}
}

// Rule is one defining clause of a tabled predicate.
type Rule struct {
	Head term.Value
	Body []Literal
}

// Program supplies the clause database the controller evaluates against.
// The controller owns memoization and scheduling; the program owns rule
// storage and resolution of non-tabled goals.
type Program interface {
	// Tabled reports whether goals with the given predicate indicator
	// ("functor/arity") are tabled.
	Tabled(indicator string) bool

	// Rules returns the defining rules for a tabled predicate indicator.
	Rules(indicator string) []Rule

	// Solve enumerates solutions of a non-tabled goal. Implementations
	// bind variables of goal in b, call emit once per solution and undo
	// the bindings afterwards. An error from emit aborts enumeration and
	// is returned unchanged.
	Solve(goal term.Value, b *term.Bindings, emit func() error) error
}

// BuiltinFunc resolves one non-tabled goal natively. Implementations bind
// variables of goal in b, call emit once per solution and undo afterwards.
type BuiltinFunc func(goal term.Value, b *term.Bindings, emit func() error) error

// RuleSet is a Program backed by in-memory rules, ground facts and native
// builtins. It is the implementation used by the test suites and the bench
// workloads; real hosts supply their own clause database.
type RuleSet struct {
	rules    map[string][]Rule
	facts    map[string][]term.Value
	builtins map[string]BuiltinFunc
}

// NewRuleSet returns an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		rules:    map[string][]Rule{},
		facts:    map[string][]term.Value{},
		builtins: map[string]BuiltinFunc{},
	}
}

// Table adds a defining rule for a tabled predicate.
func (rs *RuleSet) Table(head term.Value, body ...Literal) {
	ind, ok := term.Indicator(head)
	if !ok {
		panic("tabling: rule head must be an atom or compound")
	}
	rs.rules[ind] = append(rs.rules[ind], Rule{Head: head, Body: body})
}

// Fact adds a ground fact resolvable as a non-tabled goal.
func (rs *RuleSet) Fact(fact term.Value) {
	ind, ok := term.Indicator(fact)
	if !ok {
		panic("tabling: fact must be an atom or compound")
	}
	rs.facts[ind] = append(rs.facts[ind], fact)
}

// Builtin registers a native resolver for a non-tabled predicate.
func (rs *RuleSet) Builtin(indicator string, fn BuiltinFunc) {
	rs.builtins[indicator] = fn
}

// Tabled implements Program.
func (rs *RuleSet) Tabled(indicator string) bool {
	_, ok := rs.rules[indicator]
	return ok
}

// Rules implements Program.
func (rs *RuleSet) Rules(indicator string) []Rule {
	return rs.rules[indicator]
}

// Solve implements Program by matching goal against the stored facts, or
// delegating to a registered builtin.
func (rs *RuleSet) Solve(goal term.Value, b *term.Bindings, emit func() error) error {
	ind, ok := term.Indicator(goal)
	if !ok {
		return instantiationErrf("non-callable goal %v", goal)
	}
	if fn, ok := rs.builtins[ind]; ok {
		return fn(goal, b, emit)
	}
	for _, fact := range rs.facts[ind] {
		undo, ok := b.Unify(goal, fact)
		if !ok {
			continue
		}
		err := emit()
		undo.Undo()
		if err != nil {
			return err
		}
	}
	return nil
}
