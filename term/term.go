// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package term implements the term representation consumed by the answer
// index and the resolution controller: atoms, integers, strings, variables
// and compound terms, together with unification, variant testing and
// depth-first traversal.
package term

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Value declares the common interface for all term values.
type Value interface {
	// Equal returns true if this value is structurally equal to the other
	// value. Unbound variables are equal only to themselves.
	Equal(other Value) bool

	// IsGround returns true if this value contains no variables.
	IsGround() bool

	// String returns a human readable string representation of the value.
	String() string

	// Hash returns the hash code of the value.
	Hash() int
}

// Atom represents a symbolic constant.
type Atom string

// Equal returns true if the other value is the same atom.
func (a Atom) Equal(other Value) bool {
	b, ok := other.(Atom)
	return ok && a == b
}

// IsGround always returns true.
func (Atom) IsGround() bool {
	return true
}

// Hash returns the hash code for the atom.
func (a Atom) Hash() int {
	return int(xxhash.Sum64String(string(a)))
}

func (a Atom) String() string {
	return string(a)
}

// Int represents an integer constant.
type Int int64

// Equal returns true if the other value is the same integer.
func (i Int) Equal(other Value) bool {
	j, ok := other.(Int)
	return ok && i == j
}

// IsGround always returns true.
func (Int) IsGround() bool {
	return true
}

// Hash returns the hash code for the integer.
func (i Int) Hash() int {
	return int(uint64(i) * 0x9e3779b97f4a7c15)
}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Str represents a boxed string constant. Strings are the canonical heavy
// payload class: the answer index stores them once in an interned side table
// rather than duplicating them across paths.
type Str string

// Equal returns true if the other value is the same string.
func (s Str) Equal(other Value) bool {
	t, ok := other.(Str)
	return ok && s == t
}

// IsGround always returns true.
func (Str) IsGround() bool {
	return true
}

// Hash returns the hash code for the string.
func (s Str) Hash() int {
	return int(xxhash.Sum64String(string(s)) ^ 0x5851f42d4c957f2d)
}

func (s Str) String() string {
	return strconv.Quote(string(s))
}

var varID uint64

// Var represents a logic variable. Identity is the pointer: two variables
// are the same variable iff they are the same *Var.
type Var struct {
	Name string

	// Attributed marks a constrained variable. The answer index rejects
	// attributed variables because the constraint store cannot be
	// serialized into a token stream.
	Attributed bool

	id uint64
}

// NewVar returns a fresh variable with the given name. The name is for
// printing only and carries no identity.
func NewVar(name string) *Var {
	return &Var{Name: name, id: atomic.AddUint64(&varID, 1)}
}

// Equal returns true if the other value is this variable.
func (v *Var) Equal(other Value) bool {
	w, ok := other.(*Var)
	return ok && v == w
}

// IsGround always returns false.
func (*Var) IsGround() bool {
	return false
}

// Hash returns the hash code for the variable.
func (v *Var) Hash() int {
	return int(v.id * 0xff51afd7ed558ccd)
}

func (v *Var) String() string {
	if v.Name != "" {
		return v.Name
	}
	return "_G" + strconv.FormatUint(v.id, 10)
}

// Compound represents a compound term: a functor applied to one or more
// arguments.
type Compound struct {
	Functor string
	Args    []Value
}

// NewCompound returns a compound term with the given functor and arguments.
func NewCompound(functor string, args ...Value) *Compound {
	return &Compound{Functor: functor, Args: args}
}

// Arity returns the number of arguments.
func (c *Compound) Arity() int {
	return len(c.Args)
}

// Equal returns true if the other value is a compound with the same functor,
// arity and structurally equal arguments. Equality on compounds containing
// unbound variables requires the same variables in the same positions.
func (c *Compound) Equal(other Value) bool {
	d, ok := other.(*Compound)
	if !ok || c.Functor != d.Functor || len(c.Args) != len(d.Args) {
		return false
	}
	for i := range c.Args {
		if !c.Args[i].Equal(d.Args[i]) {
			return false
		}
	}
	return true
}

// IsGround returns true if all arguments are ground.
func (c *Compound) IsGround() bool {
	for _, arg := range c.Args {
		if !arg.IsGround() {
			return false
		}
	}
	return true
}

// Hash returns the hash code for the compound term.
func (c *Compound) Hash() int {
	h := xxhash.New()
	_, _ = h.WriteString(c.Functor)
	_, _ = h.WriteString("/")
	_, _ = h.WriteString(strconv.Itoa(len(c.Args)))
	hash := int(h.Sum64())
	for _, arg := range c.Args {
		hash = hash*31 + arg.Hash()
	}
	return hash
}

func (c *Compound) String() string {
	var sb strings.Builder
	sb.WriteString(c.Functor)
	sb.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Indicator returns the predicate indicator ("functor/arity") of v. Atoms
// have arity zero. The second return value is false for values that have no
// predicate indicator (variables, integers, strings).
func Indicator(v Value) (string, bool) {
	switch v := v.(type) {
	case Atom:
		return string(v) + "/0", true
	case *Compound:
		return v.Functor + "/" + strconv.Itoa(len(v.Args)), true
	}
	return "", false
}

// Vars returns the unbound variables of v in first-occurrence depth-first
// order.
func Vars(v Value) []*Var {
	var result []*Var
	seen := map[*Var]struct{}{}
	walkValues(v, func(x Value) {
		if w, ok := x.(*Var); ok {
			if _, dup := seen[w]; !dup {
				seen[w] = struct{}{}
				result = append(result, w)
			}
		}
	})
	return result
}

func walkValues(v Value, f func(Value)) {
	f(v)
	if c, ok := v.(*Compound); ok {
		for _, arg := range c.Args {
			walkValues(arg, f)
		}
	}
}

// Rename returns a copy of v with every variable replaced by a fresh one,
// preserving the sharing pattern.
func Rename(v Value) Value {
	return renameValue(v, map[*Var]*Var{})
}

func renameValue(v Value, mapping map[*Var]*Var) Value {
	switch v := v.(type) {
	case *Var:
		w, ok := mapping[v]
		if !ok {
			w = NewVar(v.Name)
			w.Attributed = v.Attributed
			mapping[v] = w
		}
		return w
	case *Compound:
		args := make([]Value, len(v.Args))
		for i := range v.Args {
			args[i] = renameValue(v.Args[i], mapping)
		}
		return &Compound{Functor: v.Functor, Args: args}
	default:
		return v
	}
}
