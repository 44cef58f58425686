// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import "errors"

// ErrCyclic reports a binding structure that ties a variable back into its
// own value, so applying the bindings would never terminate.
var ErrCyclic = errors.New("cyclic term")

// plugCheckThreshold is the number of compounds after which Plug starts
// tracking its descent path to detect cyclic bindings.
const plugCheckThreshold = 1000

// Bindings is a mutable substitution mapping variables to values. Bindings
// made by Unify are recorded on an undo trail so a failed or abandoned
// derivation can be rolled back cheaply.
type Bindings struct {
	values map[*Var]Value
}

// NewBindings returns a new empty set of bindings.
func NewBindings() *Bindings {
	return &Bindings{values: map[*Var]Value{}}
}

// Copy returns an independent copy of the bindings. Undo records taken
// before the copy do not affect it.
func (b *Bindings) Copy() *Bindings {
	cpy := &Bindings{values: make(map[*Var]Value, len(b.values))}
	for k, v := range b.values {
		cpy.values[k] = v
	}
	return cpy
}

// Undo represents a unification that can be undone.
type Undo struct {
	b    *Bindings
	vars []*Var
}

// Undo removes the bindings recorded by the unification that produced u.
// Call on the zero value is a no-op for ease-of-use.
func (u *Undo) Undo() {
	if u == nil {
		return
	}
	for _, v := range u.vars {
		delete(u.b.values, v)
	}
	u.vars = nil
}

// Resolve follows variable bindings until it reaches an unbound variable or
// a non-variable value. It does not descend into compound arguments.
func (b *Bindings) Resolve(v Value) Value {
	for {
		w, ok := v.(*Var)
		if !ok {
			return v
		}
		bound, ok := b.values[w]
		if !ok {
			return w
		}
		v = bound
	}
}

// Plug returns v with all bound variables replaced by their values,
// recursively. Unbound variables are left in place. Unification has no
// occurs check, so the bindings can tie a variable back into its own value;
// a plug that keeps descending past plugCheckThreshold compounds switches
// to tracking the stored compounds on its path and returns ErrCyclic when
// one recurs.
func (b *Bindings) Plug(v Value) (Value, error) {
	p := plugger{b: b}
	return p.plug(v)
}

type plugger struct {
	b         *Bindings
	compounds int
	path      map[*Compound]struct{}
}

func (p *plugger) plug(v Value) (Value, error) {
	v = p.b.Resolve(v)
	c, ok := v.(*Compound)
	if !ok {
		return v, nil
	}

	if p.compounds++; p.compounds >= plugCheckThreshold {
		if p.path == nil {
			p.path = map[*Compound]struct{}{}
		}
		// A cyclic descent must revisit a stored compound while it is
		// still on the path; shared subterms leave and re-enter instead.
		if _, seen := p.path[c]; seen {
			return nil, ErrCyclic
		}
		p.path[c] = struct{}{}
		defer delete(p.path, c)
	}

	args := make([]Value, len(c.Args))
	for i := range c.Args {
		arg, err := p.plug(c.Args[i])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return &Compound{Functor: c.Functor, Args: args}, nil
}

// Unify makes a and b equal under the bindings, binding unbound variables as
// needed. On success it returns an undo record and true. On failure all
// bindings made during the attempt are rolled back and it returns nil, false.
//
// There is no occurs check; cyclic terms constructed through unification are
// caught when the bindings are applied (Plug) or the term is indexed.
func (b *Bindings) Unify(x, y Value) (*Undo, bool) {
	undo := &Undo{b: b}
	if b.unify(x, y, undo) {
		return undo, true
	}
	undo.Undo()
	return nil, false
}

func (b *Bindings) unify(x, y Value, undo *Undo) bool {
	x, y = b.Resolve(x), b.Resolve(y)

	if xv, ok := x.(*Var); ok {
		if yv, ok := y.(*Var); ok && xv == yv {
			return true
		}
		b.bind(xv, y, undo)
		return true
	}
	if yv, ok := y.(*Var); ok {
		b.bind(yv, x, undo)
		return true
	}

	switch x := x.(type) {
	case *Compound:
		y, ok := y.(*Compound)
		if !ok || x.Functor != y.Functor || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !b.unify(x.Args[i], y.Args[i], undo) {
				return false
			}
		}
		return true
	default:
		return x.Equal(y)
	}
}

func (b *Bindings) bind(v *Var, val Value, undo *Undo) {
	b.values[v] = val
	undo.vars = append(undo.vars, v)
}
