// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import "strings"

// Compare returns an integer indicating whether two values are less than,
// equal to, or greater than each other under the standard order of terms:
//
//	Var < Int < Atom < Str < Compound
//
// Variables are ordered by age, compound terms by arity, then functor, then
// arguments left to right.
func Compare(a, b Value) int {
	o1, o2 := sortOrder(a), sortOrder(b)
	if o1 != o2 {
		if o1 < o2 {
			return -1
		}
		return 1
	}
	switch a := a.(type) {
	case *Var:
		b := b.(*Var)
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	case Int:
		b := b.(Int)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case Atom:
		return strings.Compare(string(a), string(b.(Atom)))
	case Str:
		return strings.Compare(string(a), string(b.(Str)))
	case *Compound:
		b := b.(*Compound)
		switch {
		case len(a.Args) < len(b.Args):
			return -1
		case len(a.Args) > len(b.Args):
			return 1
		}
		if cmp := strings.Compare(a.Functor, b.Functor); cmp != 0 {
			return cmp
		}
		for i := range a.Args {
			if cmp := Compare(a.Args[i], b.Args[i]); cmp != 0 {
				return cmp
			}
		}
		return 0
	}
	panic("unreachable")
}

func sortOrder(v Value) int {
	switch v.(type) {
	case *Var:
		return 0
	case Int:
		return 1
	case Atom:
		return 2
	case Str:
		return 3
	case *Compound:
		return 4
	}
	panic("unreachable")
}
