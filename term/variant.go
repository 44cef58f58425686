// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// Variant returns true if a and b are equal up to a consistent renaming of
// variables: the same structure with a bijection between their variables.
func Variant(a, b Value) bool {
	return variant(a, b, map[*Var]*Var{}, map[*Var]*Var{})
}

func variant(a, b Value, fwd, rev map[*Var]*Var) bool {
	av, aok := a.(*Var)
	bv, bok := b.(*Var)
	if aok || bok {
		if !aok || !bok {
			return false
		}
		f, seenF := fwd[av]
		r, seenR := rev[bv]
		if seenF != seenR {
			return false
		}
		if seenF {
			return f == bv && r == av
		}
		fwd[av] = bv
		rev[bv] = av
		return true
	}

	switch a := a.(type) {
	case *Compound:
		b, ok := b.(*Compound)
		if !ok || a.Functor != b.Functor || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !variant(a.Args[i], b.Args[i], fwd, rev) {
				return false
			}
		}
		return true
	default:
		return a.Equal(b)
	}
}
