// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package trie

import (
	"github.com/prolite-lang/prolite/term"
)

// MaterializeTerm rebuilds the term stored at n by collecting the token
// chain from n up to the root and replaying it root-to-leaf against a fresh
// output term. Variable tokens are bound consistently: the first occurrence
// of a local index allocates a fresh variable, repeats reuse it. Interned
// references are expanded from the side table.
//
// The result is a variant of the inserted term, never the identical value.
func (t *Trie) MaterializeTerm(n *Node) (term.Value, error) {
	var keys []key
	for ; n.parent != nil; n = n.parent {
		keys = append(keys, n.key)
	}
	return t.replayKeys(keys)
}

type termBuilder struct {
	functor string
	arity   int
	args    []term.Value
}

// replayKeys replays a leaf-to-root key chain in reverse. An explicit
// builder stack tracks open structures; a close token completes the
// innermost one.
func (t *Trie) replayKeys(keys []key) (term.Value, error) {
	var stack []*termBuilder
	var result term.Value
	vars := map[int64]*term.Var{}
	allocated := 0

	place := func(v term.Value) {
		if len(stack) == 0 {
			result = v
		} else {
			top := stack[len(stack)-1]
			top.args = append(top.args, v)
		}
	}

	for i := len(keys) - 1; i >= 0; i-- {
		if allocated++; t.maxTerm > 0 && allocated > t.maxTerm {
			return nil, resourceErr("term size")
		}
		k := keys[i]
		switch k.kind {
		case keyFunctor:
			stack = append(stack, &termBuilder{
				functor: k.str,
				arity:   int(k.num),
				args:    make([]term.Value, 0, k.num),
			})
		case keyPop:
			if len(stack) == 0 {
				return nil, &Error{Code: InternalErr, Message: "unbalanced close token"}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			place(&term.Compound{Functor: top.functor, Args: top.args})
		case keyAtom:
			place(term.Atom(k.str))
		case keyInt:
			place(term.Int(k.num))
		case keyVar:
			v, ok := vars[k.num]
			if !ok {
				v = term.NewVar("")
				vars[k.num] = v
			}
			place(v)
		case keyIndirect:
			val, ok := t.indirects.value(k.num)
			if !ok {
				return nil, &Error{Code: InternalErr, Message: "dangling interned reference"}
			}
			place(val)
		default:
			return nil, &Error{Code: InternalErr, Message: "unexpected token on stored path"}
		}
	}

	if result == nil || len(stack) != 0 {
		return nil, &Error{Code: InternalErr, Message: "incomplete stored path"}
	}
	return result, nil
}
