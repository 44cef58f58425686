// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package trie

import (
	"strconv"

	"github.com/prolite-lang/prolite/term"
)

// keyKind discriminates the token kinds a node key can carry. One key
// corresponds to one token of the depth-first serialization of a term.
type keyKind uint8

const (
	keyAtom keyKind = iota
	keyInt
	keyFunctor  // structure token: symbol + arity
	keyVar      // variable token: first-occurrence index
	keyPop      // close token: end of a structure's argument list
	keyIndirect // reference into the interned-value table
	keyError    // sentinel installed below a failed insertion before pruning
)

// key is a single token position. Keys are comparable so they can serve as
// map keys in hashed children tables.
type key struct {
	kind keyKind
	str  string // atom name or functor symbol
	num  int64  // integer value, arity, variable index or indirect id
}

func atomKey(a term.Atom) key {
	return key{kind: keyAtom, str: string(a)}
}

func intKey(i term.Int) key {
	return key{kind: keyInt, num: int64(i)}
}

func functorKey(c *term.Compound) key {
	return key{kind: keyFunctor, str: c.Functor, num: int64(len(c.Args))}
}

func varKey(index int64) key {
	return key{kind: keyVar, num: index}
}

func indirectKey(id int64) key {
	return key{kind: keyIndirect, num: id}
}

var popKey = key{kind: keyPop}
var errorKey = key{kind: keyError}

func (k key) String() string {
	switch k.kind {
	case keyAtom:
		return k.str
	case keyInt:
		return strconv.FormatInt(k.num, 10)
	case keyFunctor:
		return k.str + "/" + strconv.FormatInt(k.num, 10)
	case keyVar:
		return "_V" + strconv.FormatInt(k.num, 10)
	case keyPop:
		return ")"
	case keyIndirect:
		return "$i" + strconv.FormatInt(k.num, 10)
	default:
		return "<error>"
	}
}
