// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package tabling

import (
	"github.com/prolite-lang/prolite/term"
	"github.com/prolite-lang/prolite/trie"
)

// Answer is one memoized answer of a completed table. Term is a fresh
// variant of the stored answer; Conditional marks answers whose truth is
// undefined under the well-founded semantics.
type Answer struct {
	Term        term.Value
	Conditional bool
}

// Answers enumerates the answers of a completed table. The enumeration is
// resumable: it can sit suspended between Next calls indefinitely, and
// Clone forks an independent cursor at the current position. Close releases
// the underlying index reference.
type Answers struct {
	table *Table
	it    *trie.Iterator
	err   error
}

func newAnswers(t *Table) *Answers {
	return &Answers{table: t, it: t.answers.Iterate()}
}

// Next returns the next answer, or false when the enumeration is exhausted
// or failed. Check Err after the final Next.
func (a *Answers) Next() (Answer, bool) {
	if a.err != nil {
		return Answer{}, false
	}
	for {
		node, ok := a.it.Next()
		if !ok {
			return Answer{}, false
		}
		raw, ok := a.table.answers.Value(node)
		if !ok {
			continue
		}
		ans := raw.(*answer)

		at := ans.term
		if at == nil {
			var err error
			at, err = a.table.answers.MaterializeTerm(node)
			if err != nil {
				a.err = err
				return Answer{}, false
			}
		} else {
			at = term.Rename(at)
		}
		return Answer{Term: at, Conditional: len(ans.delays) > 0}, true
	}
}

// Err returns the first error hit while enumerating, if any.
func (a *Answers) Err() error {
	return a.err
}

// Clone returns an independent enumerator at the same position.
func (a *Answers) Clone() *Answers {
	return &Answers{table: a.table, it: a.it.Clone(), err: a.err}
}

// Close releases the enumerator. Safe to call more than once.
func (a *Answers) Close() {
	a.it.Close()
}

// Collect drains the enumerator and closes it.
func (a *Answers) Collect() ([]Answer, error) {
	defer a.Close()
	var out []Answer
	for {
		ans, ok := a.Next()
		if !ok {
			break
		}
		out = append(out, ans)
	}
	return out, a.err
}
