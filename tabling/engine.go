// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package tabling implements memoized resolution over the answer index:
// call variants are tabled, mutually dependent tables complete together as
// components, and negation is evaluated under the well-founded semantics
// with delayed obligations.
package tabling

import (
	"context"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/prolite-lang/prolite/logging"
	"github.com/prolite-lang/prolite/metrics"
	"github.com/prolite-lang/prolite/term"
	"github.com/prolite-lang/prolite/trie"
)

const defaultCompletedCacheSize = 128

// Engine is the resolution controller. It owns the variant registry mapping
// canonical call variants to their tables and serializes evaluations: one
// top-level call runs at a time, answers of completed tables may be
// enumerated concurrently.
type Engine struct {
	mtx     sync.Mutex
	program Program

	// registry indexes canonical call variants; each variant node carries
	// its *Table. indicators is a radix index from predicate indicator to
	// that predicate's tables, for bulk operations.
	registry   *trie.Trie
	indicators *patricia.Trie
	completed  *lru.Cache[string, *Table]

	modes map[string]*ModeDecl

	pool    *trie.Pool
	maxTerm int
	logger  logging.Logger
	metrics metrics.Metrics
	cancel  Cancel

	nextTableID uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger the engine emits evaluation events to.
func WithLogger(l logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink for table and index instrumentation.
func WithMetrics(m metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithCancel installs a cancellation flag checked between evaluation steps.
func WithCancel(c Cancel) EngineOption {
	return func(e *Engine) { e.cancel = c }
}

// WithPool bounds the total node allocation across all answer tables.
func WithPool(p *trie.Pool) EngineOption {
	return func(e *Engine) { e.pool = p }
}

// WithMaxTermSize bounds the size of a single materialized answer.
func WithMaxTermSize(n int) EngineOption {
	return func(e *Engine) { e.maxTerm = n }
}

// WithCompletedCacheSize sizes the completed-table fast path. Zero disables
// it.
func WithCompletedCacheSize(n int) EngineOption {
	return func(e *Engine) {
		e.completed = nil
		if n > 0 {
			e.completed, _ = lru.New[string, *Table](n)
		}
	}
}

// NewEngine returns an engine evaluating against the given program.
func NewEngine(program Program, opts ...EngineOption) *Engine {
	e := &Engine{
		program:    program,
		registry:   trie.New(),
		indicators: patricia.NewTrie(),
		modes:      map[string]*ModeDecl{},
		logger:     logging.NewNoOpLogger(),
		metrics:    metrics.NoOp(),
	}
	e.completed, _ = lru.New[string, *Table](defaultCompletedCacheSize)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeclareMode enables mode-directed aggregation for a tabled predicate.
// Must happen before the predicate's first evaluation.
func (e *Engine) DeclareMode(indicator string, decl ModeDecl) error {
	if err := decl.validate(indicator); err != nil {
		return err
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()

	for _, t := range e.tablesFor(indicator) {
		if t.status != StatusFresh || t.AnswerCount() > 0 {
			return stateErrf("cannot declare modes for %v: tables already populated", indicator)
		}
		t.mode = &decl
	}
	e.modes[indicator] = &decl
	return nil
}

// Call evaluates goal to completion and returns an enumerator over its
// answers. Fresh variants are evaluated; completed variants answer from the
// table.
func (e *Engine) Call(ctx context.Context, goal term.Value) (*Answers, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	ind, ok := term.Indicator(goal)
	if !ok {
		return nil, instantiationErrf("goal %v is not callable", goal)
	}
	if !e.program.Tabled(ind) {
		return nil, stateErrf("predicate %v is not tabled", ind)
	}

	if e.completed != nil {
		if t, ok := e.completed.Get(variantSignature(goal)); ok && t.status == StatusComplete {
			return newAnswers(t), nil
		}
	}

	t, err := e.tableFor(goal)
	if err != nil {
		return nil, err
	}

	switch t.status {
	case StatusComplete:
	case StatusFresh:
		s := newScheduler(e, ctx)
		s.evalTable(t)
		if err := s.run(); err != nil {
			return nil, err
		}
	default:
		return nil, stateErrf("variant %v is already being evaluated", t.variant)
	}

	if e.completed != nil {
		e.completed.Add(variantSignature(t.variant), t)
	}
	return newAnswers(t), nil
}

// Truth evaluates a ground goal and reports its well-founded truth value.
func (e *Engine) Truth(ctx context.Context, goal term.Value) (Truth, error) {
	if !goal.IsGround() {
		return False, instantiationErrf("goal %v is not ground", goal)
	}
	answers, err := e.Call(ctx, goal)
	if err != nil {
		return False, err
	}
	defer answers.Close()

	verdict := False
	for {
		a, ok := answers.Next()
		if !ok {
			break
		}
		if !a.Conditional {
			return True, nil
		}
		verdict = Undefined
	}
	return verdict, answers.Err()
}

// Not evaluates a ground goal and reports the well-founded truth value of
// its negation. Undefined goals stay undefined.
func (e *Engine) Not(ctx context.Context, goal term.Value) (Truth, error) {
	truth, err := e.Truth(ctx, goal)
	if err != nil {
		return False, err
	}
	switch truth {
	case True:
		return False, nil
	case False:
		return True, nil
	}
	return Undefined, nil
}

// TableStatus reports the evaluation status of goal's variant table, if one
// exists.
func (e *Engine) TableStatus(goal term.Value) (Status, bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	t, err := e.lookupTable(goal)
	if err != nil || t == nil {
		return StatusFresh, false
	}
	return t.status, true
}

// TableStats reports the answer-index footprint of goal's variant table.
func (e *Engine) TableStats(goal term.Value) (trie.Stats, bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	t, err := e.lookupTable(goal)
	if err != nil || t == nil {
		return trie.Stats{}, false
	}
	return t.Stats(), true
}

// Invalidate resets goal's variant table to fresh, discarding its answers.
// Fails while the table is under evaluation.
func (e *Engine) Invalidate(goal term.Value) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	t, err := e.lookupTable(goal)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	if t.status.Active() {
		return stateErrf("cannot invalidate %v: under evaluation", t.variant)
	}
	e.resetTable(t)
	return nil
}

// InvalidateIndicator resets every table of one predicate.
func (e *Engine) InvalidateIndicator(indicator string) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	tables := e.tablesFor(indicator)
	for _, t := range tables {
		if t.status.Active() {
			return stateErrf("cannot invalidate %v: under evaluation", t.variant)
		}
	}
	for _, t := range tables {
		e.resetTable(t)
	}
	return nil
}

// InvalidateAll resets every table the engine knows about.
func (e *Engine) InvalidateAll() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	var tables []*Table
	_ = e.indicators.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		tables = append(tables, item.([]*Table)...)
		return nil
	})
	for _, t := range tables {
		if t.status.Active() {
			return stateErrf("cannot invalidate %v: under evaluation", t.variant)
		}
	}
	for _, t := range tables {
		e.resetTable(t)
	}
	return nil
}

// TableInfo describes one registered variant table.
type TableInfo struct {
	Indicator string
	Variant   term.Value
	Status    Status
	Answers   int
}

// Tables lists the registered tables whose predicate indicator starts with
// prefix. An empty prefix lists everything.
func (e *Engine) Tables(prefix string) []TableInfo {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	var infos []TableInfo
	_ = e.indicators.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		for _, t := range item.([]*Table) {
			infos = append(infos, TableInfo{
				Indicator: t.indicator,
				Variant:   t.variant,
				Status:    t.status,
				Answers:   t.AnswerCount(),
			})
		}
		return nil
	})
	return infos
}

// Stats aggregates the answer-index footprint across all tables.
func (e *Engine) Stats() trie.Stats {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	var total trie.Stats
	_ = e.indicators.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		for _, t := range item.([]*Table) {
			st := t.Stats()
			total.Nodes += st.Nodes
			total.Values += st.Values
			total.Hashes += st.Hashes
			total.Interned += st.Interned
			total.Bytes += st.Bytes
		}
		return nil
	})
	return total
}

// tableFor returns the table for goal's call variant, creating it on first
// sight. The canonical variant is rebuilt from the registry node so every
// variant call shares one table and one canonical term.
func (e *Engine) tableFor(goal term.Value) (*Table, error) {
	timer := e.metrics.Timer(metrics.TrieLookup)
	timer.Start()
	node, err := e.registry.Lookup(goal, true)
	timer.Stop()
	if err != nil {
		return nil, err
	}
	if existing, ok := e.registry.Value(node); ok {
		return existing.(*Table), nil
	}

	variant, err := e.registry.MaterializeTerm(node)
	if err != nil {
		return nil, err
	}
	ind, _ := term.Indicator(variant)

	e.nextTableID++
	t := &Table{
		id:        e.nextTableID,
		variant:   variant,
		indicator: ind,
		answers:   e.newAnswerTrie(),
		node:      node,
		mode:      e.modes[ind],
	}
	if _, err := e.registry.SetValue(node, t, false); err != nil {
		t.answers.Release()
		return nil, err
	}

	prefix := patricia.Prefix(ind)
	if item := e.indicators.Get(prefix); item != nil {
		e.indicators.Set(prefix, append(item.([]*Table), t))
	} else {
		e.indicators.Set(prefix, []*Table{t})
	}
	return t, nil
}

// lookupTable returns goal's table without creating one.
func (e *Engine) lookupTable(goal term.Value) (*Table, error) {
	node, err := e.registry.Lookup(goal, false)
	if err != nil || node == nil {
		return nil, err
	}
	v, ok := e.registry.Value(node)
	if !ok {
		return nil, nil
	}
	return v.(*Table), nil
}

func (e *Engine) tablesFor(indicator string) []*Table {
	item := e.indicators.Get(patricia.Prefix(indicator))
	if item == nil {
		return nil
	}
	return item.([]*Table)
}

func (e *Engine) newAnswerTrie() *trie.Trie {
	opts := []trie.Option{trie.WithValueEqual(answerEqual)}
	if e.pool != nil {
		opts = append(opts, trie.WithPool(e.pool))
	}
	if e.maxTerm > 0 {
		opts = append(opts, trie.WithMaxTermSize(e.maxTerm))
	}
	return trie.New(opts...)
}

// resetTable returns a table to its fresh state, dropping its answer index.
func (e *Engine) resetTable(t *Table) {
	t.release()
	t.answers = e.newAnswerTrie()
	t.status = StatusFresh
	t.comp = nil
	t.uncondCount = 0
	t.condCount = 0
	if e.completed != nil {
		e.completed.Remove(variantSignature(t.variant))
	}
}

// variantSignature renders a variant-canonical string for a goal: variables
// are numbered by first occurrence, so two goals share a signature exactly
// when they are variants of each other.
func variantSignature(v term.Value) string {
	var sb strings.Builder
	writeSignature(&sb, v, map[*term.Var]int{})
	return sb.String()
}

func writeSignature(sb *strings.Builder, v term.Value, seen map[*term.Var]int) {
	switch v := v.(type) {
	case *term.Var:
		idx, ok := seen[v]
		if !ok {
			idx = len(seen)
			seen[v] = idx
		}
		sb.WriteByte('_')
		sb.WriteString(strconv.Itoa(idx))
	case term.Atom:
		sb.WriteByte('a')
		sb.WriteString(strconv.Quote(string(v)))
	case term.Int:
		sb.WriteByte('i')
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case term.Str:
		sb.WriteByte('s')
		sb.WriteString(strconv.Quote(string(v)))
	case *term.Compound:
		sb.WriteByte('c')
		sb.WriteString(strconv.Quote(v.Functor))
		sb.WriteByte('(')
		for i, arg := range v.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeSignature(sb, arg, seen)
		}
		sb.WriteByte(')')
	}
}
