// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/prolite-lang/prolite/logging"
	"github.com/prolite-lang/prolite/metrics"
	"github.com/prolite-lang/prolite/tabling"
	"github.com/prolite-lang/prolite/term"
	"github.com/prolite-lang/prolite/trie"
)

type benchParams struct {
	workload   string
	size       int
	showMetric bool
	logLevel   string
	tableSpace int64
}

func init() {
	params := benchParams{}

	benchCommand := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark built-in tabling workloads",
		Long: `Run one of the built-in workloads against the tabling engine and report
answer counts and timings.

Workloads:

	closure   transitive closure over a cyclic chain graph
	game      win/lose positions under well-founded negation
	shortest  shortest distances with min-aggregated answers
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBench(os.Stdout, params)
		},
	}

	benchCommand.Flags().StringVarP(&params.workload, "workload", "w", "closure", "workload to run (closure, game, shortest)")
	benchCommand.Flags().IntVarP(&params.size, "size", "n", 1000, "workload size (number of graph nodes)")
	benchCommand.Flags().BoolVar(&params.showMetric, "metrics", false, "report engine metrics")
	benchCommand.Flags().StringVar(&params.logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	benchCommand.Flags().Int64Var(&params.tableSpace, "table-space", 0, "table space limit in bytes (0 for unlimited)")
	RootCommand.AddCommand(benchCommand)
}

func runBench(out io.Writer, params benchParams) error {
	logger := logging.New()
	switch params.logLevel {
	case "debug":
		logger.SetLevel(logging.Debug)
	case "info":
		logger.SetLevel(logging.Info)
	case "warn":
		logger.SetLevel(logging.Warn)
	case "error":
		logger.SetLevel(logging.Error)
	default:
		return fmt.Errorf("invalid log level %q", params.logLevel)
	}

	m := metrics.New()
	opts := []tabling.EngineOption{
		tabling.WithLogger(logger),
		tabling.WithMetrics(m),
	}
	if params.tableSpace > 0 {
		opts = append(opts, tabling.WithPool(trie.NewPool(params.tableSpace)))
	}

	var run func(io.Writer, benchParams, []tabling.EngineOption) error
	switch params.workload {
	case "closure":
		run = benchClosure
	case "game":
		run = benchGame
	case "shortest":
		run = benchShortest
	default:
		return fmt.Errorf("unknown workload %q", params.workload)
	}

	start := time.Now()
	if err := run(out, params, opts); err != nil {
		return err
	}
	fmt.Fprintf(out, "elapsed: %v\n", time.Since(start))

	if params.showMetric {
		bs, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(bs))
	}
	return nil
}

func node(i int) term.Value {
	return term.Atom("n" + strconv.Itoa(i))
}

// benchClosure computes the transitive closure of a chain with a back edge
// every tenth node, so the evaluation has to work through cycles.
func benchClosure(out io.Writer, params benchParams, opts []tabling.EngineOption) error {
	rs := tabling.NewRuleSet()
	for i := 0; i < params.size; i++ {
		rs.Fact(term.NewCompound("edge", node(i), node(i+1)))
		if i%10 == 9 {
			rs.Fact(term.NewCompound("edge", node(i), node(i-9)))
		}
	}
	x, y, z := term.NewVar("X"), term.NewVar("Y"), term.NewVar("Z")
	rs.Table(term.NewCompound("path", x, y), tabling.Pos(term.NewCompound("edge", x, y)))
	rs.Table(term.NewCompound("path", x, y),
		tabling.Pos(term.NewCompound("path", x, z)),
		tabling.Pos(term.NewCompound("edge", z, y)))

	eng := tabling.NewEngine(rs, opts...)
	answers, err := eng.Call(context.Background(), term.NewCompound("path", node(0), term.NewVar("Y")))
	if err != nil {
		return err
	}
	collected, err := answers.Collect()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "workload: closure size=%d answers=%d\n", params.size, len(collected))
	return nil
}

// benchGame classifies positions of a move graph as won, lost or drawn. The
// chain gives alternating outcomes, the extra loop edges give draws.
func benchGame(out io.Writer, params benchParams, opts []tabling.EngineOption) error {
	rs := tabling.NewRuleSet()
	for i := 0; i < params.size; i++ {
		rs.Fact(term.NewCompound("move", node(i), node(i+1)))
		if i%7 == 6 {
			rs.Fact(term.NewCompound("move", node(i+1), node(i)))
		}
	}
	x, y := term.NewVar("X"), term.NewVar("Y")
	rs.Table(term.NewCompound("win", x),
		tabling.Pos(term.NewCompound("move", x, y)),
		tabling.Neg(term.NewCompound("win", y)))

	eng := tabling.NewEngine(rs, opts...)
	var won, lost, drawn int
	for i := 0; i <= params.size; i++ {
		truth, err := eng.Truth(context.Background(), term.NewCompound("win", node(i)))
		if err != nil {
			return err
		}
		switch truth {
		case tabling.True:
			won++
		case tabling.False:
			lost++
		case tabling.Undefined:
			drawn++
		}
	}
	fmt.Fprintf(out, "workload: game size=%d won=%d lost=%d drawn=%d\n", params.size, won, lost, drawn)
	return nil
}

// benchShortest computes min-aggregated distances over a weighted cyclic
// graph with shortcut edges.
func benchShortest(out io.Writer, params benchParams, opts []tabling.EngineOption) error {
	rs := tabling.NewRuleSet()
	for i := 0; i < params.size; i++ {
		rs.Fact(term.NewCompound("arc", node(i), node(i+1), term.Int(2)))
		if i%5 == 0 && i+5 <= params.size {
			rs.Fact(term.NewCompound("arc", node(i), node(i+5), term.Int(7)))
		}
	}
	rs.Fact(term.NewCompound("arc", node(params.size), node(0), term.Int(1)))
	rs.Builtin("plus/3", func(goal term.Value, b *term.Bindings, emit func() error) error {
		args := goal.(*term.Compound).Args
		p, pok := b.Resolve(args[0]).(term.Int)
		q, qok := b.Resolve(args[1]).(term.Int)
		if !pok || !qok {
			return fmt.Errorf("plus/3 needs bound integer operands")
		}
		undo, ok := b.Unify(args[2], p+q)
		if !ok {
			return nil
		}
		err := emit()
		undo.Undo()
		return err
	})

	x, y, z := term.NewVar("X"), term.NewVar("Y"), term.NewVar("Z")
	d, d1, w := term.NewVar("D"), term.NewVar("D1"), term.NewVar("W")
	rs.Table(term.NewCompound("dist", x, y, d), tabling.Pos(term.NewCompound("arc", x, y, d)))
	rs.Table(term.NewCompound("dist", x, y, d),
		tabling.Pos(term.NewCompound("dist", x, z, d1)),
		tabling.Pos(term.NewCompound("arc", z, y, w)),
		tabling.Pos(term.NewCompound("plus", d1, w, d)))

	eng := tabling.NewEngine(rs, opts...)
	if err := eng.DeclareMode("dist/3", tabling.ModeDecl{
		Modes: []tabling.Mode{tabling.ModeIndex, tabling.ModeIndex, tabling.ModeMin},
	}); err != nil {
		return err
	}

	answers, err := eng.Call(context.Background(), term.NewCompound("dist", node(0), term.NewVar("Y"), term.NewVar("D")))
	if err != nil {
		return err
	}
	collected, err := answers.Collect()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "workload: shortest size=%d answers=%d\n", params.size, len(collected))
	return nil
}
