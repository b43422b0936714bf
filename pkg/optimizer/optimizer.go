// Package optimizer runs the block-local optimizer over a whole unit:
// partition, flow graph, liveness, per-block value graph rewriting and
// reassembly.
package optimizer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/anchor-lang/anchorc/pkg/cfg"
	"github.com/anchor-lang/anchorc/pkg/dag"
	"github.com/anchor-lang/anchorc/pkg/diag"
	"github.com/anchor-lang/anchorc/pkg/liveness"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

// Options tunes a run. The zero value is a sequential run.
type Options struct {
	// Jobs is the number of blocks optimized at once; <= 1 is sequential.
	Jobs int
	// TempBase is the lowest temporary index the optimizer may create. It is
	// raised above every temporary already in the input.
	TempBase int
}

// Result is the outcome of one run.
type Result struct {
	Quads      []quad.Quad
	Blocks     []*cfg.Block // analysed blocks, holding their optimized code
	Unresolved []cfg.Unresolved
	Passes     int // liveness passes
	Log        diag.Log
}

// Optimize optimizes one unit. It never fails: anything it cannot improve
// is passed through unchanged.
func Optimize(quads []quad.Quad, globals []string, opts Options) *Result {
	res, _ := OptimizeContext(context.Background(), quads, globals, opts)
	return res
}

// OptimizeContext is Optimize with cancellation between blocks. It only
// returns an error if ctx is done before every block is optimized.
func OptimizeContext(ctx context.Context, quads []quad.Quad, globals []string, opts Options) (*Result, error) {
	res := &Result{}

	g := cfg.Build(cfg.Partition(quads))
	res.Blocks = g.Blocks
	res.Unresolved = g.Unresolved
	res.Log.Add(diag.Event{
		Kind:   diag.KindBlocks,
		Block:  diag.NoBlock,
		Detail: fmt.Sprintf("%d instructions in %d blocks", len(quads), len(g.Blocks)),
	})
	for _, u := range g.Unresolved {
		res.Log.Add(diag.Event{
			Kind:   diag.KindUndefinedLabel,
			Block:  u.Block,
			Detail: fmt.Sprintf("jump to undefined label %s", u.Label),
		})
	}

	// Every block needs final live sets before any is rewritten.
	res.Passes = liveness.Analyze(g.Blocks)

	env := dag.Env{Globals: globals, TempBase: opts.TempBase}
	if next := quad.MaxTemp(quads) + 1; next > env.TempBase {
		env.TempBase = next
	}

	results, err := optimizeBlocks(ctx, g.Blocks, env, opts.Jobs)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		g.Blocks[i].Quads = r.Quads
		res.Log.Add(r.Events...)
	}

	res.Quads = Reassemble(g.Blocks, &res.Log)
	return res, nil
}

// optimizeBlocks runs dag.OptimizeBlock on every block. Blocks share only
// read-only data, so they may run concurrently; results stay in block order.
func optimizeBlocks(ctx context.Context, blocks []*cfg.Block, env dag.Env, jobs int) ([]*dag.BlockResult, error) {
	results := make([]*dag.BlockResult, len(blocks))
	if jobs <= 1 {
		for i, b := range blocks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = dag.OptimizeBlock(b, env)
		}
		return results, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, b := range blocks {
		i, b := i, b // per-iteration copies (go directive < 1.22)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = dag.OptimizeBlock(b, env)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
