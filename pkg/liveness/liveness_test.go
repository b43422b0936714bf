package liveness

import (
	"reflect"
	"testing"

	"github.com/anchor-lang/anchorc/pkg/cfg"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

func q(op, a1, a2, r string) quad.Quad {
	return quad.New(op, a1, a2, r)
}

func analyze(t *testing.T, quads []quad.Quad) []*cfg.Block {
	t.Helper()
	g := cfg.Build(cfg.Partition(quads))
	Analyze(g.Blocks)
	return g.Blocks
}

func checkSet(t *testing.T, what string, got cfg.NameSet, want ...string) {
	t.Helper()
	if !got.Equal(cfg.NewNameSet(want...)) {
		t.Errorf("%s = %v, want %v", what, got.Sorted(), want)
	}
}

func TestLivenessSimple(t *testing.T) {
	// A single block: nothing flows out, so nothing is live on exit.
	blocks := analyze(t, []quad.Quad{
		q("+", "a", "b", "T0"),
		q("=", "T0", "_", "x"),
		q("PRINT", "x", "_", "_"),
	})
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	checkSet(t, "live_in", blocks[0].LiveIn, "a", "b")
	checkSet(t, "live_out", blocks[0].LiveOut)
}

func TestLivenessWithBranch(t *testing.T) {
	// x is computed before the branch and printed on one arm only.
	blocks := analyze(t, []quad.Quad{
		q("=", "1", "_", "x"),
		q("=", "2", "_", "y"),
		q("JUMPF", "c", "_", "L1"),
		q("PRINT", "x", "_", "_"),
		q("JUMP", "_", "_", "L2"),
		q("LABEL", "L1", "_", "_"),
		q("PRINT", "y", "_", "_"),
		q("LABEL", "L2", "_", "_"),
		q("RETURN", "_", "_", "_"),
	})
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(blocks))
	}
	checkSet(t, "block 0 live_in", blocks[0].LiveIn, "c")
	checkSet(t, "block 0 live_out", blocks[0].LiveOut, "x", "y")
	checkSet(t, "block 1 live_in", blocks[1].LiveIn, "x")
	checkSet(t, "block 2 live_in", blocks[2].LiveIn, "y")
	checkSet(t, "block 3 live_in", blocks[3].LiveIn)
}

func TestLivenessWithLoop(t *testing.T) {
	blocks := analyze(t, []quad.Quad{
		q("=", "0", "_", "i"),
		q("=", "0", "_", "s"),
		q("LABEL", "L0", "_", "_"),
		q("<", "i", "n", "T0"),
		q("JUMPF", "T0", "_", "L1"),
		q("+", "s", "i", "T1"),
		q("=", "T1", "_", "s"),
		q("+", "i", "1", "T2"),
		q("=", "T2", "_", "i"),
		q("JUMP", "_", "_", "L0"),
		q("LABEL", "L1", "_", "_"),
		q("PRINT", "s", "_", "_"),
	})
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(blocks))
	}
	checkSet(t, "entry live_in", blocks[0].LiveIn, "n")
	checkSet(t, "header live_in", blocks[1].LiveIn, "i", "n", "s")
	// The back edge keeps i, n and s live around the loop body.
	checkSet(t, "body live_out", blocks[2].LiveOut, "i", "n", "s")
	checkSet(t, "exit live_in", blocks[3].LiveIn, "s")
}

func TestLivenessAcrossCall(t *testing.T) {
	// CALL ends a block; its result and x are live into the next one.
	blocks := analyze(t, []quad.Quad{
		q("=", "5", "_", "x"),
		q("PARAM", "x", "_", "_"),
		q("CALL", "f", "1", "T0"),
		q("+", "T0", "x", "T1"),
		q("PRINT", "T1", "_", "_"),
	})
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	checkSet(t, "block 0 live_out", blocks[0].LiveOut, "T0", "x")
	checkSet(t, "block 1 live_in", blocks[1].LiveIn, "T0", "x")
}

func TestLivenessFixedPoint(t *testing.T) {
	blocks := analyze(t, []quad.Quad{
		q("LABEL", "L0", "_", "_"),
		q("+", "a", "b", "a"),
		q("JUMPF", "a", "_", "L0"),
		q("PRINT", "b", "_", "_"),
	})

	var liveIn, liveOut [][]string
	for _, b := range blocks {
		liveIn = append(liveIn, b.LiveIn.Sorted())
		liveOut = append(liveOut, b.LiveOut.Sorted())
	}

	if passes := Solve(blocks); passes != 1 {
		t.Errorf("Solve on a solved graph ran %d passes, want 1", passes)
	}
	Analyze(blocks)
	for i, b := range blocks {
		if !reflect.DeepEqual(b.LiveIn.Sorted(), liveIn[i]) || !reflect.DeepEqual(b.LiveOut.Sorted(), liveOut[i]) {
			t.Errorf("block %d changed on re-analysis", i)
		}
	}
}

func TestLivenessUndefinedLabel(t *testing.T) {
	// The jump to an undefined label contributes no edge.
	blocks := analyze(t, []quad.Quad{
		q("=", "1", "_", "x"),
		q("JUMP", "_", "_", "L404"),
		q("PRINT", "x", "_", "_"),
	})
	checkSet(t, "block 0 live_out", blocks[0].LiveOut)
	checkSet(t, "block 1 live_in", blocks[1].LiveIn, "x")
}
