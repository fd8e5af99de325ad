package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/schedule"
)

func buildFrag(blocks ...*ir.Block) (*ir.File, *ir.Frag) {
	list := ir.NewBlockList()
	for _, b := range blocks {
		list.PushBack(b)
	}
	frag := ir.NewTextFrag("_T1m1f", list)
	file := ir.NewFile()
	file.AppendFrag(frag)
	return file, frag
}

func labelsOf(frag *ir.Frag) []string {
	var out []string
	for _, in := range frag.Blocks.Head().Instructions {
		if in.Op == ir.OpLabel {
			out = append(out, in.Operands[0].Label())
		}
	}
	return out
}

// Every block appears exactly once in the linearized output
// , the false target falls through directly after the
// one-arg jump, and the true target's code follows.
func TestTrace_TwoArgJumpBecomesOneArgWithFalseFallthrough(t *testing.T) {
	lhs := ir.NewTemp(0, 8, 8, ir.HintGP)
	rhs := ir.NewTemp(1, 8, 8, ir.HintGP)
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpJ2L, ir.NewLabel("L1"), ir.NewLabel("L2"), lhs, rhs))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpReturn))
	b2 := ir.NewBlock(2)
	b2.Append(ir.NewInstruction(ir.OpReturn))

	file, frag := buildFrag(b0, b1, b2)
	schedule.Trace(file)

	require.Equal(t, 1, frag.Blocks.Len())
	require.Equal(t, []string{"L0", "L2", "L1"}, labelsOf(frag))

	ins := frag.Blocks.Head().Instructions
	require.Equal(t, ir.OpJ1L, ins[1].Op)
	require.Equal(t, "L1", ins[1].Operands[0].Label())
	// False target L2 is the fallthrough immediately after the jump.
	require.Equal(t, ir.OpLabel, ins[2].Op)
	require.Equal(t, "L2", ins[2].Operands[0].Label())
}

// An unconditional jump to the block scheduled next is dropped.
func TestTrace_SequentialJumpDropped(t *testing.T) {
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpJump, ir.NewLabel("L1")))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpReturn))

	file, frag := buildFrag(b0, b1)
	schedule.Trace(file)

	for _, in := range frag.Blocks.Head().Instructions {
		require.NotEqual(t, ir.OpJump, in.Op, "jump into the fallthrough block should be elided")
	}
	require.Equal(t, []string{"L0", "L1"}, labelsOf(frag))
}

// When the false target was already scheduled, an explicit jump to it
// is emitted instead of a duplicate emission.
func TestTrace_AlreadyScheduledFalseTargetGetsExplicitJump(t *testing.T) {
	scrut := ir.NewTemp(0, 8, 8, ir.HintGP)
	// 0 -> 1 (loop body), 1 ends with a conditional whose false target
	// is 1 itself (already emitted by then).
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpJump, ir.NewLabel("L1")))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpJ2NZ, ir.NewLabel("L2"), ir.NewLabel("L1"), scrut))
	b2 := ir.NewBlock(2)
	b2.Append(ir.NewInstruction(ir.OpReturn))

	file, frag := buildFrag(b0, b1, b2)
	schedule.Trace(file)

	ins := frag.Blocks.Head().Instructions
	foundExplicit := false
	for _, in := range ins {
		if in.Op == ir.OpJump && in.Operands[0].Label() == "L1" {
			foundExplicit = true
		}
	}
	require.True(t, foundExplicit, "back edge to an already-scheduled false target needs an explicit jump")
	require.ElementsMatch(t, []string{"L0", "L1", "L2"}, labelsOf(frag))
}

// Every reachable block is emitted exactly once even when shared by
// multiple predecessors.
func TestTrace_EachBlockEmittedOnce(t *testing.T) {
	lhs := ir.NewTemp(0, 8, 8, ir.HintGP)
	rhs := ir.NewTemp(1, 8, 8, ir.HintGP)
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpJ2E, ir.NewLabel("L1"), ir.NewLabel("L2"), lhs, rhs))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpJump, ir.NewLabel("L3")))
	b2 := ir.NewBlock(2)
	b2.Append(ir.NewInstruction(ir.OpJump, ir.NewLabel("L3")))
	b3 := ir.NewBlock(3)
	b3.Append(ir.NewInstruction(ir.OpReturn))

	file, frag := buildFrag(b0, b1, b2, b3)
	schedule.Trace(file)

	seen := map[string]int{}
	for _, l := range labelsOf(frag) {
		seen[l]++
	}
	for label, n := range seen {
		require.Equal(t, 1, n, "label %s emitted %d times", label, n)
	}
	require.Len(t, seen, 4)
}
