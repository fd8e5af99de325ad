package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/optimize"
)

func textFrag(t *testing.T, blocks ...*ir.Block) (*ir.File, *ir.Frag) {
	t.Helper()
	list := ir.NewBlockList()
	for _, b := range blocks {
		list.PushBack(b)
	}
	frag := ir.NewTextFrag("_T1m1f", list)
	file := ir.NewFile()
	file.AppendFrag(frag)
	return file, frag
}

func jumpTo(label int) ir.Instruction {
	return ir.NewInstruction(ir.OpJump, ir.NewLabel("L"+itoa(label)))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	return string(buf)
}

// A jump chain through a single-jump block is short-circuited and the
// intermediate block removed.
func TestShortCircuit_JumpChain(t *testing.T) {
	b0 := ir.NewBlock(0)
	b0.Append(jumpTo(1))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 8, 8, ir.HintGP), ir.NewConstant(8, []ir.Datum{ir.NewLong(1)})))
	b1.Append(jumpTo(2))
	b2 := ir.NewBlock(2)
	b2.Append(jumpTo(3))
	b3 := ir.NewBlock(3)
	b3.Append(ir.NewInstruction(ir.OpReturn))

	file, frag := textFrag(t, b0, b1, b2, b3)
	optimize.Blocked(file)

	term, ok := b1.Terminator()
	require.True(t, ok)
	require.Equal(t, ir.OpJump, term.Op)
	require.Equal(t, "L3", term.Operands[0].Label())

	_, alive := frag.Blocks.Find(2)
	require.False(t, alive, "shortcut block should be removed by dead-block elimination")
}

// A block unreachable from entry is freed.
func TestDeadBlock_UnreachableAfterReturn(t *testing.T) {
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpReturn))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 4, 4, ir.HintGP), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	b1.Append(jumpTo(0))

	file, frag := textFrag(t, b0, b1)
	optimize.Blocked(file)

	require.Equal(t, 1, frag.Blocks.Len())
	_, alive := frag.Blocks.Find(0)
	require.True(t, alive)
}

// Jumptable entries are live roots: blocks referenced only through a
// rodata Local datum survive dead-block elimination.
func TestDeadBlock_JumptableEntriesAreRoots(t *testing.T) {
	scrutinee := ir.NewTemp(0, 8, 8, ir.HintGP)
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpVolatile, scrutinee))
	b0.Append(ir.NewInstruction(ir.OpJumptable, scrutinee, ir.NewLabel(".LC0")))
	b1 := ir.NewBlock(1)
	b1.Append(ir.NewInstruction(ir.OpReturn))
	b2 := ir.NewBlock(2)
	b2.Append(ir.NewInstruction(ir.OpReturn))

	list := ir.NewBlockList()
	list.PushBack(b0)
	list.PushBack(b1)
	list.PushBack(b2)
	frag := ir.NewTextFrag("_T1m1f", list)
	file := ir.NewFile()
	file.AppendFrag(frag)
	file.AppendFrag(ir.NewRoDataFrag(".LC0", true, 8, []ir.Datum{ir.NewLocal(1), ir.NewLocal(2)}))

	optimize.Blocked(file)
	require.Equal(t, 3, frag.Blocks.Len())
}

// An instruction writing a temp nothing reads becomes a nop; volatile
// forces the temp live.
func TestDeadTemp_UnreadWriteBecomesNop(t *testing.T) {
	dead := ir.NewTemp(0, 4, 4, ir.HintGP)
	kept := ir.NewTemp(1, 4, 4, ir.HintGP)
	b0 := ir.NewBlock(0)
	b0.Append(ir.NewInstruction(ir.OpMove, dead, ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	b0.Append(ir.NewInstruction(ir.OpMove, kept, ir.NewConstant(4, []ir.Datum{ir.NewInt(2)})))
	b0.Append(ir.NewInstruction(ir.OpVolatile, kept))
	b0.Append(ir.NewInstruction(ir.OpReturn))

	file, _ := textFrag(t, b0)
	optimize.Blocked(file)

	require.Equal(t, ir.OpNop, b0.Instructions[0].Op)
	require.Equal(t, ir.OpMove, b0.Instructions[1].Op)
}

// Linear dead-label elimination keeps only labels some jump or rodata
// Local datum still targets.
func TestLinear_DeadLabelElimination(t *testing.T) {
	b := ir.NewBlock(0)
	b.Instructions = []ir.Instruction{
		ir.NewInstruction(ir.OpLabel, ir.NewLabel("L1")),
		ir.NewInstruction(ir.OpJump, ir.NewLabel("L2")),
		ir.NewInstruction(ir.OpLabel, ir.NewLabel("L2")),
		ir.NewInstruction(ir.OpReturn),
		ir.NewInstruction(ir.OpLabel, ir.NewLabel("L3")),
		ir.NewInstruction(ir.OpReturn),
	}
	list := ir.NewBlockList()
	list.PushBack(b)
	frag := ir.NewTextFrag("_T1m1f", list)
	file := ir.NewFile()
	file.AppendFrag(frag)

	optimize.Linear(file)

	var labels []string
	for _, in := range b.Instructions {
		if in.Op == ir.OpLabel {
			labels = append(labels, in.Operands[0].Label())
		}
	}
	require.Equal(t, []string{"L2"}, labels)
}
