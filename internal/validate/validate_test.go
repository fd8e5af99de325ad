package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/validate"
)

func fileWith(blocks ...*ir.Block) *ir.File {
	list := ir.NewBlockList()
	for _, b := range blocks {
		list.PushBack(b)
	}
	file := ir.NewFile()
	file.AppendFrag(ir.NewTextFrag("_T1m1f", list))
	return file
}

func TestNeutral_CleanFragmentPasses(t *testing.T) {
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 4, 4, ir.HintGP), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	b.Append(ir.NewInstruction(ir.OpReturn))
	c := validate.Neutral(fileWith(b), "t.tc", "translation")
	require.False(t, c.HasErrors())
}

func TestNeutral_EmptyBlockRejected(t *testing.T) {
	c := validate.Neutral(fileWith(ir.NewBlock(0)), "t.tc", "translation")
	require.True(t, c.HasErrors())
}

func TestNeutral_TerminatorMidBlockRejected(t *testing.T) {
	b := ir.NewBlock(0)
	// Built by hand: Append refuses this shape outright.
	b.Instructions = []ir.Instruction{
		ir.NewInstruction(ir.OpReturn),
		ir.NewInstruction(ir.OpNop),
	}
	c := validate.Neutral(fileWith(b), "t.tc", "translation")
	require.True(t, c.HasErrors())
}

func TestNeutral_MissingTerminatorRejected(t *testing.T) {
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 4, 4, ir.HintGP), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	c := validate.Neutral(fileWith(b), "t.tc", "translation")
	require.True(t, c.HasErrors())
}

func TestNeutral_JumptableMustReferenceRodataLocals(t *testing.T) {
	scrut := ir.NewTemp(0, 8, 8, ir.HintGP)
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpVolatile, scrut))
	b.Append(ir.NewInstruction(ir.OpJumptable, scrut, ir.NewLabel(".LC0")))
	file := fileWith(b)
	// .LC0 missing entirely.
	c := validate.Neutral(file, "t.tc", "translation")
	require.True(t, c.HasErrors())

	file2 := fileWith(b)
	file2.AppendFrag(ir.NewRoDataFrag(".LC0", true, 8, []ir.Datum{ir.NewLocal(0)}))
	c2 := validate.Neutral(file2, "t.tc", "translation")
	require.False(t, c2.HasErrors())
}

// Validation never mutates the IR and yields the same outcome on a
// second run.
func TestNeutral_Idempotent(t *testing.T) {
	b := ir.NewBlock(0)
	b.Instructions = []ir.Instruction{ir.NewInstruction(ir.OpNop)}
	file := fileWith(b)
	first := validate.Neutral(file, "t.tc", "translation")
	second := validate.Neutral(file, "t.tc", "translation")
	require.Equal(t, first.HasErrors(), second.HasErrors())
	require.Len(t, second.Diagnostics(), len(first.Diagnostics()))
	require.Len(t, b.Instructions, 1)
}

func TestX64_GPTempSizes(t *testing.T) {
	bad := ir.NewBlock(0)
	bad.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 3, 3, ir.HintGP), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	bad.Append(ir.NewInstruction(ir.OpReturn))
	c := validate.X64(fileWith(bad), "t.tc", "translation")
	require.True(t, c.HasErrors())

	good := ir.NewBlock(0)
	good.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 4, 4, ir.HintGP), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	good.Append(ir.NewInstruction(ir.OpReturn))
	c2 := validate.X64(fileWith(good), "t.tc", "translation")
	require.False(t, c2.HasErrors())
}

func TestX64_GPTempAlignmentMustEqualSize(t *testing.T) {
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 8, 4, ir.HintGP), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	b.Append(ir.NewInstruction(ir.OpReturn))
	c := validate.X64(fileWith(b), "t.tc", "translation")
	require.True(t, c.HasErrors())
}

func TestX64_FPTempSizes(t *testing.T) {
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpMove, ir.NewTemp(0, 2, 2, ir.HintFP), ir.NewConstant(2, []ir.Datum{ir.NewShort(0)})))
	b.Append(ir.NewInstruction(ir.OpReturn))
	c := validate.X64(fileWith(b), "t.tc", "translation")
	require.True(t, c.HasErrors())
}

func TestX64_MemTempAlignmentCap(t *testing.T) {
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpUninit, ir.NewTemp(0, 32, 64, ir.HintMem)))
	b.Append(ir.NewInstruction(ir.OpReturn))
	c := validate.X64(fileWith(b), "t.tc", "translation")
	require.True(t, c.HasErrors())

	ok := ir.NewBlock(0)
	ok.Append(ir.NewInstruction(ir.OpUninit, ir.NewTemp(0, 16, 64, ir.HintMem)))
	ok.Append(ir.NewInstruction(ir.OpReturn))
	c2 := validate.X64(fileWith(ok), "t.tc", "translation")
	require.False(t, c2.HasErrors())
}

func TestX64_RegOperandSizes(t *testing.T) {
	b := ir.NewBlock(0)
	b.Append(ir.NewInstruction(ir.OpMove, ir.NewReg(0, 3), ir.NewConstant(4, []ir.Datum{ir.NewInt(1)})))
	b.Append(ir.NewInstruction(ir.OpReturn))
	c := validate.X64(fileWith(b), "t.tc", "translation")
	require.True(t, c.HasErrors())
}
