package x64_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/x64"
)

// linearFile wraps an already-linearized instruction sequence the way
// schedule.Trace leaves a text fragment: one block holding everything.
func linearFile(instrs ...ir.Instruction) *ir.File {
	b := ir.NewBlock(0)
	b.Instructions = instrs
	list := ir.NewBlockList()
	list.PushBack(b)
	file := ir.NewFile()
	file.AppendFrag(ir.NewTextFrag("_T1m1f", list))
	return file
}

func mnemonics(fn *x64.Func) []string {
	var out []string
	for _, ins := range fn.Instrs {
		out = append(out, ins.Mnemonic)
	}
	return out
}

func TestSelect_DataFragsCarriedOver(t *testing.T) {
	file := ir.NewFile()
	file.AppendFrag(ir.NewBssFrag("_T1m1x", false, 8, []ir.Datum{ir.NewPadding(8)}))
	prog, err := x64.Select(file)
	require.NoError(t, err)
	require.Len(t, prog.Data, 1)
	require.Equal(t, x64.DataBss, prog.Data[0].Kind)
	require.Equal(t, "_T1m1x", prog.Data[0].Name)
}

func TestSelect_DivisionUsesRAXRDXIdiom(t *testing.T) {
	d := ir.NewTemp(2, 8, 8, ir.HintGP)
	a := ir.NewTemp(0, 8, 8, ir.HintGP)
	b := ir.NewTemp(1, 8, 8, ir.HintGP)
	file := linearFile(
		ir.NewInstruction(ir.OpSDiv, d, a, b),
		ir.NewInstruction(ir.OpMove, ir.NewReg(0, 8), d),
		ir.NewInstruction(ir.OpReturn),
	)
	prog, err := x64.Select(file)
	require.NoError(t, err)

	mns := mnemonics(prog.Funcs[0])
	require.Contains(t, mns, "cqo")
	require.Contains(t, mns, "idiv")
}

func TestSelect_UnsignedDivZeroesRDX(t *testing.T) {
	d := ir.NewTemp(2, 8, 8, ir.HintGP)
	a := ir.NewTemp(0, 8, 8, ir.HintGP)
	b := ir.NewTemp(1, 8, 8, ir.HintGP)
	file := linearFile(
		ir.NewInstruction(ir.OpUDiv, d, a, b),
		ir.NewInstruction(ir.OpMove, ir.NewReg(0, 8), d),
		ir.NewInstruction(ir.OpReturn),
	)
	prog, err := x64.Select(file)
	require.NoError(t, err)

	mns := mnemonics(prog.Funcs[0])
	require.Contains(t, mns, "xor")
	require.Contains(t, mns, "div")
	require.NotContains(t, mns, "cqo")
}

func TestSelect_CompareLowersToCmpSetcc(t *testing.T) {
	d := ir.NewTemp(2, 1, 1, ir.HintGP)
	a := ir.NewTemp(0, 4, 4, ir.HintGP)
	b := ir.NewTemp(1, 4, 4, ir.HintGP)
	file := linearFile(
		ir.NewInstruction(ir.OpCmpL, d, a, b),
		ir.NewInstruction(ir.OpMove, ir.NewReg(0, 1), d),
		ir.NewInstruction(ir.OpReturn),
	)
	prog, err := x64.Select(file)
	require.NoError(t, err)

	mns := mnemonics(prog.Funcs[0])
	require.Contains(t, mns, "cmp")
	require.Contains(t, mns, "setl")
}

// A float constant move materializes a rodata pool and loads it
// rip-relative.
func TestSelect_FloatConstantMaterializesPool(t *testing.T) {
	d := ir.NewTemp(0, 8, 8, ir.HintFP)
	c := ir.NewConstant(8, []ir.Datum{ir.NewLong(0x3FF0000000000000)}) // 1.0
	file := linearFile(
		ir.NewInstruction(ir.OpMove, d, c),
		ir.NewInstruction(ir.OpMove, ir.NewReg(ir.RegXMMBase, 8), d),
		ir.NewInstruction(ir.OpReturn),
	)
	prog, err := x64.Select(file)
	require.NoError(t, err)

	require.Len(t, prog.Data, 1)
	pool := prog.Data[0]
	require.Equal(t, x64.DataRoData, pool.Kind)
	require.True(t, pool.Local)
	require.Equal(t, ".LC0", pool.Name)
	require.Equal(t, uint64(0x3FF0000000000000), pool.Datums[0].U64)

	mv := prog.Funcs[0].Instrs[0]
	require.Equal(t, x64.ARodata, mv.Args[1].Kind)
	require.Equal(t, ".LC0", mv.Args[1].Label)
}

// Selector pools continue numbering after the translator's .LC frags.
func TestSelect_PoolNumberingContinues(t *testing.T) {
	d := ir.NewTemp(0, 8, 8, ir.HintFP)
	c := ir.NewConstant(8, []ir.Datum{ir.NewLong(0x4000000000000000)})
	b := ir.NewBlock(0)
	b.Instructions = []ir.Instruction{
		ir.NewInstruction(ir.OpMove, d, c),
		ir.NewInstruction(ir.OpMove, ir.NewReg(ir.RegXMMBase, 8), d),
		ir.NewInstruction(ir.OpReturn),
	}
	list := ir.NewBlockList()
	list.PushBack(b)
	file := ir.NewFile()
	file.AppendFrag(ir.NewRoDataFrag(".LC0", true, 1, []ir.Datum{ir.NewString("hi")}))
	file.AppendFrag(ir.NewTextFrag("_T1m1f", list))

	prog, err := x64.Select(file)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range prog.Data {
		require.False(t, names[f.Name], "duplicate data fragment %s", f.Name)
		names[f.Name] = true
	}
	require.True(t, names[".LC0"])
	require.True(t, names[".LC1"])
}

func TestSelect_CallEmitsClobbers(t *testing.T) {
	file := linearFile(
		ir.NewInstruction(ir.OpCall, ir.NewLabel("_T1m1g")),
		ir.NewInstruction(ir.OpReturn),
	)
	prog, err := x64.Select(file)
	require.NoError(t, err)

	var call *x64.Instr
	for i := range prog.Funcs[0].Instrs {
		if prog.Funcs[0].Instrs[i].Mnemonic == "call" {
			call = &prog.Funcs[0].Instrs[i]
		}
	}
	require.NotNil(t, call)
	require.Equal(t, "_T1m1g", call.Target)
	require.NotEmpty(t, call.Defs, "caller-save clobbers drive interference across calls")
}

func TestSelect_JumptableSuccessorsFromRodata(t *testing.T) {
	scrut := ir.NewTemp(0, 8, 8, ir.HintGP)
	b := ir.NewBlock(0)
	b.Instructions = []ir.Instruction{
		ir.NewInstruction(ir.OpLabel, ir.NewLabel("L1")),
		ir.NewInstruction(ir.OpVolatile, scrut),
		ir.NewInstruction(ir.OpJumptable, scrut, ir.NewLabel(".LC0")),
	}
	list := ir.NewBlockList()
	list.PushBack(b)
	file := ir.NewFile()
	file.AppendFrag(ir.NewRoDataFrag(".LC0", true, 8, []ir.Datum{ir.NewLocal(1)}))
	file.AppendFrag(ir.NewTextFrag("_T1m1f", list))

	prog, err := x64.Select(file)
	require.NoError(t, err)

	var jt *x64.Instr
	for i := range prog.Funcs[0].Instrs {
		if prog.Funcs[0].Instrs[i].Kind == x64.KJumptable {
			jt = &prog.Funcs[0].Instrs[i]
		}
	}
	require.NotNil(t, jt)
	require.Equal(t, []string{"L1"}, jt.Targets)
}
