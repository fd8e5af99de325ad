package x64_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/x64"
)

func sampleProgram() *x64.Program {
	return &x64.Program{
		Data: []*x64.DataFrag{
			{Kind: x64.DataBss, Name: "_T1m1x", Alignment: 4, Datums: []x64.Datum{{Kind: x64.DPadding, Padding: 4}}},
			{Kind: x64.DataRoData, Name: ".LC0", Local: true, Alignment: 1, Datums: []x64.Datum{{Kind: x64.DString, Bytes: []byte{'h', 'i', 0}}}},
			{Kind: x64.DataData, Name: "_T1m1y", Alignment: 8, Datums: []x64.Datum{{Kind: x64.DLong, U64: 42}}},
			{Kind: x64.DataRoData, Name: "_T1m1s", Alignment: 8, Datums: []x64.Datum{{Kind: x64.DGlobalRef, Global: ".LC0"}}},
		},
		Funcs: []*x64.Func{{
			Name: "_T1m1f",
			Instrs: []x64.Instr{
				{Kind: x64.KRegular, Mnemonic: "push", Args: []x64.Arg{x64.PhysGP(x64.RBP, 8)}},
				{Kind: x64.KRegular, Mnemonic: "mov", Args: []x64.Arg{x64.PhysGP(x64.RBP, 8), x64.PhysGP(x64.RSP, 8)}},
				{Kind: x64.KRegular, Mnemonic: "mov", Args: []x64.Arg{x64.PhysGP(x64.RAX, 4), x64.Imm(5)}},
				{Kind: x64.KLabel, Target: "L3"},
				{Kind: x64.KCJump, Mnemonic: "jne", Target: "L3"},
				{Kind: x64.KRegular, Mnemonic: "pop", Args: []x64.Arg{x64.PhysGP(x64.RBP, 8)}},
				{Kind: x64.KLeave, Mnemonic: "ret"},
			},
		}},
	}
}

func emitText(t *testing.T, prog *x64.Program) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, x64.Emit(&buf, prog))
	return buf.String()
}

func TestEmit_SectionsAndDirectives(t *testing.T) {
	out := emitText(t, sampleProgram())

	require.Contains(t, out, "section .bss align=4")
	require.Contains(t, out, "\tresb 4")
	require.Contains(t, out, "section .rodata align=1")
	require.Contains(t, out, "\tdb 104, 105, 0")
	require.Contains(t, out, "section .data align=8")
	require.Contains(t, out, "\tdq 42")
	require.Contains(t, out, "\tdq .LC0")
	require.Contains(t, out, "global _T1m1x:data")
	require.Contains(t, out, "global _T1m1f:function")
	require.NotContains(t, out, "global .LC0", "local pools carry no global directive")
	require.True(t, strings.HasSuffix(out, "section .note.GNU-stack noalloc noexec nowrite progbits\n"))
}

func TestEmit_InstructionSyntax(t *testing.T) {
	out := emitText(t, sampleProgram())

	require.Contains(t, out, "_T1m1f:\n")
	require.Contains(t, out, "\tpush rbp\n")
	require.Contains(t, out, "\tmov rbp, rsp\n")
	require.Contains(t, out, "\tmov eax, 5\n")
	require.Contains(t, out, "L3:\n")
	require.Contains(t, out, "\tjne L3\n")
	require.Contains(t, out, "\tret\n")
}

func TestEmit_MemoryOperandsCarrySizeKeyword(t *testing.T) {
	prog := &x64.Program{Funcs: []*x64.Func{{
		Name: "_T1m1f",
		Instrs: []x64.Instr{
			{Kind: x64.KRegular, Mnemonic: "mov", Args: []x64.Arg{x64.Mem(-8, 8), x64.Imm(1)}},
			{Kind: x64.KRegular, Mnemonic: "mov", Args: []x64.Arg{x64.PhysGP(x64.RAX, 4), x64.Indexed(x64.RBX, 12, 4)}},
			{Kind: x64.KRegular, Mnemonic: "lea", Args: []x64.Arg{x64.PhysGP(x64.RAX, 8), x64.Mem(-16, 8)}},
			{Kind: x64.KLeave, Mnemonic: "ret"},
		},
	}}}
	out := emitText(t, prog)

	require.Contains(t, out, "\tmov qword [rbp-8], 1\n")
	require.Contains(t, out, "\tmov eax, dword [rbx+12]\n")
	require.Contains(t, out, "\tlea rax, [rbp-16]\n")
}

func TestEmit_FloatMovesPickSSEMnemonic(t *testing.T) {
	prog := &x64.Program{Funcs: []*x64.Func{{
		Name: "_T1m1f",
		Instrs: []x64.Instr{
			{Kind: x64.KMove, Mnemonic: "mov", Args: []x64.Arg{x64.PhysXMM(0, 8), x64.Rodata(".LC0", 8)}},
			{Kind: x64.KMove, Mnemonic: "mov", Args: []x64.Arg{x64.PhysXMM(1, 4), x64.PhysXMM(2, 4)}},
			{Kind: x64.KLeave, Mnemonic: "ret"},
		},
	}}}
	out := emitText(t, prog)

	require.Contains(t, out, "\tmovsd xmm0, qword [rel .LC0]\n")
	require.Contains(t, out, "\tmovss xmm1, xmm2\n")
}

func TestEmit_JumptableIndirection(t *testing.T) {
	prog := &x64.Program{Funcs: []*x64.Func{{
		Name: "_T1m1f",
		Instrs: []x64.Instr{
			{Kind: x64.KJumptable, Mnemonic: "jmp", Args: []x64.Arg{x64.PhysGP(x64.RCX, 8)}, Target: ".LC1", Targets: []string{"L1", "L2"}},
			{Kind: x64.KLeave, Mnemonic: "ret"},
		},
	}}}
	out := emitText(t, prog)
	require.Contains(t, out, "\tjmp qword [.LC1 + rcx*8]\n")
}

func TestEmit_DivFamilyPrintsOnlyDivisor(t *testing.T) {
	prog := &x64.Program{Funcs: []*x64.Func{{
		Name: "_T1m1f",
		Instrs: []x64.Instr{
			{Kind: x64.KRegular, Mnemonic: "cqo", Args: []x64.Arg{x64.PhysGP(x64.RDX, 8), x64.PhysGP(x64.RAX, 8)}, Defs: []int{0}, Uses: []int{1}},
			{Kind: x64.KRegular, Mnemonic: "idiv", Args: []x64.Arg{x64.PhysGP(x64.RBX, 8), x64.PhysGP(x64.RAX, 8), x64.PhysGP(x64.RDX, 8)}, Defs: []int{1, 2}, Uses: []int{0, 1, 2}},
			{Kind: x64.KLeave, Mnemonic: "ret"},
		},
	}}}
	out := emitText(t, prog)
	require.Contains(t, out, "\tcqo\n")
	require.Contains(t, out, "\tidiv rbx\n")
}

// Byte-identical output on repeated emission
func TestEmit_Deterministic(t *testing.T) {
	a := emitText(t, sampleProgram())
	b := emitText(t, sampleProgram())
	require.Equal(t, a, b)
}
