package x64_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/x64"
)

func movTempImm(id int, v int64) x64.Instr {
	return x64.Instr{
		Kind: x64.KMove, Mnemonic: "mov",
		Args: []x64.Arg{x64.Temp(id, 8, false), x64.Imm(v)},
		Defs: []int{0},
	}
}

func movRaxTemp(id int) x64.Instr {
	return x64.Instr{
		Kind: x64.KMove, Mnemonic: "mov",
		Args: []x64.Arg{x64.PhysGP(x64.RAX, 8), x64.Temp(id, 8, false)},
		Defs: []int{0}, Uses: []int{1},
	}
}

func leave() x64.Instr { return x64.Instr{Kind: x64.KLeave, Mnemonic: "ret"} }

func allocated(t *testing.T, fn *x64.Func) *x64.Func {
	t.Helper()
	prog := &x64.Program{Funcs: []*x64.Func{fn}}
	require.NoError(t, x64.Allocate(prog))
	return prog.Funcs[0]
}

func requireNoTemps(t *testing.T, fn *x64.Func) {
	t.Helper()
	for _, ins := range fn.Instrs {
		for _, a := range ins.Args {
			require.NotEqual(t, x64.ATemp, a.Kind, "temp survived allocation in %s", ins.Mnemonic)
			require.NotEqual(t, x64.ATempIndexed, a.Kind, "indexed temp survived allocation in %s", ins.Mnemonic)
		}
	}
}

// After allocation no temps remain and the body is wrapped in the
// rbp-framed prologue/epilogue.
func TestAllocate_SubstitutesAllTemps(t *testing.T) {
	fn := &x64.Func{Name: "_T1m1f", Instrs: []x64.Instr{
		movTempImm(0, 7),
		movRaxTemp(0),
		leave(),
	}}
	fn = allocated(t, fn)
	requireNoTemps(t, fn)

	require.Equal(t, "push", fn.Instrs[0].Mnemonic)
	require.Equal(t, int(x64.RBP), fn.Instrs[0].Args[0].ID)
	require.Equal(t, "mov", fn.Instrs[1].Mnemonic)
	last := fn.Instrs[len(fn.Instrs)-1]
	require.Equal(t, x64.KLeave, last.Kind)
	require.Equal(t, "pop", fn.Instrs[len(fn.Instrs)-2].Mnemonic)
}

// Simultaneously-live temps get distinct registers, walking the GP
// preference order into the callee-save range, which is recorded and
// pushed/popped around the body.
func TestAllocate_CalleeSaveBookkeeping(t *testing.T) {
	var instrs []x64.Instr
	for i := 0; i < 5; i++ {
		instrs = append(instrs, movTempImm(i, int64(i)))
	}
	for i := 0; i < 5; i++ {
		instrs = append(instrs, movRaxTemp(i))
	}
	instrs = append(instrs, leave())

	fn := allocated(t, &x64.Func{Name: "_T1m1f", Instrs: instrs})
	requireNoTemps(t, fn)

	require.Contains(t, fn.CalleeSave, x64.RBX)
	require.Contains(t, fn.CalleeSave, x64.R12)

	// Prologue: push rbp; mov rbp, rsp; push <saves>.
	require.Equal(t, "push", fn.Instrs[0].Mnemonic)
	var pushed []int
	for _, ins := range fn.Instrs[2:] {
		if ins.Mnemonic != "push" {
			break
		}
		pushed = append(pushed, ins.Args[0].ID)
	}
	require.Len(t, pushed, len(fn.CalleeSave))

	// Epilogue pops in reverse order, rbp last.
	n := len(fn.Instrs)
	require.Equal(t, x64.KLeave, fn.Instrs[n-1].Kind)
	require.Equal(t, int(x64.RBP), fn.Instrs[n-2].Args[0].ID)
	for i, reg := range pushed {
		popIdx := n - 3 - i
		require.Equal(t, "pop", fn.Instrs[popIdx].Mnemonic)
		require.Equal(t, reg, fn.Instrs[popIdx].Args[0].ID)
	}
}

// Interfering temps never share a register.
func TestAllocate_InterferingTempsDistinct(t *testing.T) {
	var instrs []x64.Instr
	for i := 0; i < 8; i++ {
		instrs = append(instrs, movTempImm(i, int64(i)))
	}
	for i := 0; i < 8; i++ {
		instrs = append(instrs, movRaxTemp(i))
	}
	instrs = append(instrs, leave())

	fn := allocated(t, &x64.Func{Name: "_T1m1f", Instrs: instrs})

	// The first 8 defs (after the prologue) write the 8
	// colors; collect them from the immediate-source moves.
	seen := map[int]bool{}
	for _, ins := range fn.Instrs {
		if ins.Kind == x64.KMove && len(ins.Args) == 2 && ins.Args[1].Kind == x64.AImm {
			require.False(t, seen[ins.Args[0].ID], "register %d assigned twice to live temps", ins.Args[0].ID)
			seen[ins.Args[0].ID] = true
		}
	}
	require.Len(t, seen, 8)
}

// More simultaneously-live temps than the GP bank holds triggers the
// spill rewrite; allocation still converges with every access routed
// through a stack slot.
func TestAllocate_SpillConverges(t *testing.T) {
	const n = 16
	var instrs []x64.Instr
	for i := 0; i < n; i++ {
		instrs = append(instrs, movTempImm(i, int64(i)))
	}
	for i := 0; i < n; i++ {
		instrs = append(instrs, movRaxTemp(i))
	}
	instrs = append(instrs, leave())

	fn := allocated(t, &x64.Func{Name: "_T1m1f", Instrs: instrs})
	requireNoTemps(t, fn)

	spilled := false
	for _, ins := range fn.Instrs {
		for _, a := range ins.Args {
			if a.Kind == x64.AMem {
				spilled = true
			}
		}
	}
	require.True(t, spilled, "expected at least one stack-slot access after spilling")
	require.Greater(t, fn.FrameSize, uint64(0))
}

// An instruction whose only effect is writing a temp nothing reads is
// deleted.
func TestAllocate_DeadDefDeleted(t *testing.T) {
	fn := &x64.Func{Name: "_T1m1f", Instrs: []x64.Instr{
		movTempImm(0, 1), // dead: never read
		movTempImm(1, 2),
		movRaxTemp(1),
		leave(),
	}}
	fn = allocated(t, fn)

	immMoves := 0
	for _, ins := range fn.Instrs {
		if ins.Kind == x64.KMove && len(ins.Args) == 2 && ins.Args[1].Kind == x64.AImm {
			immMoves++
		}
	}
	require.Equal(t, 1, immMoves)
}

// FP temps color from the xmm preference order, independent of the GP
// bank.
func TestAllocate_FPBank(t *testing.T) {
	fn := &x64.Func{Name: "_T1m1f", Instrs: []x64.Instr{
		{Kind: x64.KMove, Mnemonic: "mov", Args: []x64.Arg{x64.Temp(0, 8, true), x64.PhysXMM(3, 8)}, Defs: []int{0}, Uses: []int{1}},
		{Kind: x64.KMove, Mnemonic: "mov", Args: []x64.Arg{x64.PhysXMM(0, 8), x64.Temp(0, 8, true)}, Defs: []int{0}, Uses: []int{1}},
		leave(),
	}}
	fn = allocated(t, fn)
	requireNoTemps(t, fn)
	for _, ins := range fn.Instrs {
		for _, a := range ins.Args {
			if a.Kind == x64.APhys && a.FP {
				require.Less(t, a.ID, 16)
			}
		}
	}
	require.Empty(t, fn.CalleeSave, "xmm registers are all caller-save")
}
