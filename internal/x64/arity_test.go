package x64_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/x64"
)

func threeOp(mn string, commutative bool, d, a, b x64.Arg) x64.Instr {
	return x64.Instr{
		Kind: x64.KRegular, Mnemonic: mn,
		Args: []x64.Arg{d, a, b},
		Defs: []int{0}, Uses: []int{1, 2},
		ThreeOp: true, Commutative: commutative,
	}
}

func reduceOne(in x64.Instr) []x64.Instr {
	prog := &x64.Program{Funcs: []*x64.Func{{Name: "_T1m1f", Instrs: []x64.Instr{in}}}}
	x64.Reduce(prog)
	return prog.Funcs[0].Instrs
}

// d = a + b with all-distinct operands becomes mov d, a; add d, b.
func TestReduce_DistinctDestGetsMov(t *testing.T) {
	d := x64.Temp(2, 4, false)
	a := x64.Temp(0, 4, false)
	b := x64.Temp(1, 4, false)
	out := reduceOne(threeOp("add", true, d, a, b))

	require.Len(t, out, 2)
	require.Equal(t, x64.KMove, out[0].Kind)
	require.Equal(t, "mov", out[0].Mnemonic)
	require.Equal(t, []x64.Arg{d, a}, out[0].Args)
	require.Equal(t, "add", out[1].Mnemonic)
	require.Equal(t, []x64.Arg{d, b}, out[1].Args)
}

// a = a + b folds to a single add a, b.
func TestReduce_DestEqualsLeft(t *testing.T) {
	a := x64.Temp(0, 4, false)
	b := x64.Temp(1, 4, false)
	out := reduceOne(threeOp("add", true, a, a, b))

	require.Len(t, out, 1)
	require.Equal(t, "add", out[0].Mnemonic)
	require.Equal(t, []x64.Arg{a, b}, out[0].Args)
}

// b = a + b reuses the destination through commutativity.
func TestReduce_CommutativeDestEqualsRight(t *testing.T) {
	a := x64.Temp(0, 4, false)
	b := x64.Temp(1, 4, false)
	out := reduceOne(threeOp("add", true, b, a, b))

	require.Len(t, out, 1)
	require.Equal(t, []x64.Arg{b, a}, out[0].Args)
}

// d = a - b may not reorder: the non-commutative form gets the mov.
func TestReduce_NonCommutativeAlwaysMovs(t *testing.T) {
	d := x64.Temp(2, 4, false)
	a := x64.Temp(0, 4, false)
	b := x64.Temp(1, 4, false)
	out := reduceOne(threeOp("sub", false, d, a, b))

	require.Len(t, out, 2)
	require.Equal(t, "mov", out[0].Mnemonic)
	require.Equal(t, "sub", out[1].Mnemonic)
}

func TestReduce_UnaryForms(t *testing.T) {
	d := x64.Temp(1, 8, false)
	a := x64.Temp(0, 8, false)
	in := x64.Instr{
		Kind: x64.KRegular, Mnemonic: "neg",
		Args: []x64.Arg{d, a},
		Defs: []int{0}, Uses: []int{1},
		UnaryOp: true,
	}
	out := reduceOne(in)
	require.Len(t, out, 2)
	require.Equal(t, "mov", out[0].Mnemonic)
	require.Equal(t, "neg", out[1].Mnemonic)
	require.Equal(t, []x64.Arg{d}, out[1].Args)

	same := x64.Instr{
		Kind: x64.KRegular, Mnemonic: "neg",
		Args: []x64.Arg{a, a},
		Defs: []int{0}, Uses: []int{1},
		UnaryOp: true,
	}
	out = reduceOne(same)
	require.Len(t, out, 1)
	require.Equal(t, []x64.Arg{a}, out[0].Args)
}

// Instructions not marked ThreeOp/UnaryOp pass through untouched.
func TestReduce_PassThrough(t *testing.T) {
	in := x64.Instr{Kind: x64.KJump, Mnemonic: "jmp", Target: "L1"}
	out := reduceOne(in)
	require.Equal(t, []x64.Instr{in}, out)
}
