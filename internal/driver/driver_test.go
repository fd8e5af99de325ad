package driver_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/driver"
	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

// buildModule assembles:
//
//	module m
//	s32 x;
//	s32 f(s32 n) { if (n < 10) { return n + 1; } return x; }
func buildModule() *ast.Module {
	i32 := types.NewKeyword(types.KwS32)
	boolT := types.NewKeyword(types.KwBool)

	x := symtab.NewVariable("x", i32)
	n := symtab.NewVariable("n", i32)

	nRef := &ast.IdentExpr{Entry: n}
	nRef.T = i32
	ten := &ast.IntLit{Value: 10}
	ten.T = i32
	cond := &ast.BinOp{Op: "<", Left: nRef, Right: ten}
	cond.T = boolT

	nRef2 := &ast.IdentExpr{Entry: n}
	nRef2.T = i32
	one := &ast.IntLit{Value: 1}
	one.T = i32
	sum := &ast.BinOp{Op: "+", Left: nRef2, Right: one}
	sum.T = i32

	xRef := &ast.IdentExpr{Entry: x}
	xRef.T = i32

	fn := &ast.Function{
		Entry:  symtab.NewFunction("f", i32, []*types.Type{i32}),
		Params: []*symtab.Entry{n},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.IfStmt{Cond: cond, Then: &ast.ReturnStmt{X: sum}},
			&ast.ReturnStmt{X: xRef},
		}},
	}

	return &ast.Module{
		Name:      "m",
		Globals:   []*ast.Global{{Entry: x}},
		Functions: []*ast.Function{fn},
	}
}

func runPipeline(t *testing.T) string {
	t.Helper()
	entry := &driver.FileEntry{Name: "m.tc", Module: buildModule()}
	ctx, err := driver.NewContext(driver.Options{Arch: driver.X8664Linux}, []*driver.FileEntry{entry})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = ctx.Run(func(string) (io.Writer, error) { return &buf, nil })
	require.NoError(t, err)
	return buf.String()
}

// The full pipeline turns a typechecked module into a complete NASM
// translation unit.
func TestRun_EndToEnd(t *testing.T) {
	out := runPipeline(t)

	require.Contains(t, out, "section .bss align=4")
	require.Contains(t, out, "global _T1m1x:data")
	require.Contains(t, out, "\tresb 4")

	require.Contains(t, out, "section .text")
	require.Contains(t, out, "global _T1m1f:function")
	require.Contains(t, out, "_T1m1f:")
	require.Contains(t, out, "\tpush rbp")
	require.Contains(t, out, "\tmov rbp, rsp")
	require.Contains(t, out, "\tret")
	require.Contains(t, out, "\tcmp ")
	require.Contains(t, out, "\tjl ")
	require.True(t, strings.HasSuffix(out, "section .note.GNU-stack noalloc noexec nowrite progbits\n"))

	// No virtual registers may survive into the emitted text.
	require.NotContains(t, out, "t0")
	require.NotContains(t, out, "t1")
}

// Byte-identical assembly on every run of the same input
func TestRun_Deterministic(t *testing.T) {
	require.Equal(t, runPipeline(t), runPipeline(t))
}

func TestRun_RejectsUnknownArch(t *testing.T) {
	entry := &driver.FileEntry{Name: "m.tc", Module: buildModule()}
	ctx, err := driver.NewContext(driver.Options{Arch: driver.Arch(99)}, []*driver.FileEntry{entry})
	require.NoError(t, err)
	err = ctx.Run(func(string) (io.Writer, error) { return io.Discard, nil })
	require.Error(t, err)
}
