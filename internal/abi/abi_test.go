package abi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/abi"
	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

func TestClassify_ScalarInteger(t *testing.T) {
	ebs, err := abi.Classify(types.NewKeyword(types.KwS64))
	require.NoError(t, err)
	require.Equal(t, []abi.Eightbyte{{Class: abi.ClassInteger, Offset: 0}}, ebs)
}

func TestClassify_ScalarFloat(t *testing.T) {
	ebs, err := abi.Classify(types.NewKeyword(types.KwF64))
	require.NoError(t, err)
	require.Equal(t, []abi.Eightbyte{{Class: abi.ClassSSE, Offset: 0}}, ebs)
}

func TestClassify_LargeStructIsMemory(t *testing.T) {
	st := symtab.NewStruct("Big", []*types.Type{
		types.NewArray(4, types.NewKeyword(types.KwS64)),
	}, []string{"data"})
	ebs, err := abi.Classify(types.NewReference(st))
	require.NoError(t, err)
	for _, e := range ebs {
		require.Equal(t, abi.ClassMemory, e.Class)
	}
}

func TestClassify_TwoIntFieldsFitInTwoEightbytes(t *testing.T) {
	st := symtab.NewStruct("Pair", []*types.Type{
		types.NewKeyword(types.KwS64),
		types.NewKeyword(types.KwS64),
	}, []string{"a", "b"})
	ebs, err := abi.Classify(types.NewReference(st))
	require.NoError(t, err)
	require.Len(t, ebs, 2)
	require.Equal(t, abi.ClassInteger, ebs[0].Class)
	require.Equal(t, abi.ClassInteger, ebs[1].Class)
}

func TestClassify_AllFloatFieldsStaySSE(t *testing.T) {
	st := symtab.NewStruct("Vec2", []*types.Type{
		types.NewKeyword(types.KwF64),
		types.NewKeyword(types.KwF64),
	}, []string{"x", "y"})
	ebs, err := abi.Classify(types.NewReference(st))
	require.NoError(t, err)
	require.Len(t, ebs, 2)
	require.Equal(t, abi.ClassSSE, ebs[0].Class)
	require.Equal(t, abi.ClassSSE, ebs[1].Class)
}

func TestPlaceArgs_RegistersThenStack(t *testing.T) {
	argTypes := make([]*types.Type, 0, 8)
	for i := 0; i < 8; i++ {
		argTypes = append(argTypes, types.NewKeyword(types.KwS64))
	}
	placements, err := abi.PlaceArgs(argTypes)
	require.NoError(t, err)
	require.Len(t, placements, 8)
	for i := 0; i < 6; i++ {
		require.Len(t, placements[i].IntRegs, 1)
		require.False(t, placements[i].ByReference)
	}
	require.Equal(t, int64(16), placements[6].StackOffset)
	require.Equal(t, int64(24), placements[7].StackOffset)
}

func TestPlaceArgs_LargeStructByReference(t *testing.T) {
	st := symtab.NewStruct("Big", []*types.Type{
		types.NewArray(4, types.NewKeyword(types.KwS64)),
	}, []string{"data"})
	placements, err := abi.PlaceArgs([]*types.Type{types.NewReference(st)})
	require.NoError(t, err)
	require.Len(t, placements, 1)
	require.True(t, placements[0].ByReference)
}

func TestPlaceReturn_VoidAndScalarAndLarge(t *testing.T) {
	r, err := abi.PlaceReturn(nil)
	require.NoError(t, err)
	require.False(t, r.ByHiddenPointer)

	r, err = abi.PlaceReturn(types.NewKeyword(types.KwS32))
	require.NoError(t, err)
	require.False(t, r.ByHiddenPointer)

	st := symtab.NewStruct("Big", []*types.Type{
		types.NewArray(4, types.NewKeyword(types.KwS64)),
	}, []string{"data"})
	r, err = abi.PlaceReturn(types.NewReference(st))
	require.NoError(t, err)
	require.True(t, r.ByHiddenPointer)
}
