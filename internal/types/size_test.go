package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/types"
)

// fakeStruct is a minimal AggregateReferent used only by these tests.
type fakeStruct struct {
	name   string
	fields []*types.Type
}

func (f *fakeStruct) ReferentKind() types.ReferentKind { return types.RefStruct }
func (f *fakeStruct) ReferentName() string             { return f.name }
func (f *fakeStruct) FieldTypes() []*types.Type        { return f.fields }

func structType(name string, fields ...*types.Type) *types.Type {
	return types.NewReference(&fakeStruct{name: name, fields: fields})
}

func TestSizeofAlignof_StructInvariants(t *testing.T) {
	// struct { u8, u32 }: field 0 at offset 0 (size 1), padded to 4 for
	// field 1 at offset 4 (size 4) -> total 8, aligned to 4.
	st := structType("S",
		types.NewKeyword(types.KwU8),
		types.NewKeyword(types.KwU32),
	)
	size, err := types.Sizeof(st)
	require.NoError(t, err)
	align, err := types.Alignof(st)
	require.NoError(t, err)
	require.EqualValues(t, 8, size)
	require.EqualValues(t, 4, align)
	require.Zero(t, size%align, "sizeof(S) must be a multiple of alignof(S)")

	var fieldSum uint64
	for _, f := range st.Referent().(*fakeStruct).FieldTypes() {
		fs, err := types.Sizeof(f)
		require.NoError(t, err)
		fieldSum += fs
	}
	require.GreaterOrEqual(t, size, fieldSum, "sizeof(S) must be >= sum of field sizes")
}

func TestSizeof_Array(t *testing.T) {
	elem := types.NewKeyword(types.KwS32)
	arr := types.NewArray(10, elem)
	size, err := types.Sizeof(arr)
	require.NoError(t, err)
	elemSize, err := types.Sizeof(elem)
	require.NoError(t, err)
	require.EqualValues(t, 10*elemSize, size)
}

func TestSizeof_OpaqueIsIncomplete(t *testing.T) {
	opaque := types.NewReference(opaqueReferent{name: "Opaque"})
	require.False(t, types.Complete(opaque))
	_, err := types.Sizeof(opaque)
	require.Error(t, err)
}

type opaqueReferent struct{ name string }

func (o opaqueReferent) ReferentKind() types.ReferentKind { return types.RefOpaque }
func (o opaqueReferent) ReferentName() string             { return o.name }
