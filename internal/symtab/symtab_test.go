package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

func TestStruct_ImplementsAggregateReferent(t *testing.T) {
	s := symtab.NewStruct("Point",
		[]*types.Type{types.NewKeyword(types.KwS32), types.NewKeyword(types.KwS32)},
		[]string{"x", "y"},
	)
	ref := types.NewReference(s)
	require.Equal(t, types.RefStruct, ref.Referent().ReferentKind())
	require.True(t, types.Complete(ref))
	size, err := types.Sizeof(ref)
	require.NoError(t, err)
	require.EqualValues(t, 8, size)
	require.Equal(t, 0, s.FieldIndex("x"))
	require.Equal(t, 1, s.FieldIndex("y"))
	require.Equal(t, -1, s.FieldIndex("z"))
}

func TestOpaque_IsIncomplete(t *testing.T) {
	o := symtab.NewOpaque("Handle")
	ref := types.NewReference(o)
	require.False(t, types.Complete(ref))
}

func TestEnum_BackingType(t *testing.T) {
	e := symtab.NewEnum("Color", []string{"Red", "Green", "Blue"}, types.NewKeyword(types.KwS32))
	ref := types.NewReference(e)
	size, err := types.Sizeof(ref)
	require.NoError(t, err)
	require.EqualValues(t, 4, size)

	red := symtab.NewEnumConstant("Red", e, 0)
	require.Equal(t, e, red.OwnerEnum())
	require.EqualValues(t, 0, red.Value())
}

func TestTypedef_Underlying(t *testing.T) {
	td := symtab.NewTypedef("size_t", types.NewKeyword(types.KwU64))
	ref := types.NewReference(td)
	size, err := types.Sizeof(ref)
	require.NoError(t, err)
	require.EqualValues(t, 8, size)
}

func TestVariable_EscapesAndTemp(t *testing.T) {
	v := symtab.NewVariable("count", types.NewKeyword(types.KwS32))
	require.False(t, v.Escapes())
	v.SetEscapes(true)
	require.True(t, v.Escapes())

	_, ok := v.Temp()
	require.False(t, ok)
	v.SetTemp(7)
	id, ok := v.Temp()
	require.True(t, ok)
	require.Equal(t, 7, id)
}

func TestScope_DeclareLookupShadow(t *testing.T) {
	outer := symtab.NewScope(nil)
	require.True(t, outer.Declare(symtab.NewVariable("x", types.NewKeyword(types.KwS32))))
	require.False(t, outer.Declare(symtab.NewVariable("x", types.NewKeyword(types.KwU8))), "redeclaration in the same scope must fail")

	inner := symtab.NewScope(outer)
	require.True(t, inner.Declare(symtab.NewVariable("x", types.NewKeyword(types.KwU8))), "shadowing an outer declaration is allowed")

	entry, ok := inner.Lookup("x")
	require.True(t, ok)
	require.Equal(t, types.KwU8, entry.Type().Keyword())

	_, ok = inner.LookupLocal("y")
	require.False(t, ok)

	require.True(t, outer.Declare(symtab.NewVariable("y", types.NewKeyword(types.KwS64))))
	entry, ok = inner.Lookup("y")
	require.True(t, ok)
	require.Equal(t, types.KwS64, entry.Type().Keyword())
}
