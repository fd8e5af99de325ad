package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/types"
)

var arithmeticKeywords = []types.Keyword{
	types.KwU8, types.KwS8, types.KwU16, types.KwS16,
	types.KwU32, types.KwS32, types.KwWChar, types.KwU64, types.KwS64,
	types.KwF32, types.KwF64,
}

func TestArithmeticMerge_Commutative(t *testing.T) {
	for _, a := range arithmeticKeywords {
		for _, b := range arithmeticKeywords {
			ab, errAB := types.ArithmeticMerge(types.NewKeyword(a), types.NewKeyword(b))
			ba, errBA := types.ArithmeticMerge(types.NewKeyword(b), types.NewKeyword(a))
			if errAB == nil {
				require.NoError(t, errBA, "merge(%s,%s) succeeded but merge(%s,%s) did not", a, b, b, a)
				require.Equal(t, ab.Keyword(), ba.Keyword(), "merge(%s,%s) != merge(%s,%s)", a, b, b, a)
			} else {
				require.Error(t, errBA)
			}
		}
	}
}

func TestArithmeticMerge_U64SignedIncompatible(t *testing.T) {
	for _, signed := range []types.Keyword{types.KwS8, types.KwS16, types.KwS32, types.KwS64} {
		_, err := types.ArithmeticMerge(types.NewKeyword(types.KwU64), types.NewKeyword(signed))
		require.Error(t, err)
	}
}

func TestArithmeticMerge_DoubleAbsorbs(t *testing.T) {
	for _, other := range arithmeticKeywords {
		m, err := types.ArithmeticMerge(types.NewKeyword(types.KwF64), types.NewKeyword(other))
		require.NoError(t, err)
		require.Equal(t, types.KwF64, m.Keyword())
	}
}

func TestArithmeticMerge_CharNeverMerges(t *testing.T) {
	_, err := types.ArithmeticMerge(types.NewKeyword(types.KwChar), types.NewKeyword(types.KwS32))
	require.Error(t, err)
}

func TestArithmeticMerge_SameWidthMixedSignPromotes(t *testing.T) {
	m, err := types.ArithmeticMerge(types.NewKeyword(types.KwU32), types.NewKeyword(types.KwS32))
	require.NoError(t, err)
	require.Equal(t, types.KwS64, m.Keyword())
}

func TestImplicitConvertible_Keyword(t *testing.T) {
	require.True(t, types.ImplicitConvertible(types.NewKeyword(types.KwU8), types.NewKeyword(types.KwU32)))
	require.False(t, types.ImplicitConvertible(types.NewKeyword(types.KwU32), types.NewKeyword(types.KwU8)))
	require.True(t, types.ImplicitConvertible(types.NewKeyword(types.KwS8), types.NewKeyword(types.KwS64)))
	require.False(t, types.ImplicitConvertible(types.NewKeyword(types.KwS32), types.NewKeyword(types.KwU32)))
	require.False(t, types.ImplicitConvertible(types.NewKeyword(types.KwChar), types.NewKeyword(types.KwU8)))
}

func TestImplicitConvertible_QualifierWidening(t *testing.T) {
	u8 := types.NewKeyword(types.KwU8)
	constU8 := types.NewQualified(true, false, u8)
	require.True(t, types.ImplicitConvertible(u8, constU8))
	require.False(t, types.ImplicitConvertible(constU8, u8))
}

func TestExplicitConvertible_IntegralPointer(t *testing.T) {
	i := types.NewKeyword(types.KwS64)
	p := types.NewPointer(types.NewKeyword(types.KwU8))
	require.True(t, types.ExplicitConvertible(i, p, nil))
	require.True(t, types.ExplicitConvertible(p, i, nil))
}

func TestHint(t *testing.T) {
	require.Equal(t, types.HintFP, types.Hint(types.NewKeyword(types.KwF32)))
	require.Equal(t, types.HintGP, types.Hint(types.NewKeyword(types.KwS32)))
	require.Equal(t, types.HintGP, types.Hint(types.NewPointer(types.NewKeyword(types.KwS32))))
	require.Equal(t, types.HintMem, types.Hint(types.NewArray(4, types.NewKeyword(types.KwS32))))
}
