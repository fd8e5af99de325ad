package translate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/translate"
)

func TestMangle_Example(t *testing.T) {
	require.Equal(t, "_T1a1b1f", translate.Mangle("a.b", "f"))
}

func TestMangle_NoModule(t *testing.T) {
	require.Equal(t, "_T4main", translate.Mangle("", "main"))
}
