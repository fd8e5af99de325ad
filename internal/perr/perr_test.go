package perr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tcompiler-project/backend/internal/perr"
)

func TestCollector_AccumulatesAll(t *testing.T) {
	c := perr.NewCollector()
	require.False(t, c.HasErrors())

	c.Add(perr.IRError("a.c", "validate", "block 3 has no terminator"))
	c.Add(perr.IRError("a.c", "validate", "temp t7 referenced but never defined"))
	c.Add(nil)

	require.True(t, c.HasErrors())
	require.True(t, c.HasClass(perr.ClassIR))
	require.False(t, c.HasClass(perr.ClassICE))
	require.Len(t, c.Diagnostics(), 2)
	require.Error(t, c.Err())
}

func TestDiagnostic_ErrorMessageShape(t *testing.T) {
	d := perr.IRError("a.c", "schedule", "dangling label L9")
	require.Equal(t, `a.c: internal compiler error: dangling label L9`, d.Error())
}
