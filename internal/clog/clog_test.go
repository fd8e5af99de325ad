package clog_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tcompiler-project/backend/internal/clog"
)

func TestPhase_AttachesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	log := clog.Phase(base, "a.c", "validate")
	log.Info("checking arity")

	require.Len(t, logs.All(), 1)
	entry := logs.All()[0]
	fields := entry.ContextMap()
	require.Equal(t, "a.c", fields["file"])
	require.Equal(t, "validate", fields["phase"])
}
