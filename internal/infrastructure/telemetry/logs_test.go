package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/receivables/internal/infrastructure/telemetry"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:     false,
		ServiceName: "ar-ledger-test",
	}, nil)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestLoggerProvider_BridgeDisabledKeepsBaseLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	bridged := lp.Bridge(base, zapcore.InfoLevel)
	assert.Same(t, base, bridged)

	bridged.Info("invoice marked overdue")
	assert.Equal(t, 1, logs.Len())
}

func TestLoggerProvider_BridgeEnabledTeesToBase(t *testing.T) {
	ctx := context.Background()
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "ar-ledger-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, lp.IsEnabled())
	t.Cleanup(func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_ = lp.Shutdown(cancelled)
	})

	core, logs := observer.New(zapcore.DebugLevel)
	bridged := lp.Bridge(zap.New(core), zapcore.WarnLevel)
	bridged.Debug("reminder skipped")
	bridged.Warn("reminder claim unavailable")

	assert.Equal(t, 2, logs.Len())
}
