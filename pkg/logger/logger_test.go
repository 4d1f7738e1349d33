package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestFromContextAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := ContextWith(context.Background(), "insert", "products")
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")
	FromContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "insert", fields["operation"])
	assert.Equal(t, "products", fields["collection"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestInitReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug", Encoding: "console"}))
	t.Cleanup(func() { _ = Init(Config{}) })

	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, WithContext(ContextWith(context.Background(), "purge", "orders")).Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init(Config{Level: "warn"}))
	assert.False(t, With(zap.String("k", "v")).Core().Enabled(zapcore.InfoLevel))
}

func TestInitKeepsPreviousLoggerOnError(t *testing.T) {
	before := Get()
	assert.Error(t, Init(Config{Level: "loud"}))
	assert.Same(t, before, Get())
}
