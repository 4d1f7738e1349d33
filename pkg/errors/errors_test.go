package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindConstructorsCarryContext(t *testing.T) {
	dup := DuplicateKey("products", "P1")
	assert.Equal(t, ErrorTypeDuplicateKey, dup.Type)
	v, ok := dup.Detail("collection")
	require.True(t, ok)
	assert.Equal(t, "products", v)
	v, ok = dup.Detail("id")
	require.True(t, ok)
	assert.Equal(t, "P1", v)

	nf := NotFound("orders", "O1")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsDuplicateKey(nf))

	pe := PoolExhausted(2, nil)
	v, ok = pe.Detail("max_connections")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.True(t, IsPoolExhausted(pe))
}

func TestKindsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("c", "x"))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.False(t, stderrors.Is(wrapped, ErrPoolExhausted))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeInternal, "boom")
	outer := Wrap(inner, ErrorTypeData, "decode")
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Nil(t, Wrap(nil, ErrorTypeData, "nothing"))
}

func TestIsRetryableOnlyForTransientKinds(t *testing.T) {
	assert.True(t, IsRetryable(PoolExhausted(1, nil)))
	assert.True(t, IsRetryable(New(ErrorTypeTimeout, "slow")))
	assert.False(t, IsRetryable(DuplicateKey("a", "b")))
	assert.False(t, IsRetryable(NotFound("a", "b")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestSentinelDoesNotMatchDifferentMessageError(t *testing.T) {
	a := New(ErrorTypeNotFound, "a")
	b := New(ErrorTypeNotFound, "b")
	assert.False(t, stderrors.Is(a, b))
	assert.True(t, stderrors.Is(a, a))
}
