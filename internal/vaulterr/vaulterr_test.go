package vaulterr

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := stderrors.New("disk full")

	wrapped := New(VaultRead, "could not read note.md", originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, originalErr, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, originalErr))
}

func TestVaultError_Error_FormatsKindAndMessage(t *testing.T) {
	err := New(StorageMismatch, "vault mismatch", nil)
	assert.Equal(t, "[storage_mismatch] vault mismatch", err.Error())
}

func TestVaultError_Is_MatchesByKindOnly(t *testing.T) {
	a := New(Index, "merge failed", nil)
	b := New(Index, "different message, same kind", nil)
	c := New(Config, "bad profile", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(Index, nil))
}

func TestNewStorageMismatch_CarriesBothVaultPaths(t *testing.T) {
	err := NewStorageMismatch("/notes/.vaultsearch", "/notes-a", "/notes-b")

	assert.Equal(t, StorageMismatch, err.Kind)
	assert.Equal(t, "/notes-a", err.Details["stored_vault"])
	assert.Equal(t, "/notes-b", err.Details["current_vault"])
}

func TestKindOf_ExtractsKindThroughWrapping(t *testing.T) {
	inner := New(Encoder, "ollama unreachable", nil)
	outer := fmt.Errorf("embed batch: %w", inner)

	kind, ok := KindOf(outer)
	require.True(t, ok)
	assert.Equal(t, Encoder, kind)
}

func TestIsRetryable_TrueForEncoderAndDeadline(t *testing.T) {
	assert.True(t, IsRetryable(New(Encoder, "timeout", nil)))
	assert.True(t, IsRetryable(New(Deadline, "exceeded", nil)))
	assert.False(t, IsRetryable(New(Config, "bad", nil)))
}
