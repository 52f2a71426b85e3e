package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrValidation,
		ErrFormat,
		ErrStorage,
		ErrUnavailable,
		ErrNoQuotes,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		message     string
		expectedMsg string
	}{
		{
			name:        "with field",
			field:       "author",
			message:     "is required",
			expectedMsg: "validation failed for author: is required",
		},
		{
			name:        "without field",
			message:     "quote is empty",
			expectedMsg: "validation failed: quote is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrValidation)
			assert.True(t, IsValidation(err))

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestFormatError(t *testing.T) {
	cause := errors.New("unexpected token")

	err := NewFormatError("payload is not a JSON array", cause)

	assert.Equal(t, "invalid format: payload is not a JSON array: unexpected token", err.Error())
	assert.True(t, IsFormat(err))
	require.ErrorIs(t, err, cause)

	bare := NewFormatError("empty payload", nil)
	assert.Equal(t, "invalid format: empty payload", bare.Error())
	assert.True(t, IsFormat(bare))
}

func TestStorageError(t *testing.T) {
	err := NewStorageError("write", "quotes", io.ErrShortWrite)

	assert.Equal(t, `storage write "quotes": short write`, err.Error())
	assert.True(t, IsStorage(err))
	require.ErrorIs(t, err, io.ErrShortWrite)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "write", storageErr.Op)
	assert.Equal(t, "quotes", storageErr.Key)

	assert.Equal(t, `storage read "quotes" failed`, NewStorageError("read", "quotes", nil).Error())
}

func TestUnavailableError(t *testing.T) {
	tests := []struct {
		name        string
		service     string
		reason      string
		expectedMsg string
	}{
		{
			name:        "with reason",
			service:     "quote-source",
			reason:      "HTTP 502",
			expectedMsg: `service "quote-source" unavailable: HTTP 502`,
		},
		{
			name:        "without reason",
			service:     "quote-source",
			expectedMsg: `service "quote-source" unavailable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUnavailableError(tt.service, tt.reason)

			assert.Equal(t, tt.expectedMsg, err.Error())
			assert.True(t, IsUnavailable(err))
		})
	}
}

func TestIsHelpers_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("syncing: %w", NewUnavailableError("quote-source", "timeout"))
	assert.True(t, IsUnavailable(wrapped))
	assert.False(t, IsValidation(wrapped))

	picked := fmt.Errorf("picking quote: %w", ErrNoQuotes)
	assert.True(t, IsNoQuotes(picked))
	assert.False(t, IsStorage(picked))
}
