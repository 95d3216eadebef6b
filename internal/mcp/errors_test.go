package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_LexErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{"empty corpus", lexerr.New(lexerr.ErrCodeEmptyCorpus, "corpus has no documents", nil), ErrCodeCorpusEmpty, "no documents"},
		{"embedding", lexerr.New(lexerr.ErrCodeEmbeddingUnavailable, "embedding unavailable", nil), ErrCodeEmbeddingFailed, "embedding"},
		{"validation", lexerr.ValidationError("k must be positive", nil), ErrCodeInvalidParams, "k must be positive"},
		{"network", lexerr.NetworkError("provider down", nil), ErrCodeTimeout, "provider down"},
		{"internal", lexerr.InternalError("boom", nil), ErrCodeInternalError, "boom"},
		{"wrapped", fmt.Errorf("search: %w", lexerr.ValidationError("bad k", nil)), ErrCodeInvalidParams, "bad k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)

			require.NotNil(t, result)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Contains(t, result.Message, tt.contains)
		})
	}
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	// Given: a validation error with a suggestion
	err := lexerr.ValidationError("k must be positive", nil).WithSuggestion("Pass k >= 1")

	// When: mapping the error
	result := MapError(err)

	// Then: the suggestion follows the message
	assert.Equal(t, "k must be positive Pass k >= 1", result.Message)
}

func TestMapError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, MapError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeTimeout, MapError(context.Canceled).Code)
}

func TestMapError_PassesMCPErrorThrough(t *testing.T) {
	original := NewCaseNotFoundError("c999")

	result := MapError(fmt.Errorf("read: %w", original))

	assert.Same(t, original, result)
}

func TestMapError_Unknown(t *testing.T) {
	result := MapError(errors.New("some random error"))

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInternalError, result.Code)
	assert.Equal(t, "Internal server error.", result.Message)
}

func TestMCPError_Error(t *testing.T) {
	err := NewMethodNotFoundError("appeal")

	assert.Equal(t, "MCP error -32601: Tool 'appeal' not found.", err.Error())
}
