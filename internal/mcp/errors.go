// Package mcp exposes precedent search to MCP clients.
package mcp

import (
	"context"
	"errors"
	"fmt"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeCorpusEmpty indicates there is nothing to search.
	ErrCodeCorpusEmpty = -32001

	// ErrCodeEmbeddingFailed indicates the query could not be embedded.
	ErrCodeEmbeddingFailed = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeCaseNotFound indicates no case has the requested id.
	ErrCodeCaseNotFound = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrToolNotFound indicates the requested tool does not exist.
var ErrToolNotFound = errors.New("tool not found")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}
	if le, ok := lexerr.As(err); ok {
		return mapLexError(le)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

// NewCaseNotFoundError creates an error for an unknown case id.
func NewCaseNotFoundError(id string) *MCPError {
	return &MCPError{Code: ErrCodeCaseNotFound, Message: fmt.Sprintf("Case '%s' not found.", id)}
}

func mapLexError(le *lexerr.LexError) *MCPError {
	message := le.Message
	if le.Suggestion != "" {
		message = fmt.Sprintf("%s %s", le.Message, le.Suggestion)
	}

	switch le.Code {
	case lexerr.ErrCodeEmptyCorpus:
		return &MCPError{Code: ErrCodeCorpusEmpty, Message: message}
	case lexerr.ErrCodeEmbeddingUnavailable:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: message}
	}

	switch le.Category {
	case lexerr.CategoryNetwork:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	case lexerr.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
