package api

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
)

// ErrorDetail is one key of error context.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// APIError is the body of every error response.
type APIError struct {
	Error      string        `json:"error"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
	Details    []ErrorDetail `json:"details,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id,omitempty"`
}

func newAPIError(c *gin.Context, status int, code, message string) *APIError {
	body := &APIError{
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if id, ok := c.Get(requestIDKey); ok {
		body.RequestID, _ = id.(string)
	}
	return body
}

// SendError writes an APIError with the given status.
func SendError(c *gin.Context, status int, code, message string, details ...ErrorDetail) {
	body := newAPIError(c, status, code, message)
	body.Details = details
	c.AbortWithStatusJSON(status, body)
}

// SendInvalidJSON reports a body that did not decode.
func SendInvalidJSON(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, lexerr.ErrCodeInvalidInput,
		"Invalid JSON in request body: "+err.Error())
}

// SendLexError maps err to a status code and writes it. Errors without
// a code become 500s.
func SendLexError(c *gin.Context, err error) {
	var le *lexerr.LexError
	if !errors.As(err, &le) {
		le = lexerr.Wrap(lexerr.ErrCodeInternal, err)
	}

	status := statusFor(le.Code)
	body := newAPIError(c, status, le.Code, le.Message)
	body.Suggestion = le.Suggestion

	keys := make([]string, 0, len(le.Details))
	for k := range le.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		body.Details = append(body.Details, ErrorDetail{Field: k, Message: le.Details[k]})
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func statusFor(code string) int {
	switch code {
	case lexerr.ErrCodeInvalidInput, lexerr.ErrCodeQueryTooLong, lexerr.ErrCodeDimensionMismatch:
		return http.StatusBadRequest
	case lexerr.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case lexerr.ErrCodeEmptyCorpus, lexerr.ErrCodeEmbeddingUnavailable, lexerr.ErrCodeCircuitOpen,
		lexerr.ErrCodeNetworkUnavailable, lexerr.ErrCodeProviderRateLimit:
		return http.StatusServiceUnavailable
	case lexerr.ErrCodeNetworkTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
