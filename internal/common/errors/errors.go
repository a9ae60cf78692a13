package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeProviderExhausted   ErrorCode = "PROVIDER_EXHAUSTED"
	ErrCodeProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrCodeAnalysisFallback    ErrorCode = "ANALYSIS_FALLBACK"
	ErrCodeEmptyCatalogResult  ErrorCode = "EMPTY_CATALOG_RESULT"
	ErrCodeCatalogQueryFailed  ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeCatalogEntryMissing ErrorCode = "CATALOG_ENTRY_NOT_FOUND"
	ErrCodeWebSearchFailed     ErrorCode = "WEB_SEARCH_FAILED"
	ErrCodeSessionExpired      ErrorCode = "SESSION_EXPIRED"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeOutOfScope          ErrorCode = "OUT_OF_SCOPE"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// User-facing texts. None of them exposes a code.
const (
	RefusalMessage    = "I cannot help with that request. I'm designed to assist with mobile phone shopping queries only."
	ApologyMessage    = "I'd be happy to help you find the perfect mobile phone! Could you please rephrase your question?"
	HighDemandMessage = "I'm currently experiencing high demand and need a moment to process your request. " +
		"Please try again in a few minutes, or contact support if the issue persists."
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func newStandardError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewProviderExhaustedError(err error) *StandardError {
	return newStandardError(ErrCodeProviderExhausted, "All generation providers failed", err.Error(), true)
}

func NewProviderRateLimitedError(provider string) *StandardError {
	return newStandardError(ErrCodeProviderRateLimited, "Generation provider is rate limited",
		fmt.Sprintf("provider: %s", provider), true)
}

func NewAnalysisFallbackError(reason string) *StandardError {
	return newStandardError(ErrCodeAnalysisFallback, "Generative extraction unusable, rule-based result used", reason, false)
}

func NewCatalogQueryFailedError(backend string, err error) *StandardError {
	return newStandardError(ErrCodeCatalogQueryFailed, "Catalog query failed",
		fmt.Sprintf("backend: %s, error: %s", backend, err.Error()), true)
}

func NewCatalogEntryNotFoundError(id int64) *StandardError {
	return newStandardError(ErrCodeCatalogEntryMissing, "Phone not found", fmt.Sprintf("id: %d", id), false)
}

func NewWebSearchFailedError(err error) *StandardError {
	// search degrades to an empty result set, never retried
	return newStandardError(ErrCodeWebSearchFailed, "Web search failed", err.Error(), false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newStandardError(ErrCodeSessionNotFound, "Session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewSessionExpiredError(sessionID string) *StandardError {
	return newStandardError(ErrCodeSessionExpired, "Session expired", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewOutOfScopeError() *StandardError {
	return newStandardError(ErrCodeOutOfScope, RefusalMessage, "", false)
}

func NewInvalidInputError(details string) *StandardError {
	return newStandardError(ErrCodeInvalidInput, "Invalid request", details, false)
}

func NewInternalError(err error) *StandardError {
	return newStandardError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderRateLimited:
		return 2
	case ErrCodeProviderExhausted, ErrCodeCatalogQueryFailed:
		return 1
	default:
		return 0
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "ANALYSIS"):
		return "AI"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "SCOPE"):
		return "SAFETY"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// UserMessage returns the polite text shown to an end user for a failure code.
func UserMessage(code ErrorCode) string {
	switch code {
	case ErrCodeOutOfScope:
		return RefusalMessage
	case ErrCodeProviderRateLimited:
		return HighDemandMessage
	case ErrCodeInvalidInput:
		return "Please send a question about mobile phones so I can help."
	case ErrCodeCatalogEntryMissing:
		return "I couldn't find that phone in our catalog."
	default:
		return ApologyMessage
	}
}

func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound, ErrCodeSessionExpired, ErrCodeCatalogEntryMissing:
		return http.StatusNotFound
	case ErrCodeProviderRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeProviderExhausted, ErrCodeCatalogQueryFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
