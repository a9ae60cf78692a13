package providerdispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	commonhttp "shopping-assistant/internal/common/http"
)

var ErrProviderExhausted = errors.New("PROVIDER_EXHAUSTED")

// Backend is one interchangeable text generator.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindRateLimited
	ErrorKindOther
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindRateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// Result is the outcome of a single backend attempt.
type Result struct {
	OK      bool
	Value   string
	Kind    ErrorKind
	Err     error
	Backend string
}

// ExhaustedError ends a Generate call that produced no text. It matches
// ErrProviderExhausted and unwraps to the last backend error.
type ExhaustedError struct {
	Attempts int
	Backend  string
	LastKind ErrorKind
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempt(s), last backend %s (%s): %v",
		ErrProviderExhausted, e.Attempts, e.Backend, e.LastKind, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrProviderExhausted, e.Last}
}

// IsRateLimited reports whether err ended on a throttling failure.
func IsRateLimited(err error) bool {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.LastKind == ErrorKindRateLimited
	}
	return ClassifyError(err) == ErrorKindRateLimited
}

var rateLimitMarkers = []string{
	"429",
	"quota",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"resource_exhausted",
	"too many requests",
}

// ClassifyError maps a backend error onto the failover policy's error kinds.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 429 {
		return ErrorKindRateLimited
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return ErrorKindRateLimited
		}
	}
	return ErrorKindOther
}
