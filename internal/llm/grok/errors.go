package grok

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/HerbHall/gigagrok/pkg/llm"
)

// grokStatusError represents a non-2xx HTTP response from the xAI API.
// The body is included so callers see the upstream failure text.
type grokStatusError struct {
	StatusCode int
	Body       string
}

func (e *grokStatusError) Error() string {
	return fmt.Sprintf("grok: HTTP %d: %s", e.StatusCode, e.Body)
}

// abortError marks a failure that must not be retried even if its class
// would otherwise allow it: once stream events have been delivered to the
// caller, a restart would replay deltas and break the append-only
// invariant. Callback errors from the caller travel the same path.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// mapError translates xAI and network errors into typed llm.ProviderError
// values. The mapping decides retryability: 429 gets the cooldown path,
// 5xx/timeouts/network failures the backoff path, other 4xx is fatal.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out or cancelled", err)
	}

	var se *grokStatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == 401 || se.StatusCode == 403:
			return llm.NewProviderError(llm.ErrCodeAuthentication, se.Error(), err)
		case se.StatusCode == 429:
			return llm.NewProviderError(llm.ErrCodeRateLimit, se.Error(), err)
		case se.StatusCode >= 500:
			return llm.NewProviderError(llm.ErrCodeServerError, se.Error(), err)
		case se.StatusCode >= 400:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, se.Error(), err)
		}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out", err)
	}

	return llm.NewProviderError(llm.ErrCodeServerError, "grok request failed", err)
}
