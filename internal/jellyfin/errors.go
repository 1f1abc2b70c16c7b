package jellyfin

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures so callers can decide whether to
// retry, re-authenticate, or surface the error to the user.
type Kind string

const (
	KindNotConfigured   Kind = "not_configured"
	KindInvalidURL      Kind = "invalid_url"
	KindInvalidResponse Kind = "invalid_response"
	KindHTTP            Kind = "http_error"
	KindSessionExpired  Kind = "session_expired"
	KindNetwork         Kind = "network_error"
)

// Error is the typed error surfaced by the gateway. Status is set only
// for KindHTTP.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotConfigured:
		return "no active session"
	case KindInvalidURL:
		return fmt.Sprintf("invalid URL: %v", e.Err)
	case KindInvalidResponse:
		return fmt.Sprintf("malformed server response: %v", e.Err)
	case KindHTTP:
		return fmt.Sprintf("server returned status %d", e.Status)
	case KindSessionExpired:
		return "session expired, please sign in again"
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("gateway error: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a gateway Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

// IsSessionExpired reports whether err is an auth failure that triggered
// the global logout.
func IsSessionExpired(err error) bool { return IsKind(err, KindSessionExpired) }

// retryable reports whether a request that failed with err may be
// retried: transport-level failures and 5xx responses only.
func retryable(err error) bool {
	var ge *Error
	if !errors.As(err, &ge) {
		return false
	}
	switch ge.Kind {
	case KindNetwork:
		return true
	case KindHTTP:
		return ge.Status >= 500
	}
	return false
}
