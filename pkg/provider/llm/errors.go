package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider transport failure. The HTTP layer maps each
// kind to a status code and a retry hint; the agent loop itself never
// branches on kinds — it propagates provider errors unchanged.
type ErrorKind int

const (
	// KindUnknown covers failures that fit no other kind.
	KindUnknown ErrorKind = iota

	// KindAccessDenied means the backend rejected the caller's credentials
	// or the model is not enabled for the account. Not retryable.
	KindAccessDenied

	// KindThrottled means the backend rate-limited the call. Retryable with
	// backoff.
	KindThrottled

	// KindTimeout means the model did not respond within the backend's
	// processing deadline. Retryable, ideally with a simpler query.
	KindTimeout

	// KindValidation means the request was malformed or referenced
	// unsupported parameters. Not retryable without modification.
	KindValidation

	// KindNotFound means the requested model identifier does not exist.
	KindNotFound

	// KindUnavailable means the backend is temporarily unable to serve.
	// Retryable.
	KindUnavailable
)

// String returns the kind's stable machine-readable name.
func (k ErrorKind) String() string {
	switch k {
	case KindAccessDenied:
		return "access_denied"
	case KindThrottled:
		return "throttled"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind is worth retrying without
// changing the request.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindThrottled, KindTimeout, KindUnavailable:
		return true
	}
	return false
}

// Error is the classified wrapper for provider transport failures.
type Error struct {
	// Kind is the failure classification.
	Kind ErrorKind

	// Provider names the implementation that produced the failure
	// (e.g., "bedrock").
	Provider string

	// Err is the underlying SDK error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the underlying SDK error.
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the [ErrorKind] from err. Errors that are not *[Error]
// values report [KindUnknown].
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
