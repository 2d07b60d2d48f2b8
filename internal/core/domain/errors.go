package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error. Every kind maps to exactly one HTTP status
// code in the API layer; see internal/api/error_handler.go for the table.
type Kind int

const (
	KindUnknown Kind = iota
	KindConflict
	KindInvalidRoles
	KindNotFound
	KindTokenMalformed
	KindTokenSignatureInvalid
	KindTokenNotFound
	KindTokenUnusable
	KindBadCredentials
	KindServiceUnavailable
	KindSyncPending
	KindValidation
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindInvalidRoles:
		return "invalid_roles"
	case KindNotFound:
		return "not_found"
	case KindTokenMalformed:
		return "token_malformed"
	case KindTokenSignatureInvalid:
		return "token_signature_invalid"
	case KindTokenNotFound:
		return "token_not_found"
	case KindTokenUnusable:
		return "token_unusable"
	case KindBadCredentials:
		return "bad_credentials"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindSyncPending:
		return "sync_pending"
	case KindValidation:
		return "validation_error"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Error is the tagged error type shared by all services. The Kind drives HTTP
// status mapping; Message is safe to surface to clients.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes two domain errors of the same kind match under errors.Is, so
// services can compare against kind sentinels without string matching.
func (e *Error) Is(target error) bool {
	var de *Error
	if errors.As(target, &de) {
		return e.Kind == de.Kind
	}
	return false
}

// E builds a domain error with a formatted message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a domain error, keeping the client-safe message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the Kind from err, or KindUnknown if err is not a domain
// error anywhere in its chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// MessageOf returns the client-safe message of a domain error, or the generic
// fallback for anything else (never leak internal error text).
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}
