// Package apierr defines the closed error taxonomy used at every tool
// boundary. All failures (upstream HTTP errors, argument validation,
// auth problems) are classified into a single carrier type with a fixed
// kind set, so callers can switch on kind instead of matching strings.
package apierr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure classifications.
type Kind string

const (
	AuthRequired     Kind = "AUTH_REQUIRED"
	PermissionDenied Kind = "PERMISSION_DENIED"
	ValidationError  Kind = "VALIDATION_ERROR"
	NotFound         Kind = "NOT_FOUND"
	ApiError         Kind = "API_ERROR"
	NotImplemented   Kind = "NOT_IMPLEMENTED"
	InternalError    Kind = "INTERNAL_ERROR"
	InvalidPayload   Kind = "INVALID_PAYLOAD"
)

// Error is the single structured failure carrier. Immutable once
// constructed: classification never mutates an existing Error.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// New creates a taxonomy error with no context.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a taxonomy error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithContext creates a taxonomy error carrying context key/values
// (entity id, operation name) for diagnostics.
func WithContext(kind Kind, message string, ctx map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: ctx}
}

// KindOf returns the kind of err if it is (or wraps) a taxonomy error,
// or InternalError otherwise.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return InternalError
}

// IsKind reports whether err is a taxonomy error of the given kind.
func IsKind(err error, kind Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}

// ClassifyStatus maps an HTTP-like status code onto the taxonomy.
// 401 means the caller is not authenticated; 403 means authenticated but
// lacking permission; the message should carry the caller's intent.
// ctx (entity id, operation) is attached unchanged when non-nil.
func ClassifyStatus(status int, message string, ctx map[string]any) *Error {
	var kind Kind
	switch status {
	case 401:
		kind = AuthRequired
	case 403:
		kind = PermissionDenied
	case 404:
		kind = NotFound
	case 400, 422:
		kind = ValidationError
	default:
		kind = ApiError
	}
	return &Error{Kind: kind, Message: message, Context: ctx}
}

// Wrap classifies an arbitrary caught failure at an operation boundary.
// Already-classified errors pass through unchanged, so wrapping is
// idempotent and messages are never double-decorated. A failure with no
// message at all becomes InternalError; anything else becomes ApiError
// with the operation (and entity id, when given) embedded in the message.
// entityID may be nil when the operation has no single subject.
func Wrap(err error, operation string, entityID any) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}

	ctx := map[string]any{"operation": operation}
	subject := operation
	if entityID != nil {
		ctx["entityId"] = entityID
		subject = fmt.Sprintf("%s (id %v)", operation, entityID)
	}

	msg := err.Error()
	if msg == "" {
		return WithContext(InternalError, fmt.Sprintf("%s: unknown internal failure", subject), ctx)
	}

	// Failures that carry an upstream HTTP status (vikunja.HTTPError)
	// classify by status; everything else is a generic ApiError.
	var sc interface{ HTTPStatus() int }
	if errors.As(err, &sc) {
		return ClassifyStatus(sc.HTTPStatus(), fmt.Sprintf("%s: %s", subject, msg), ctx)
	}
	return WithContext(ApiError, fmt.Sprintf("%s: %s", subject, msg), ctx)
}

// sessionPatterns are message fragments that indicate an expired or
// otherwise unusable authentication session on the upstream API.
var sessionPatterns = []string{
	"token expired",
	"invalid token",
	"otherwise invalid token",
	"not authenticated",
	"missing or malformed jwt",
}

// WrapAuth classifies a failure from an operation that requires
// authentication. Session-expiry signals are reclassified to
// AuthRequired with remediation guidance; everything else delegates to
// Wrap. Like Wrap, it never re-wraps an existing taxonomy error.
func WrapAuth(err error, operation string) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}

	lower := strings.ToLower(err.Error())
	for _, p := range sessionPatterns {
		if strings.Contains(lower, p) {
			return WithContext(AuthRequired,
				fmt.Sprintf("%s: session expired or invalid, re-authenticate and retry (%s)", operation, err.Error()),
				map[string]any{"operation": operation})
		}
	}
	return Wrap(err, operation, nil)
}
