// Package errs defines the application error taxonomy.
//
// Every failure that crosses a service boundary is classified into a Kind so
// controllers can map it onto an HTTP status without inspecting datastore or
// storage internals:
//
//	if err := svc.CreateCategory(ctx, in); err != nil {
//	    response.FromError(w, err)   // kind → status, message → body
//	    return
//	}
//
// Services create classified errors with the kind constructors:
//
//	return errs.Conflict("category %q already exists", in.Name)
//
// and wrap upstream causes with Wrap to keep the chain inspectable via
// errors.Is / errors.As.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and logging.
type Kind string

const (
	// KindValidation marks malformed or out-of-range input. Raised before
	// any mutating side effect.
	KindValidation Kind = "validation_failed"

	// KindUnauthorized marks a missing or unverifiable principal.
	KindUnauthorized Kind = "unauthorized"

	// KindForbidden marks an authenticated principal lacking access:
	// inactive store, no store role, insufficient store role.
	KindForbidden Kind = "forbidden"

	// KindNotFound marks an absent or cross-tenant record.
	KindNotFound Kind = "not_found"

	// KindConflict marks a uniqueness violation: duplicate name, SKU,
	// slug, email or phone.
	KindConflict Kind = "conflict"

	// KindAssetProcessing marks an upload or resize failure. Aborts the
	// enclosing mutation.
	KindAssetProcessing Kind = "asset_processing_failed"

	// KindAssetDeletion marks a best-effort blob deletion failure.
	// Collected and reported, never aborts the parent mutation.
	KindAssetDeletion Kind = "asset_deletion_failed"

	// KindInternal marks any unclassified datastore or system failure.
	KindInternal Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // optional field-level detail for validation
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two classified errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// ─── Constructors ─────────────────────────────────────────────────────────────

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// ValidationFields builds a validation error carrying a field → message map.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

func AssetProcessing(format string, args ...any) *Error {
	return newf(KindAssetProcessing, format, args...)
}

func AssetDeletion(format string, args ...any) *Error {
	return newf(KindAssetDeletion, format, args...)
}

func Internal(format string, args ...any) *Error {
	return newf(KindInternal, format, args...)
}

// Wrap attaches a cause to a classified error, preserving it for
// errors.Is / errors.As inspection.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.cause = cause
	return e
}

// ─── Inspection ───────────────────────────────────────────────────────────────

// KindOf extracts the Kind from err, walking the wrap chain.
// Unclassified errors report KindInternal; nil reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns the field-level detail map, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf returns the user-facing message for err. Unclassified errors get
// a generic message so internal detail never leaks to clients.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong"
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }

// HTTPStatus maps a Kind onto its transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAssetProcessing:
		return http.StatusUnprocessableEntity
	case KindAssetDeletion:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
