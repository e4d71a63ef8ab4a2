package ir

import (
	"errors"
	"fmt"
)

// Error is the structured error returned by canonicalization, encoding and
// identification. Branch on Code, not on the message text.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path locates the offending value inside the record ("embed.images[0]").
	// Empty for errors that are not tied to a position.
	Path string

	// Cause is the underlying error, if any.
	Cause error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeMalformedValue indicates a value that is not a known variant,
	// or an object that repeats a key.
	ErrCodeMalformedValue ErrorCode = "MALFORMED_VALUE"

	// ErrCodeNonCanonicalInput indicates Encode was handed a value that still
	// contains Absent or *BlobRef.
	ErrCodeNonCanonicalInput ErrorCode = "NON_CANONICAL_INPUT"

	// ErrCodeUnsupportedNumeric indicates a NaN or infinite float.
	ErrCodeUnsupportedNumeric ErrorCode = "UNSUPPORTED_NUMERIC"

	// ErrCodeDigestUnavailable indicates the digest primitive failed.
	ErrCodeDigestUnavailable ErrorCode = "DIGEST_UNAVAILABLE"

	// ErrCodeReservedFieldConflict indicates caller data tried to set a
	// field the record protocol owns ($type, reply).
	ErrCodeReservedFieldConflict ErrorCode = "RESERVED_FIELD_CONFLICT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Path != "" {
		msg += fmt.Sprintf(" (at %s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, path, msg string) *Error {
	return &Error{Code: code, Message: msg, Path: path}
}

func wrapError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// NewReservedFieldError reports a payload that sets a protocol-owned key.
func NewReservedFieldError(key string) *Error {
	return &Error{
		Code:    ErrCodeReservedFieldConflict,
		Message: fmt.Sprintf("payload may not set reserved field %q", key),
		Path:    key,
	}
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}
