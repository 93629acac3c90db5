// Package errors defines the typed error kinds surfaced at package
// boundaries. Stage-internal failures are wrapped with fmt.Errorf and
// promoted to a kind where they cross into callers.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure.
type Kind string

const (
	// KindInvalidParameter marks malformed tunables. Caught at the
	// call boundary before any processing runs, never corrected
	// silently.
	KindInvalidParameter Kind = "invalid_parameter"

	// KindDecode marks input image data that could not be decoded.
	KindDecode Kind = "decode"

	// KindProcessing marks a failure inside a pipeline stage.
	KindProcessing Kind = "processing"
)

// Error is a categorized application error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewInvalidParameter(message string) *Error {
	return &Error{Kind: KindInvalidParameter, Message: message}
}

func NewInvalidParameterf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidParameter, Message: fmt.Sprintf(format, args...)}
}

func NewDecode(message string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: message, Cause: cause}
}

func NewProcessing(message string, cause error) *Error {
	return &Error{Kind: KindProcessing, Message: message, Cause: cause}
}

// IsKind reports whether err or anything it wraps has the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
