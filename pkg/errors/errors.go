// Package errors provides structured error handling for memstore.
//
// Every failed precondition in the store surfaces as an *Error whose Type
// identifies the kind of failure. Callers classify errors by kind with
// IsType or the IsDuplicateKey/IsNotFound/IsPoolExhausted helpers, never by
// message text.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents a missing or tombstoned record
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeDuplicateKey represents an insert under an occupied id
	ErrorTypeDuplicateKey ErrorType = "duplicate_key"
	// ErrorTypePoolExhausted represents a connection pool with no free slot
	ErrorTypePoolExhausted ErrorType = "pool_exhausted"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeCanceled represents an operation abandoned by its caller
	ErrorTypeCanceled ErrorType = "canceled"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents data encoding/decoding errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrNotFound      = &Error{Type: ErrorTypeNotFound}
	ErrDuplicateKey  = &Error{Type: ErrorTypeDuplicateKey}
	ErrPoolExhausted = &Error{Type: ErrorTypePoolExhausted}
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a kind sentinel (an *Error with no message)
// of the same type, so errors.Is(err, ErrNotFound) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Cause == nil {
		return e.Type == t.Type
	}
	return e == t
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a previously attached detail value.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// DuplicateKey reports an insert under an id that is still occupied in
// collection, either by a live record or by a tombstone.
func DuplicateKey(collection, id string) *Error {
	e := &Error{
		Type:    ErrorTypeDuplicateKey,
		Message: fmt.Sprintf("duplicate key %q in collection %q", id, collection),
		Stack:   captureStack(2),
	}
	return e.WithDetail("collection", collection).WithDetail("id", id)
}

// NotFound reports an id that is absent from collection or tombstoned.
func NotFound(collection, id string) *Error {
	e := &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("record %q not found in collection %q", id, collection),
		Stack:   captureStack(2),
	}
	return e.WithDetail("collection", collection).WithDetail("id", id)
}

// PoolExhausted reports that no pool slot became free before the deadline.
func PoolExhausted(maxConnections int, cause error) *Error {
	e := &Error{
		Type:    ErrorTypePoolExhausted,
		Message: fmt.Sprintf("connection pool exhausted, max connections: %d", maxConnections),
		Cause:   cause,
		Stack:   captureStack(2),
	}
	return e.WithDetail("max_connections", maxConnections)
}

// IsRetryable returns true if the error is retryable
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypePoolExhausted, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsNotFound reports whether err is a not_found error.
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsDuplicateKey reports whether err is a duplicate_key error.
func IsDuplicateKey(err error) bool { return IsType(err, ErrorTypeDuplicateKey) }

// IsPoolExhausted reports whether err is a pool_exhausted error.
func IsPoolExhausted(err error) bool { return IsType(err, ErrorTypePoolExhausted) }

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
