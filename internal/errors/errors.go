package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a fieldmark error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrNoDocument     ErrorCode = "NO_DOCUMENT"     // 409
	ErrMalformedInput ErrorCode = "MALFORMED_INPUT" // 422
	ErrLoadFailed     ErrorCode = "LOAD_FAILED"     // 422
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// MarkError represents a structured error with code, status, and details.
type MarkError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MarkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MarkError {
	return &MarkError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a field cannot be found.
func NewNotFound(id string) *MarkError {
	return &MarkError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("field not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import or document file.
func NewFileNotFound(path string) *MarkError {
	return &MarkError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNoDocument creates a 409 error for page operations attempted before a
// document has been loaded.
func NewNoDocument() *MarkError {
	return &MarkError{
		Code:    ErrNoDocument,
		Status:  409,
		Message: "no document loaded",
	}
}

// NewMalformedInput creates a 422 error for an import that is not a JSON array.
func NewMalformedInput(reason string) *MarkError {
	return &MarkError{
		Code:    ErrMalformedInput,
		Status:  422,
		Message: fmt.Sprintf("malformed input: %s", reason),
	}
}

// NewLoadFailed creates a 422 error when a document cannot be decoded.
func NewLoadFailed(err error) *MarkError {
	msg := "failed to load document"
	if err != nil {
		msg = fmt.Sprintf("failed to load document: %v", err)
	}
	return &MarkError{
		Code:    ErrLoadFailed,
		Status:  422,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MarkError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MarkError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a MarkError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MarkError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}
