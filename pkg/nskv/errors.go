package nskv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error is a coded error returned by this package.
type Error struct {
	Code    string // e.g. "NS-DOC-4220"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[" + e.Code + "] " + e.Message)
	if e.Details != "" {
		b.WriteString(": " + e.Details)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// Wrap returns a copy of the error with cause attached.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// ErrorCode extracts the code of an *Error in err's chain.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	// ErrInvalidArgument reports a call the layer refuses before reaching the store.
	ErrInvalidArgument = NewError("NS-ARG-4000", "invalid argument")

	// ErrDecode reports a document read whose payload is not valid JSON.
	ErrDecode = NewError("NS-DOC-4220", "document decode failed")

	// ErrMirror reports a failed side-write after a successful document set.
	ErrMirror = NewError("NS-DOC-5030", "mirror write failed")

	// ErrBatch reports a batch whose round trip failed, or that had
	// failing commands when results were flattened.
	ErrBatch = NewError("NS-BAT-5000", "batch failed")

	// ErrBatchSpent reports a second Exec on the same batch.
	ErrBatchSpent = NewError("NS-BAT-4090", "batch already executed")

	// ErrMalformedReply reports a store reply of an unexpected shape.
	ErrMalformedReply = NewError("NS-CMD-5020", "malformed reply")
)

// CommandError is the failure of one command inside a batch.
type CommandError struct {
	Index  int
	Method string
	Err    error
}

// Error implements the error interface.
func (e CommandError) Error() string {
	return "#" + strconv.Itoa(e.Index) + " " + e.Method + ": " + e.Err.Error()
}

// Unwrap returns the store error.
func (e CommandError) Unwrap() error {
	return e.Err
}

// BatchError lists the failed commands of a batch. It matches ErrBatch
// with errors.Is and unwraps to every command error.
type BatchError struct {
	Size     int
	Failures []CommandError
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %d of %d commands failed: %s",
		ErrBatch.Error(), len(e.Failures), e.Size, strings.Join(parts, "; "))
}

// Is matches ErrBatch.
func (e *BatchError) Is(target error) bool {
	return ErrBatch.Is(target)
}

// Unwrap returns the individual command errors.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// CheckResults returns a *BatchError naming every failed result, or nil.
// cmds may be nil, in which case method names are left empty.
func CheckResults(cmds []Command, results []Result) error {
	var be *BatchError
	for i, r := range results {
		if r.Err == nil {
			continue
		}
		if be == nil {
			be = &BatchError{Size: len(results)}
		}
		method := ""
		if i < len(cmds) {
			method = cmds[i].Method
		}
		be.Failures = append(be.Failures, CommandError{Index: i, Method: method, Err: r.Err})
	}
	if be == nil {
		return nil
	}
	return be
}
