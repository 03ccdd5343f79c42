package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can pick the right degraded
// response shape without string matching.
type ErrorKind int

const (
	// KindQueryFailed marks a storage engine error during a read.
	KindQueryFailed ErrorKind = iota
	// KindDatasetUnavailable marks a missing or unfetchable reference dataset.
	KindDatasetUnavailable
	// KindValidation marks a caller-supplied parameter outside the contract range.
	KindValidation
)

// Error is the failure type crossing package boundaries. Op names the
// operation that failed, Message is human-readable context, Err is the
// wrapped cause (may be nil for validation failures).
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DatasetUnavailableErr wraps a dataset resolution or open failure.
func DatasetUnavailableErr(op, message string, err error) *Error {
	return &Error{Kind: KindDatasetUnavailable, Op: op, Message: message, Err: err}
}

// QueryFailedErr wraps a storage read failure.
func QueryFailedErr(op string, err error) *Error {
	return &Error{Kind: KindQueryFailed, Op: op, Message: "query failed", Err: err}
}

// ValidationErr reports an out-of-contract parameter.
func ValidationErr(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: err.Error()}
}

// IsDatasetUnavailable reports whether err is a dataset availability failure.
func IsDatasetUnavailable(err error) bool {
	return hasKind(err, KindDatasetUnavailable)
}

// IsQueryFailed reports whether err is a storage read failure.
func IsQueryFailed(err error) bool {
	return hasKind(err, KindQueryFailed)
}

// IsValidation reports whether err is a parameter validation failure.
func IsValidation(err error) bool {
	return hasKind(err, KindValidation)
}

func hasKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
