package engine

import (
	"errors"
	"fmt"
)

// Error represents a failed engine operation.
//
// Errors from the cast layer (decimal.CastError,
// decimal.UnsupportedOperationError) stay reachable through Unwrap, so
// decimal.IsMalformed and friends work on engine errors too.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Collection names the affected collection, if any.
	Collection string

	// ID names the affected document, if any.
	ID string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownCollection indicates the collection was never registered.
	ErrCodeUnknownCollection ErrorCode = "UNKNOWN_COLLECTION"

	// ErrCodeNotFound indicates no document with the given ID exists.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidDocument indicates a document was rejected before it
	// reached the store.
	ErrCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"

	// ErrCodeInvalidQuery indicates a query could not be validated, cast or
	// compiled.
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"

	// ErrCodeInvalidSchema indicates a collection spec failed validation.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"

	// ErrCodeSchemaConflict indicates a collection is already registered with
	// a different spec.
	ErrCodeSchemaConflict ErrorCode = "SCHEMA_CONFLICT"

	// ErrCodeDuplicateID indicates a generated document ID was already taken.
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Collection != "" && e.ID != "":
		msg += fmt.Sprintf(" (collection=%s, id=%s)", e.Collection, e.ID)
	case e.Collection != "":
		msg += fmt.Sprintf(" (collection=%s)", e.Collection)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the engine error code of err, or "" if err is not an engine
// error. Uses errors.As to handle wrapped errors.
func Code(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsNotFound returns true if err reports a missing document.
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// IsUnknownCollection returns true if err reports an unregistered collection.
func IsUnknownCollection(err error) bool {
	return Code(err) == ErrCodeUnknownCollection
}

// IsInvalidDocument returns true if err reports a rejected document.
func IsInvalidDocument(err error) bool {
	return Code(err) == ErrCodeInvalidDocument
}

// IsInvalidQuery returns true if err reports a rejected query.
func IsInvalidQuery(err error) bool {
	return Code(err) == ErrCodeInvalidQuery
}

func unknownCollection(name string) *Error {
	return &Error{
		Code:       ErrCodeUnknownCollection,
		Message:    "collection is not registered",
		Collection: name,
	}
}

func notFound(collection, id string) *Error {
	return &Error{
		Code:       ErrCodeNotFound,
		Message:    "document not found",
		Collection: collection,
		ID:         id,
	}
}

func invalidDocument(collection string, err error) *Error {
	return &Error{
		Code:       ErrCodeInvalidDocument,
		Message:    "document rejected",
		Collection: collection,
		Err:        err,
	}
}

func invalidQuery(collection string, err error) *Error {
	return &Error{
		Code:       ErrCodeInvalidQuery,
		Message:    "query rejected",
		Collection: collection,
		Err:        err,
	}
}
