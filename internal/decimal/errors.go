package decimal

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes cast failures.
type ErrorCode string

const (
	// ErrCodeMalformed indicates input that is not a valid decimal, text that
	// is not in canonical form, or a resource-limit violation (digit count).
	ErrCodeMalformed ErrorCode = "MALFORMED"

	// ErrCodeOutOfRange indicates an exponent (or an integer for native modulo)
	// outside what the representation supports.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeUnsupportedOperation is the code reported by
	// UnsupportedOperationError.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
)

// CastError is returned when a value cannot be parsed, encoded or decoded.
//
// Field is empty when the failure happened outside any document field (for
// example a bare Parse call). Casting layers fill it in with WithField.
type CastError struct {
	Code    ErrorCode
	Message string
	Field   string
	Operand string
	Err     error
}

// Error implements the error interface.
func (e *CastError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Operand != "" {
		msg += fmt.Sprintf(" (operand=%q", e.Operand)
		if e.Field != "" {
			msg += fmt.Sprintf(", field=%s", e.Field)
		}
		msg += ")"
	} else if e.Field != "" {
		msg += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *CastError) Unwrap() error {
	return e.Err
}

// NewMalformedError creates a CastError with ErrCodeMalformed.
func NewMalformedError(operand, format string, args ...any) *CastError {
	return &CastError{
		Code:    ErrCodeMalformed,
		Message: fmt.Sprintf(format, args...),
		Operand: trimOperand(operand),
	}
}

// NewOutOfRangeError creates a CastError with ErrCodeOutOfRange.
func NewOutOfRangeError(operand, format string, args ...any) *CastError {
	return &CastError{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf(format, args...),
		Operand: trimOperand(operand),
	}
}

// UnsupportedOperationError is returned when an operator cannot be applied to
// a decimal operand, e.g. mod with a non-integral divisor.
type UnsupportedOperationError struct {
	Op      string
	Field   string
	Operand string
	Message string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s (operand=%q, field=%s)", ErrCodeUnsupportedOperation, e.Op, e.Message, e.Operand, e.Field)
	}
	return fmt.Sprintf("%s: %s %s (operand=%q)", ErrCodeUnsupportedOperation, e.Op, e.Message, e.Operand)
}

// WithField returns err annotated with the given field name when err is a
// CastError or UnsupportedOperationError that does not name a field yet.
// The original error value is never modified.
func WithField(err error, field string) error {
	var ce *CastError
	if errors.As(err, &ce) && ce.Field == "" {
		cp := *ce
		cp.Field = field
		return &cp
	}
	var ue *UnsupportedOperationError
	if errors.As(err, &ue) && ue.Field == "" {
		cp := *ue
		cp.Field = field
		return &cp
	}
	return err
}

// Code extracts the error code from err. The empty code is returned for
// errors that did not originate from casting.
func Code(err error) ErrorCode {
	var ce *CastError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var ue *UnsupportedOperationError
	if errors.As(err, &ue) {
		return ErrCodeUnsupportedOperation
	}
	return ""
}

// IsMalformed reports whether err is a CastError with ErrCodeMalformed.
func IsMalformed(err error) bool {
	return Code(err) == ErrCodeMalformed
}

// IsOutOfRange reports whether err is a CastError with ErrCodeOutOfRange.
func IsOutOfRange(err error) bool {
	return Code(err) == ErrCodeOutOfRange
}

// IsUnsupportedOperation reports whether err is an UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	var ue *UnsupportedOperationError
	return errors.As(err, &ue)
}

// trimOperand shortens very long operands kept in error messages.
func trimOperand(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
