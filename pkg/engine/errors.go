package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the phase of a run that produced an error.
type ErrorClass string

const (
	// ErrorClassConstruction indicates the configuration description could not be built.
	// Examples: duplicate symbols, select on a non-boolean entry, select cycles.
	ErrorClassConstruction ErrorClass = "construction"

	// ErrorClassInput indicates a caller-supplied value was rejected.
	// Examples: a non-numeric value for an integer entry, an unknown choice label.
	ErrorClassInput ErrorClass = "input"

	// ErrorClassIO indicates a persisted config or generated header could not be accessed.
	ErrorClassIO ErrorClass = "io"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Symbol is the configuration symbol involved, if applicable.
	Symbol string `json:"symbol,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Symbol != "" && e.Operation != "" {
		msg = fmt.Sprintf("%s (symbol=%s, operation=%s)", msg, e.Symbol, e.Operation)
	} else if e.Symbol != "" {
		msg = fmt.Sprintf("%s (symbol=%s)", msg, e.Symbol)
	} else if e.Operation != "" {
		msg = fmt.Sprintf("%s (operation=%s)", msg, e.Operation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
// Two engine errors match when they share a class and a code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConstructionError creates a new construction error.
func NewConstructionError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassConstruction,
		Message: message,
		Err:     err,
	}
}

// NewInputError creates a new input error.
func NewInputError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassInput,
		Message: message,
		Err:     err,
	}
}

// NewIOError creates a new I/O error.
func NewIOError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassIO,
		Message: message,
		Err:     err,
		Code:    ErrCodeIO,
	}
}

// WithSymbol adds symbol context to an error.
func (e *EngineError) WithSymbol(symbol string) *EngineError {
	e.Symbol = symbol
	return e
}

// WithOperation adds operation context to an error.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// IsConstruction returns true if the error is classified as a construction error.
func IsConstruction(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConstruction
	}
	return false
}

// IsInput returns true if the error is classified as an input error.
func IsInput(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassInput
	}
	return false
}

// IsIO returns true if the error is classified as an I/O error.
func IsIO(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassIO
	}
	return false
}

// Common error codes.
const (
	ErrCodeDuplicateSymbol = "DUPLICATE_SYMBOL"
	ErrCodeSelectOnNonBool = "SELECT_ON_NON_BOOL"
	ErrCodeInvalidValue    = "INVALID_VALUE"
	ErrCodeInvalidChoice   = "INVALID_CHOICE"
	ErrCodeNoSuchOption    = "NO_SUCH_OPTION"
	ErrCodeTypeMismatch    = "TYPE_MISMATCH"
	ErrCodeSelectCycle     = "SELECT_CYCLE"
	ErrCodeMenuUnderflow   = "MENU_UNDERFLOW"
	ErrCodeIO              = "IO_ERROR"
)

// Sentinel errors for use with errors.Is.
var (
	ErrDuplicateSymbol = &EngineError{Class: ErrorClassConstruction, Code: ErrCodeDuplicateSymbol}
	ErrSelectOnNonBool = &EngineError{Class: ErrorClassConstruction, Code: ErrCodeSelectOnNonBool}
	ErrInvalidChoice   = &EngineError{Class: ErrorClassConstruction, Code: ErrCodeInvalidChoice}
	ErrSelectCycle     = &EngineError{Class: ErrorClassConstruction, Code: ErrCodeSelectCycle}
	ErrMenuUnderflow   = &EngineError{Class: ErrorClassConstruction, Code: ErrCodeMenuUnderflow}
	ErrInvalidValue    = &EngineError{Class: ErrorClassInput, Code: ErrCodeInvalidValue}
	ErrNoSuchOption    = &EngineError{Class: ErrorClassInput, Code: ErrCodeNoSuchOption}
	ErrTypeMismatch    = &EngineError{Class: ErrorClassInput, Code: ErrCodeTypeMismatch}
)
