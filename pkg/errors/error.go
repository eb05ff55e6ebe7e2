// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, missing data, type mismatches
//   - Data/Resource errors (200-299): Data not found, query failures, csv import and export
//   - Indicator errors (300-399): Technical indicator calculation and lookup errors
//   - Strategy errors (400-499): Strategy registry, parameters and order notification errors
//   - Trading errors (500-599): Broker, order fill and position errors
//   - Backtest errors (600-699): Backtesting engine, feed and state errors
//   - Config errors (700-799): Config file reading, decoding and schema errors
//   - Callback errors (800-899): Lifecycle callback failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataNotFound, "no rows for ticker %s", ticker)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code, including errors such as InsufficientDataError that carry their own
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Coded is an error that carries an ErrorCode.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// Error is a coded error with a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New returns an Error with no cause.
func New(code ErrorCode, message string) *Error {
	return Wrap(code, message, nil)
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), nil)
}

// Wrap returns an Error for code that unwraps to cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) Error() string {
	text := withCode(e.Code, e.Message)
	if e.Cause == nil {
		return text
	}

	return text + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode implements Coded.
func (e *Error) ErrorCode() ErrorCode {
	return e.Code
}

func withCode(code ErrorCode, message string) string {
	return fmt.Sprintf("[%d] %s", code, message)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first Coded error in err's chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}

	return ErrCodeUnknown
}

// HasCode reports whether GetCode(err) is code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError is returned for a ticker that has too few rows inside the
// comparison range to warm up a strategy's indicators.
type InsufficientDataError struct {
	Symbol string
	// Rows inside the comparison range.
	Rows int
	// Required is the smallest row count that is accepted.
	Required int
}

// NewInsufficientDataError reports that symbol has rows where required are needed.
func NewInsufficientDataError(symbol string, rows, required int) *InsufficientDataError {
	return &InsufficientDataError{Symbol: symbol, Rows: rows, Required: required}
}

func (e *InsufficientDataError) Error() string {
	return withCode(ErrCodeInsufficientData,
		fmt.Sprintf("insufficient data for %s: %d rows, needs at least %d", e.Symbol, e.Rows, e.Required))
}

// ErrorCode implements Coded.
func (e *InsufficientDataError) ErrorCode() ErrorCode {
	return ErrCodeInsufficientData
}

// IsInsufficientDataError reports whether err's chain holds an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficient *InsufficientDataError

	return errors.As(err, &insufficient)
}
