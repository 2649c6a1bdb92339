// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, malformed bars, bad policies or weights
//   - Data/Resource errors (200-299): Data not found, query failures, unavailable resources
//   - Indicator errors (300-399): Technical indicator calculation and lookup errors
//   - Strategy errors (400-499): Strategy construction, configuration, and runtime errors
//   - Trading errors (500-599): Position management errors
//   - Backtest errors (600-699): Backtesting engine errors
//   - Callback errors (800-899): Callback execution failures
//   - Selection errors (900-999): Strategy selection failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataNotFound, "data not found for symbol %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., indicator calculations requiring a minimum period).
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// ValidationError reports malformed input bars. Index is the offending bar
// position, or -1 when the error concerns the sequence as a whole.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(index int, field, message string) *ValidationError {
	return &ValidationError{
		Index:   index,
		Field:   field,
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(index int, field, format string, args ...any) *ValidationError {
	return NewValidationError(index, field, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("[%d] invalid bars: %s", ErrCodeInvalidBar, e.Message)
	}

	if e.Field == "" {
		return fmt.Sprintf("[%d] invalid bar at index %d: %s", ErrCodeInvalidBar, e.Index, e.Message)
	}

	return fmt.Sprintf("[%d] invalid bar at index %d (%s): %s", ErrCodeInvalidBar, e.Index, e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// StrategyExecutionError is raised when a strategy fails while computing a signal.
type StrategyExecutionError struct {
	Strategy string
	Cause    error
}

// NewStrategyExecutionError creates a new StrategyExecutionError.
func NewStrategyExecutionError(strategy string, cause error) *StrategyExecutionError {
	return &StrategyExecutionError{
		Strategy: strategy,
		Cause:    cause,
	}
}

// Error implements the error interface.
func (e *StrategyExecutionError) Error() string {
	return fmt.Sprintf("[%d] strategy %s failed: %v", ErrCodeStrategyExecution, e.Strategy, e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *StrategyExecutionError) Unwrap() error {
	return e.Cause
}

// IsStrategyExecutionError checks if an error is a StrategyExecutionError.
func IsStrategyExecutionError(err error) bool {
	var execErr *StrategyExecutionError

	return errors.As(err, &execErr)
}

// SelectionImpossibleError is raised when no strategy clears the robustness gate.
type SelectionImpossibleError struct {
	// Candidates is the number of strategies that were evaluated.
	Candidates int
	// Excluded maps strategy name to the reason it was excluded.
	Excluded map[string]string
}

// NewSelectionImpossibleError creates a new SelectionImpossibleError.
func NewSelectionImpossibleError(candidates int, excluded map[string]string) *SelectionImpossibleError {
	return &SelectionImpossibleError{
		Candidates: candidates,
		Excluded:   excluded,
	}
}

// Error implements the error interface.
func (e *SelectionImpossibleError) Error() string {
	if len(e.Excluded) == 0 {
		return fmt.Sprintf("[%d] no strategy cleared the robustness gate (%d candidates)", ErrCodeSelectionImpossible, e.Candidates)
	}

	names := make([]string, 0, len(e.Excluded))
	for name := range e.Excluded {
		names = append(names, name)
	}

	sort.Strings(names)

	reasons := make([]string, 0, len(names))
	for _, name := range names {
		reasons = append(reasons, fmt.Sprintf("%s: %s", name, e.Excluded[name]))
	}

	return fmt.Sprintf("[%d] no strategy cleared the robustness gate (%d candidates): %s",
		ErrCodeSelectionImpossible, e.Candidates, strings.Join(reasons, "; "))
}

// IsSelectionImpossibleError checks if an error is a SelectionImpossibleError.
func IsSelectionImpossibleError(err error) bool {
	var selectionErr *SelectionImpossibleError

	return errors.As(err, &selectionErr)
}
