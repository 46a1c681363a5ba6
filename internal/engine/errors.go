package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// RuntimeError represents a fatal condition detected during a run.
//
// Every RuntimeError aborts the whole run; nothing is persisted. Declined
// registrations are never errors.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// QuestionID identifies the affected question, if any.
	QuestionID ir.QuestionID

	// Column names the affected dataset column, if any.
	Column string

	// Value is the offending cell value (UNRECOGNIZED_CATEGORY).
	Value string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeCapacityExceeded indicates the identifier space cannot hold the
	// confirmed registrations.
	ErrCodeCapacityExceeded RuntimeErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeNotFound indicates an operation on an absent identifier.
	ErrCodeNotFound RuntimeErrorCode = "NOT_FOUND"

	// ErrCodeHasHistory indicates an attempt to delete a question used by a run.
	ErrCodeHasHistory RuntimeErrorCode = "HAS_HISTORY"

	// ErrCodeUnrecognizedCategory indicates a cell value outside the configured choices.
	ErrCodeUnrecognizedCategory RuntimeErrorCode = "UNRECOGNIZED_CATEGORY"

	// ErrCodeMissingColumn indicates a declared column absent from a dataset.
	ErrCodeMissingColumn RuntimeErrorCode = "MISSING_COLUMN"

	// ErrCodeDuplicateColumn indicates two dataset columns bound to one identifier.
	ErrCodeDuplicateColumn RuntimeErrorCode = "DUPLICATE_COLUMN"

	// ErrCodeUnknownSnapshot indicates a snapshot id no source can supply.
	ErrCodeUnknownSnapshot RuntimeErrorCode = "UNKNOWN_SNAPSHOT"
)

// ErrUnknownSnapshot is returned by a SnapshotSource that has no snapshot
// with the requested id.
var ErrUnknownSnapshot = errors.New("unknown snapshot")

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.QuestionID != "" && e.Column != "":
		return fmt.Sprintf("%s: %s (question=%s, column=%q)", e.Code, e.Message, e.QuestionID, e.Column)
	case e.QuestionID != "":
		return fmt.Sprintf("%s: %s (question=%s)", e.Code, e.Message, e.QuestionID)
	case e.Column != "":
		return fmt.Sprintf("%s: %s (column=%q)", e.Code, e.Message, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the RuntimeErrorCode carried by err, or "" if err is not a
// RuntimeError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCapacityError returns true if the error is a capacity exceeded error.
func IsCapacityError(err error) bool {
	return CodeOf(err) == ErrCodeCapacityExceeded
}

// IsUnrecognizedCategory returns true if a dataset value fell outside the
// configured choices.
func IsUnrecognizedCategory(err error) bool {
	return CodeOf(err) == ErrCodeUnrecognizedCategory
}

// IsMissingColumn returns true if a declared column was absent.
func IsMissingColumn(err error) bool {
	return CodeOf(err) == ErrCodeMissingColumn
}

// FromStoreError maps a question store sentinel error onto a RuntimeError.
// Errors that are not store sentinels are returned unchanged.
func FromStoreError(err error, id ir.QuestionID) error {
	var code RuntimeErrorCode
	switch {
	case err == nil:
		return nil
	case errors.Is(err, questions.ErrCapacityExceeded):
		code = ErrCodeCapacityExceeded
	case errors.Is(err, questions.ErrNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, questions.ErrHasHistory):
		code = ErrCodeHasHistory
	default:
		return err
	}
	return &RuntimeError{Code: code, Message: err.Error(), QuestionID: id, Err: err}
}

// NewCapacityError creates a RuntimeError for a batch of registrations that
// does not fit the remaining identifier space.
func NewCapacityError(needed, remaining int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCapacityExceeded,
		Message: fmt.Sprintf("%d confirmed registration(s) but only %d identifier(s) left", needed, remaining),
		Details: map[string]string{
			"needed":    fmt.Sprintf("%d", needed),
			"remaining": fmt.Sprintf("%d", remaining),
		},
		Err: questions.ErrCapacityExceeded,
	}
}

// NewUnrecognizedCategoryError creates a RuntimeError naming the question,
// its wording and the offending value.
func NewUnrecognizedCategoryError(id ir.QuestionID, wording, source, value string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeUnrecognizedCategory,
		Message:    fmt.Sprintf("answer %q to %q is not a configured choice", value, wording),
		QuestionID: id,
		Value:      value,
		Details: map[string]string{
			"wording": wording,
			"source":  source,
		},
	}
}

// NewMissingColumnError creates a RuntimeError for a column absent from a dataset.
func NewMissingColumnError(column, dataset string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingColumn,
		Message: fmt.Sprintf("column is not in %s", dataset),
		Column:  column,
		Details: map[string]string{"dataset": dataset},
	}
}
