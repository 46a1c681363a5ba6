package cli

import (
	"context"
	"errors"
	"os"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/dataroot"
	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/questions"
	"github.com/roach88/surveykn/internal/store"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotDataRoot = "E002" // Directory is not a data root
	ErrCodeExists      = "E003" // Target already exists
	ErrCodeLoadFailed  = "E004" // File could not be parsed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeInvalidArgs = "E006" // Invalid argument value
	ErrCodeWriteFailed = "E007" // File write error

	// Configuration and doctree errors use the compiler's E1xx codes.

	// Run and store errors.
	ErrCodeCapacity        = "E201" // Identifier space exhausted
	ErrCodeQuestionMissing = "E202" // Question not in store
	ErrCodeHasHistory      = "E203" // Question used by a past run
	ErrCodeUnrecognized    = "E204" // Answer outside the configured choices
	ErrCodeMissingColumn   = "E205" // Column absent from a survey or snapshot
	ErrCodeDuplicateColumn = "E206" // Two columns resolve to one question
	ErrCodeUnknownSnapshot = "E207" // Snapshot id not archived
	ErrCodeDuplicate       = "E208" // Wording already registered
	ErrCodeRunNotFound     = "E209" // Run id not archived
	ErrCodeCancelled       = "E210" // Interrupted by the operator
)

var runtimeCodes = map[engine.RuntimeErrorCode]string{
	engine.ErrCodeCapacityExceeded:     ErrCodeCapacity,
	engine.ErrCodeNotFound:             ErrCodeQuestionMissing,
	engine.ErrCodeHasHistory:           ErrCodeHasHistory,
	engine.ErrCodeUnrecognizedCategory: ErrCodeUnrecognized,
	engine.ErrCodeMissingColumn:        ErrCodeMissingColumn,
	engine.ErrCodeDuplicateColumn:      ErrCodeDuplicateColumn,
	engine.ErrCodeUnknownSnapshot:      ErrCodeUnknownSnapshot,
}

// errorCode maps an error from any layer to its CLI error code.
func errorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	if code, ok := runtimeCodes[engine.CodeOf(err)]; ok {
		return code
	}
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Code
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeCancelled
	case errors.Is(err, questions.ErrCapacityExceeded):
		return ErrCodeCapacity
	case errors.Is(err, questions.ErrNotFound):
		return ErrCodeQuestionMissing
	case errors.Is(err, questions.ErrHasHistory):
		return ErrCodeHasHistory
	case errors.Is(err, questions.ErrDuplicateWording):
		return ErrCodeDuplicate
	case errors.Is(err, store.ErrRunNotFound):
		return ErrCodeRunNotFound
	case errors.Is(err, engine.ErrUnknownSnapshot):
		return ErrCodeUnknownSnapshot
	case errors.Is(err, dataroot.ErrNotDataRoot):
		return ErrCodeNotDataRoot
	case errors.Is(err, os.ErrExist):
		return ErrCodeExists
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	}
	return ErrCodeGeneric
}

// fail reports err through the formatter and returns the matching exit
// error. Run and store failures exit with ExitFailure, everything else with
// ExitCommandError.
func fail(f *OutputFormatter, message string, err error) error {
	code := errorCode(err)
	var details any
	var rt *engine.RuntimeError
	if errors.As(err, &rt) {
		details = runtimeDetails(rt)
	}
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		details = []compiler.ValidationError(verrs)
	}
	_ = f.Error(code, message+": "+err.Error(), details)

	exit := ExitCommandError
	if code[1] == '2' || code[1] == '1' {
		exit = ExitFailure
	}
	return WrapExitError(exit, message, err)
}

func runtimeDetails(e *engine.RuntimeError) map[string]string {
	d := map[string]string{"code": string(e.Code)}
	if e.QuestionID != "" {
		d["question"] = string(e.QuestionID)
	}
	if e.Column != "" {
		d["column"] = e.Column
	}
	if e.Value != "" {
		d["value"] = e.Value
	}
	for k, v := range e.Details {
		d[k] = v
	}
	return d
}
