package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a compilation error with source position.
// CUE-originated errors carry Pos; YAML-originated errors carry File and Line.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	File    string
	Line    int
	Column  int
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   cueField(firstErr),
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

func cueField(err errors.Error) string {
	if path := err.Path(); len(path) > 0 {
		return strings.Join(path, ".")
	}
	return "cue"
}

// Validation error codes (E100-E199)
const (
	// Configuration errors (E100-E109)
	ErrUnknownChart     = "E100" // draw names a chart absent from the catalog
	ErrChartParameters  = "E101" // chart kind is missing its snapshot parameter(s)
	ErrInvalidException = "E102" // exception is not a question identifier
	ErrDuplicateChoice  = "E103" // two choices share a value
	ErrDuplicateArea    = "E104" // an area is listed twice
	ErrDuplicateChartID = "E105" // two catalog charts share an artifact id

	// Outline errors (E110-E119)
	ErrOutlineShape   = "E110" // node is neither a group nor a leaf
	ErrDuplicateLabel = "E111" // sibling labels repeat
	ErrUnknownLeafKey = "E112" // leaf has a key other than Questions/Comments
	ErrEmptyQuestion  = "E113" // blank question wording
	ErrEmptyOutline   = "E114" // doctree has no sections
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every validation failure of one document.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
