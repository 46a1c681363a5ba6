package harness

import (
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the run ended as expected and every assertion matched.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ErrorCode is the runtime error code of a failed run.
	ErrorCode string `json:"error_code,omitempty"`

	RunID      string   `json:"run_id,omitempty"`
	Registered []string `json:"registered"`
	Declined   []string `json:"declined"`
	Columns    []string `json:"columns,omitempty"`

	// Areas lists the reported areas in configuration order.
	Areas []string `json:"areas,omitempty"`

	// Documents holds each area's rendered Markdown.
	Documents map[string]string `json:"-"`

	// Charts holds each area's chart artifact names in emission order.
	Charts map[string][]string `json:"charts,omitempty"`

	// Store is the question store after the run.
	Store *questions.Store `json:"-"`

	// Archived holds the archive's run records after the run.
	Archived []ir.RunRecord `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Errors:     []string{},
		Registered: []string{},
		Declined:   []string{},
		Documents:  make(map[string]string),
		Charts:     make(map[string][]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
