package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
	Areas   int                        `json:"areas"`
	Charts  int                        `json:"charts"`
	Leaves  int                        `json:"leaves"`
	Known   int                        `json:"known"`
	Unknown []string                   `json:"unknown,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and doctree",
		Long: `Validate the report configuration and doctree of the data root without
running a report.

The configuration is checked against the schema and for consistency (chart
catalog, exceptions, duplicate areas and choices). The doctree is resolved
against the question store and unknown questions are listed: a report run
would ask about each of them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := loadWorkspace(opts)
	if err != nil {
		var loadErr *LoadError
		var verrs compiler.ValidationErrors
		if errors.As(err, &verrs) {
			return outputValidationErrors(formatter, verrs)
		}
		if errors.As(err, &loadErr) && loadErr.Line > 0 {
			return outputValidationErrors(formatter, []compiler.ValidationError{{
				Field:   loadErr.File,
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    loadErr.Line,
			}})
		}
		return fail(formatter, "failed to load data root", err)
	}

	formatter.VerboseLog("Loaded %s and %s", ws.ConfigPath, ws.DoctreePath)

	result := ValidationResult{
		Valid:  true,
		Areas:  len(ws.Config.Areas),
		Charts: len(ws.Config.DrawnCharts()),
	}
	ir.Walk(ws.Outline, func(_ []string, n ir.Node) {
		if _, ok := n.(*ir.Leaf); ok {
			result.Leaves++
		}
	})
	plan := engine.Resolve(ws.Outline, ws.Store.ReverseLookup())
	for _, pd := range plan.Pending {
		result.Unknown = append(result.Unknown, pd.Wording)
	}
	seen := make(map[string]bool)
	ir.Walk(ws.Outline, func(_ []string, n ir.Node) {
		leaf, ok := n.(*ir.Leaf)
		if !ok {
			return
		}
		for _, w := range leaf.Questions {
			if _, known := plan.Known(w); known && !seen[w] {
				seen[w] = true
				result.Known++
			}
		}
	})

	return outputValidateSuccess(formatter, result)
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	formatter.Check("Configuration valid: %d area(s), %d comparison chart(s)", result.Areas, result.Charts)
	formatter.Check("Doctree valid: %d question group(s), %d known question(s)", result.Leaves, result.Known)
	if len(result.Unknown) > 0 {
		fmt.Fprintf(formatter.Writer, "%d question(s) not in the store, the next run will ask about them:\n", len(result.Unknown))
		for _, w := range result.Unknown {
			fmt.Fprintf(formatter.Writer, "  - %s\n", w)
		}
	}
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		_ = formatter.Success(ValidationResult{Valid: false, Errors: errs})
	} else {
		formatter.Cross("Validation failed:")
		for _, e := range errs {
			fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
