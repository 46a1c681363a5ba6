package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/surveykn/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion of s against r and returns the
// failure messages.
func EvaluateAssertions(r *Result, s *Scenario) []string {
	var msgs []string
	for _, a := range s.Assertions {
		if err := evaluate(r, s, a); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func evaluate(r *Result, s *Scenario, a Assertion) error {
	switch a.Type {
	case AssertRegistered:
		return sameList(a.Type, nonNil(a.IDs), r.Registered)
	case AssertDeclined:
		return sameList(a.Type, nonNil(a.Wordings), r.Declined)
	case AssertColumns:
		return sameList(a.Type, nonNil(a.Columns), r.Columns)
	case AssertDocumentContains, AssertDocumentLacks:
		return assertDocument(r, a)
	case AssertChartCount:
		if _, ok := r.Charts[a.Area]; !ok {
			return &AssertionError{Type: a.Type, Expected: "report for area " + a.Area, Actual: fmt.Sprintf("areas %v", r.Areas)}
		}
		if got := len(r.Charts[a.Area]); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d charts in %s", a.Count, a.Area),
				Actual:   fmt.Sprintf("%d charts %v", got, r.Charts[a.Area]),
			}
		}
	case AssertHistory:
		return assertHistory(r, s, a)
	case AssertArchived:
		return assertArchived(r, s, a)
	}
	return nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func sameList(kind string, want, got []string) error {
	if got == nil {
		got = []string{}
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{Type: kind, Expected: fmt.Sprintf("%q", want), Actual: fmt.Sprintf("%q", got)}
}

func assertDocument(r *Result, a Assertion) error {
	doc, ok := r.Documents[a.Area]
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "document for area " + a.Area, Actual: fmt.Sprintf("areas %v", r.Areas)}
	}
	found := strings.Contains(doc, a.Text)
	if found == (a.Type == AssertDocumentContains) {
		return nil
	}
	expected := fmt.Sprintf("%s document to contain %q", a.Area, a.Text)
	if a.Type == AssertDocumentLacks {
		expected = fmt.Sprintf("%s document not to contain %q", a.Area, a.Text)
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: doc}
}

func assertHistory(r *Result, s *Scenario, a Assertion) error {
	run := a.Run
	if run == "" {
		run = s.Run
	}
	if r.Store == nil {
		return &AssertionError{Type: a.Type, Expected: "a question store", Actual: "run produced none"}
	}
	history, err := r.Store.History(ir.QuestionID(a.ID))
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: a.ID + " in store", Actual: err.Error()}
	}
	for _, u := range history {
		if u.Run == run {
			if u.Wording != a.Wording {
				return &AssertionError{
					Type:     a.Type,
					Expected: fmt.Sprintf("%s used as %q in %s", a.ID, a.Wording, run),
					Actual:   fmt.Sprintf("%q", u.Wording),
				}
			}
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s used in %s", a.ID, run),
		Actual:   fmt.Sprintf("history %v", history),
	}
}

func assertArchived(r *Result, s *Scenario, a Assertion) error {
	for _, rec := range r.Archived {
		if rec.Label != s.Run {
			continue
		}
		if rec.Responses != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("run %s with %d responses", s.Run, a.Count),
				Actual:   fmt.Sprintf("%d responses", rec.Responses),
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: "run " + s.Run + " in archive", Actual: fmt.Sprintf("%d archived runs", len(r.Archived))}
}
