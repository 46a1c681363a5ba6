package engine

import (
	"fmt"

	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// BoundColumn records one column renamed to an identifier.
type BoundColumn struct {
	Raw     string
	Wording string
	ID      ir.QuestionID
}

// Bind renames the columns of raw from question wordings to identifiers.
//
// Every header is stripped of its ordinal prefix ("2) ") and canonicalized.
// Headers found in lookup become identifiers and the wording is recorded as
// the question's usage in run; all other headers stay as their stripped
// wording. Column order is preserved and raw is not modified: the bound
// dataset has its own column slice and shares rows read-only.
func Bind(raw *ir.Dataset, lookup map[string]ir.QuestionID, store *questions.Store, run string) (*ir.Dataset, []BoundColumn, error) {
	columns := make([]string, len(raw.Columns))
	var bound []BoundColumn
	owner := make(map[ir.QuestionID]string)

	for i, header := range raw.Columns {
		w := ir.CanonicalColumn(header)
		id, ok := lookup[w]
		if !ok {
			columns[i] = w
			continue
		}
		if prev, dup := owner[id]; dup {
			return nil, nil, &RuntimeError{
				Code:       ErrCodeDuplicateColumn,
				Message:    fmt.Sprintf("columns %q and %q both resolve to one question", prev, header),
				QuestionID: id,
				Column:     header,
			}
		}
		owner[id] = header
		columns[i] = string(id)
		bound = append(bound, BoundColumn{Raw: header, Wording: w, ID: id})
	}

	for _, b := range bound {
		if err := store.RecordUsage(b.ID, run, b.Wording); err != nil {
			return nil, nil, FromStoreError(err, b.ID)
		}
	}
	return &ir.Dataset{Columns: columns, Rows: raw.Rows}, bound, nil
}
