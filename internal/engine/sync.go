package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// Confirmer is the blocking yes/no decision primitive. Confirm returns only
// once an answer is available; there is no timeout.
type Confirmer interface {
	Confirm(ctx context.Context, title, detail string) (bool, error)
}

// PendingDecision is an unknown wording awaiting a register/decline answer.
// Paths lists every outline location referencing it, in walk order.
type PendingDecision struct {
	Wording string
	Paths   [][]string
}

// Plan is the pure result of resolving an outline against a reverse lookup.
//
// INVARIANTS:
//   - every leaf question in outline is canonical and unique within its leaf
//   - every leaf question is a key of known or the wording of exactly one
//     pending decision, never both
//   - Pending is in first-appearance order
type Plan struct {
	outline *ir.Outline
	known   map[string]ir.QuestionID
	Pending []PendingDecision
}

// Known returns the identifier a referenced wording already resolves to.
func (p *Plan) Known(wording string) (ir.QuestionID, bool) {
	id, ok := p.known[wording]
	return id, ok
}

// Decisions maps a pending wording to the operator's answer. A wording with
// no entry is declined.
type Decisions map[string]bool

// Registration is one identifier allocated during synchronization.
type Registration struct {
	ID      ir.QuestionID
	Wording string
}

// SyncResult is the output of applying a plan.
type SyncResult struct {
	// Outline is the resolved outline: leaf questions are identifiers.
	Outline *ir.Outline

	// Lookup is the run-scoped reverse lookup: every wording this outline
	// referenced that resolved, mapped to its identifier.
	Lookup map[string]ir.QuestionID

	Registered []Registration
	Declined   []string
}

// Resolve walks the outline depth-first in declaration order and classifies
// every question reference as known (present in reverse) or pending. It does
// not touch the question store or the input outline.
func Resolve(outline *ir.Outline, reverse map[string]ir.QuestionID) *Plan {
	p := &Plan{
		outline: ir.CloneOutline(outline),
		known:   make(map[string]ir.QuestionID),
	}
	pending := make(map[string]int)

	ir.Walk(p.outline, func(path []string, n ir.Node) {
		leaf, ok := n.(*ir.Leaf)
		if !ok {
			return
		}
		seen := make(map[string]bool, len(leaf.Questions))
		kept := leaf.Questions[:0]
		for _, raw := range leaf.Questions {
			w := ir.CanonicalWording(raw)
			if seen[w] {
				continue
			}
			seen[w] = true
			kept = append(kept, w)

			if id, ok := reverse[w]; ok {
				p.known[w] = id
				continue
			}
			if i, ok := pending[w]; ok {
				p.Pending[i].Paths = append(p.Pending[i].Paths, path)
				continue
			}
			pending[w] = len(p.Pending)
			p.Pending = append(p.Pending, PendingDecision{Wording: w, Paths: [][]string{path}})
		}
		leaf.Questions = kept
	})
	return p
}

// Decide asks c about every pending decision, in order. Cancellation of ctx
// aborts between questions.
func Decide(ctx context.Context, plan *Plan, c Confirmer) (Decisions, error) {
	d := make(Decisions, len(plan.Pending))
	for _, pd := range plan.Pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := c.Confirm(ctx, confirmTitle(pd), confirmDetail(pd))
		if err != nil {
			return nil, fmt.Errorf("confirm %q: %w", pd.Wording, err)
		}
		d[pd.Wording] = ok
	}
	return d, nil
}

func confirmTitle(pd PendingDecision) string {
	return fmt.Sprintf("%q is not in the question store. Register it now?", pd.Wording)
}

func confirmDetail(pd PendingDecision) string {
	var b strings.Builder
	b.WriteString("Unregistered questions are left out of this run's reports.\nReferenced by:")
	for _, p := range pd.Paths {
		b.WriteString("\n  ")
		b.WriteString(strings.Join(p, " > "))
	}
	return b.String()
}

// Apply registers every confirmed wording and builds the resolved outline.
//
// Capacity is checked for the whole batch first: if the confirmed wordings do
// not fit, Apply fails with CAPACITY_EXCEEDED and the store is untouched.
// Declined references are dropped; their leaves keep their labels.
func Apply(plan *Plan, decisions Decisions, store *questions.Store) (*SyncResult, error) {
	var confirmed []string
	res := &SyncResult{Lookup: make(map[string]ir.QuestionID, len(plan.known))}
	for _, pd := range plan.Pending {
		if decisions[pd.Wording] {
			confirmed = append(confirmed, pd.Wording)
		} else {
			res.Declined = append(res.Declined, pd.Wording)
		}
	}
	if len(confirmed) > store.Remaining() {
		return nil, NewCapacityError(len(confirmed), store.Remaining())
	}

	for w, id := range plan.known {
		res.Lookup[w] = id
	}
	for _, w := range confirmed {
		id, err := store.Register(w)
		if err != nil {
			return nil, FromStoreError(err, "")
		}
		res.Lookup[w] = id
		res.Registered = append(res.Registered, Registration{ID: id, Wording: w})
	}

	res.Outline = ir.CloneOutline(plan.outline)
	ir.Walk(res.Outline, func(_ []string, n ir.Node) {
		leaf, ok := n.(*ir.Leaf)
		if !ok {
			return
		}
		ids := make([]string, 0, len(leaf.Questions))
		for _, w := range leaf.Questions {
			if id, ok := res.Lookup[w]; ok {
				ids = append(ids, string(id))
			}
		}
		leaf.Questions = ids
	})
	return res, nil
}

// Synchronize resolves outline against store, asks c about unknown wordings
// and applies the answers. The store is mutated only by Apply.
func Synchronize(ctx context.Context, outline *ir.Outline, store *questions.Store, c Confirmer) (*SyncResult, error) {
	plan := Resolve(outline, store.ReverseLookup())
	decisions, err := Decide(ctx, plan, c)
	if err != nil {
		return nil, err
	}
	return Apply(plan, decisions, store)
}
