// Package questions implements the question store: the permanent registry
// mapping question identifiers to their current wording and to the wording
// used in every run that referenced them.
//
// Identifiers are allocated sequentially from "AAA". An identifier that has
// been used by a run (has history) can never be removed, which keeps past
// reports referentially intact.
package questions

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/surveykn/internal/ir"
)

var (
	// ErrCapacityExceeded is returned when every identifier has been allocated.
	ErrCapacityExceeded = errors.New("question store at full capacity")
	// ErrNotFound is returned for operations on an absent identifier.
	ErrNotFound = errors.New("question not in store")
	// ErrHasHistory is returned when deleting a question used by a past run.
	ErrHasHistory = errors.New("question has a usage history")
	// ErrDuplicateWording is returned when a wording is already the current
	// wording of another question.
	ErrDuplicateWording = errors.New("wording already registered")
)

// Count tracks allocated identifiers against the addressable space.
type Count struct {
	Current int `json:"current" yaml:"current"`
	Maximum int `json:"maximum" yaml:"maximum"`
}

// Entry is one registered question.
type Entry struct {
	Current string            `json:"current"`
	History map[string]string `json:"history,omitempty"` // run label -> wording used
}

// Question pairs an identifier with its entry for enumeration.
type Question struct {
	ID ir.QuestionID `json:"id"`
	Entry
}

// Store is the in-memory question store. The zero value is not usable; call
// New or Decode.
//
// INVARIANTS:
//   - Cursor has never been allocated
//   - Count.Current == len(entries) <= Count.Maximum
//   - entries holds exactly the ids in [AAA, Cursor)
type Store struct {
	Cursor  ir.QuestionID
	Count   Count
	entries map[ir.QuestionID]*Entry
}

// New returns an empty store sized to the full identifier space.
func New() *Store {
	return &Store{
		Cursor:  ir.MinQuestionID,
		Count:   Count{Current: 0, Maximum: ir.QuestionIDSpace},
		entries: make(map[ir.QuestionID]*Entry),
	}
}

// Clone returns a deep copy. Runs mutate a clone so a failed run leaves the
// loaded store untouched.
func (s *Store) Clone() *Store {
	c := &Store{
		Cursor:  s.Cursor,
		Count:   s.Count,
		entries: make(map[ir.QuestionID]*Entry, len(s.entries)),
	}
	for id, e := range s.entries {
		c.entries[id] = &Entry{Current: e.Current, History: maps.Clone(e.History)}
	}
	return c
}

// Register allocates the next identifier for wording. The wording is stored
// trimmed and NFC normalized.
func (s *Store) Register(wording string) (ir.QuestionID, error) {
	if s.Count.Current >= s.Count.Maximum {
		return "", fmt.Errorf("register %q: %w (%d/%d)", wording, ErrCapacityExceeded, s.Count.Current, s.Count.Maximum)
	}
	current := ir.CanonicalWording(wording)
	if owner, ok := s.owner(current); ok {
		return "", fmt.Errorf("register %q: %w as %s", current, ErrDuplicateWording, owner)
	}

	id := s.Cursor
	s.entries[id] = &Entry{Current: current}
	s.Count.Current++
	if s.Count.Current < ir.QuestionIDSpace {
		s.Cursor = ir.Increment(id)
	} else {
		// The final identifier is allocated; the cursor can only be rewound.
		s.Cursor = ""
	}
	return id, nil
}

// Remaining returns how many identifiers can still be registered.
func (s *Store) Remaining() int {
	return s.Count.Maximum - s.Count.Current
}

// RecordUsage records the wording id had in run. Recording the same run again
// overwrites that run's wording; Current is never touched.
func (s *Store) RecordUsage(id ir.QuestionID, run, wording string) error {
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("record usage of %s: %w", id, ErrNotFound)
	}
	if e.History == nil {
		e.History = make(map[string]string)
	}
	e.History[run] = wording
	return nil
}

// Edit replaces the current wording of id.
func (s *Store) Edit(id ir.QuestionID, wording string) error {
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("edit %s: %w", id, ErrNotFound)
	}
	current := ir.CanonicalWording(wording)
	if owner, ok := s.owner(current); ok && owner != id {
		return fmt.Errorf("edit %s: %w as %s", id, ErrDuplicateWording, owner)
	}
	e.Current = current
	return nil
}

// DeleteLast removes the most recently allocated question, provided no run
// has used it, and rewinds the cursor to it.
func (s *Store) DeleteLast() (ir.QuestionID, error) {
	id, ok := s.lastID()
	if !ok {
		return "", fmt.Errorf("delete last: %w", ErrNotFound)
	}
	e := s.entries[id]
	if len(e.History) > 0 {
		return "", fmt.Errorf("delete %s: %w (%d run(s))", id, ErrHasHistory, len(e.History))
	}
	delete(s.entries, id)
	s.Cursor = id
	s.Count.Current--
	return id, nil
}

// Get returns the entry for id.
func (s *Store) Get(id ir.QuestionID) (Entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{Current: e.Current, History: maps.Clone(e.History)}, true
}

// Wording returns the current wording of id.
func (s *Store) Wording(id ir.QuestionID) (string, bool) {
	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.Current, true
}

// Last returns the most recently allocated question.
func (s *Store) Last() (Question, bool) {
	id, ok := s.lastID()
	if !ok {
		return Question{}, false
	}
	e, _ := s.Get(id)
	return Question{ID: id, Entry: e}, true
}

// Len returns the number of registered questions.
func (s *Store) Len() int {
	return len(s.entries)
}

// ReverseLookup maps every current wording to its identifier. When two
// entries share a wording the later allocation wins; Duplicates reports such
// wordings.
func (s *Store) ReverseLookup() map[string]ir.QuestionID {
	out := make(map[string]ir.QuestionID, len(s.entries))
	for _, q := range s.All() {
		out[q.Current] = q.ID
	}
	return out
}

// Duplicates returns wordings held by more than one entry, mapped to the
// identifiers sharing them in allocation order.
func (s *Store) Duplicates() map[string][]ir.QuestionID {
	seen := make(map[string][]ir.QuestionID)
	for _, q := range s.All() {
		seen[q.Current] = append(seen[q.Current], q.ID)
	}
	for w, ids := range seen {
		if len(ids) < 2 {
			delete(seen, w)
		}
	}
	return seen
}

// All returns every question in allocation order.
func (s *Store) All() []Question {
	return s.First(s.Len())
}

// First returns up to n questions in allocation order, oldest first.
func (s *Store) First(n int) []Question {
	out := make([]Question, 0, min(n, s.Len()))
	for _, id := range s.ids() {
		if len(out) >= n {
			break
		}
		e, _ := s.Get(id)
		out = append(out, Question{ID: id, Entry: e})
	}
	return out
}

// LastN returns up to n questions newest first.
func (s *Store) LastN(n int) []Question {
	ids := s.ids()
	slices.Reverse(ids)
	out := make([]Question, 0, min(n, len(ids)))
	for _, id := range ids {
		if len(out) >= n {
			break
		}
		e, _ := s.Get(id)
		out = append(out, Question{ID: id, Entry: e})
	}
	return out
}

// Usage is one recorded use of a question.
type Usage struct {
	Run     string `json:"run"`
	Wording string `json:"wording"`
}

// History returns the recorded wordings of id ordered by run label.
func (s *Store) History(id ir.QuestionID) ([]Usage, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("history of %s: %w", id, ErrNotFound)
	}
	runs := slices.Sorted(maps.Keys(e.History))
	out := make([]Usage, len(runs))
	for i, run := range runs {
		out[i] = Usage{Run: run, Wording: e.History[run]}
	}
	return out, nil
}

// ids returns allocated identifiers in allocation order.
func (s *Store) ids() []ir.QuestionID {
	return slices.Sorted(maps.Keys(s.entries))
}

func (s *Store) lastID() (ir.QuestionID, bool) {
	if s.Count.Current == 0 {
		return "", false
	}
	if s.Cursor == "" {
		return ir.MaxQuestionID, true
	}
	return ir.Decrement(s.Cursor), true
}

func (s *Store) owner(wording string) (ir.QuestionID, bool) {
	for id, e := range s.entries {
		if e.Current == wording {
			return id, true
		}
	}
	return "", false
}
