package questions

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/surveykn/internal/ir"
)

// Reserved top-level keys of the store file. Every other top-level key is a
// question identifier.
const (
	keyCursor  = "NEXTINLINE"
	keyCount   = "COUNT"
	keyCurrent = "current"
	keyMaximum = "maximum"
)

// DecodeError describes a malformed store document.
type DecodeError struct {
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("question store line %d: %s", e.Line, e.Message)
	}
	return "question store: " + e.Message
}

// Load reads a store from path.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question store: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path. The file is replaced atomically so a crash never
// leaves a truncated store behind.
func (s *Store) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".question-store-*.yml")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace question store: %w", err)
	}
	return nil
}

// Encode writes s as YAML in a deterministic order: NEXTINLINE, COUNT, then
// identifiers ascending. Within an entry "current" comes first followed by run
// labels ascending.
func (s *Store) Encode(w io.Writer) error {
	root := &yaml.Node{Kind: yaml.MappingNode}

	root.Content = append(root.Content, scalar(keyCursor), scalar(string(s.Cursor)))

	count := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	count.Content = append(count.Content,
		scalar(keyCurrent), intScalar(s.Count.Current),
		scalar(keyMaximum), intScalar(s.Count.Maximum),
	)
	root.Content = append(root.Content, scalar(keyCount), count)

	for _, q := range s.All() {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		entry.Content = append(entry.Content, scalar(keyCurrent), scalar(q.Current))
		for _, u := range mustHistory(s, q.ID) {
			entry.Content = append(entry.Content, scalar(u.Run), scalar(u.Wording))
		}
		root.Content = append(root.Content, scalar(string(q.ID)), entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return fmt.Errorf("encode question store: %w", err)
	}
	return enc.Close()
}

// Decode reads a store document and checks its structural invariants.
func Decode(r io.Reader) (*Store, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("parse question store: %w", err)
	}
	if len(doc.Content) == 0 {
		return New(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &DecodeError{Line: root.Line, Message: "top level must be a mapping"}
	}

	s := &Store{entries: make(map[ir.QuestionID]*Entry)}
	var sawCursor, sawCount bool

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		switch k.Value {
		case keyCursor:
			sawCursor = true
			if v.Tag == "!!null" || v.Value == "" {
				s.Cursor = ""
				continue
			}
			id, err := ir.ParseQuestionID(v.Value)
			if err != nil {
				return nil, &DecodeError{Line: v.Line, Message: err.Error()}
			}
			s.Cursor = id
		case keyCount:
			sawCount = true
			if err := v.Decode(&s.Count); err != nil {
				return nil, &DecodeError{Line: v.Line, Message: "COUNT: " + err.Error()}
			}
		default:
			id, err := ir.ParseQuestionID(k.Value)
			if err != nil {
				return nil, &DecodeError{Line: k.Line, Message: err.Error()}
			}
			if _, dup := s.entries[id]; dup {
				return nil, &DecodeError{Line: k.Line, Message: fmt.Sprintf("duplicate entry %s", id)}
			}
			e, err := decodeEntry(v)
			if err != nil {
				return nil, err
			}
			s.entries[id] = e
		}
	}

	if !sawCursor || !sawCount {
		return nil, &DecodeError{Message: "missing NEXTINLINE or COUNT"}
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeEntry(v *yaml.Node) (*Entry, error) {
	if v.Kind != yaml.MappingNode {
		return nil, &DecodeError{Line: v.Line, Message: "entry must be a mapping"}
	}
	e := &Entry{}
	var sawCurrent bool
	for i := 0; i+1 < len(v.Content); i += 2 {
		k, val := v.Content[i], v.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, &DecodeError{Line: val.Line, Message: fmt.Sprintf("%s must be a string", k.Value)}
		}
		if k.Value == keyCurrent {
			sawCurrent = true
			e.Current = ir.CanonicalWording(val.Value)
			continue
		}
		if e.History == nil {
			e.History = make(map[string]string)
		}
		e.History[k.Value] = val.Value
	}
	if !sawCurrent {
		return nil, &DecodeError{Line: v.Line, Message: "entry has no current wording"}
	}
	return e, nil
}

// check verifies the allocation invariants of a decoded store.
func (s *Store) check() error {
	if s.Count.Maximum <= 0 || s.Count.Maximum > ir.QuestionIDSpace {
		return &DecodeError{Message: fmt.Sprintf("COUNT.maximum %d outside (0, %d]", s.Count.Maximum, ir.QuestionIDSpace)}
	}
	if s.Count.Current > s.Count.Maximum {
		return &DecodeError{Message: fmt.Sprintf("COUNT.current %d exceeds maximum %d", s.Count.Current, s.Count.Maximum)}
	}
	if s.Count.Current != len(s.entries) {
		return &DecodeError{Message: fmt.Sprintf("COUNT.current is %d but %d entries are present", s.Count.Current, len(s.entries))}
	}

	ids := s.ids()
	for i, id := range ids {
		if ir.Ordinal(id) != i {
			return &DecodeError{Message: fmt.Sprintf("entries are not contiguous from %s: found %s at position %d", ir.MinQuestionID, id, i)}
		}
	}

	var want ir.QuestionID
	switch {
	case len(ids) == 0:
		want = ir.MinQuestionID
	case len(ids) == ir.QuestionIDSpace:
		want = ""
	default:
		want = ir.Increment(ids[len(ids)-1])
	}
	if s.Cursor != want {
		return &DecodeError{Message: fmt.Sprintf("NEXTINLINE is %q, want %q", s.Cursor, want)}
	}
	return nil
}

func mustHistory(s *Store, id ir.QuestionID) []Usage {
	h, _ := s.History(id)
	return h
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func intScalar(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(v)}
}
