package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/surveykn/internal/ir"
)

// Reserved outline keys.
const (
	KeyQuestions = "Questions"
	KeyComments  = "Comments"
)

// LoadOutline reads and compiles a doctree file.
func LoadOutline(path string) (*ir.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read doctree: %w", err)
	}
	return CompileOutline(data, path)
}

// CompileOutline parses a YAML doctree into an outline.
//
// Node kinds are decided here, once: a mapping holding the "Questions" key is
// a leaf, a "Comments" key whose value is a list is a comment block, and any
// other mapping is a group. Sibling order is declaration order.
func CompileOutline(data []byte, filename string) (*ir.Outline, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "doctree", Message: "doctree is empty", File: filename}
		}
		return nil, fmt.Errorf("parse doctree %s: %w", filename, err)
	}
	c := &outlineCompiler{file: filename}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, c.errorf(root, nil, ErrOutlineShape, "doctree must be a mapping of section labels")
	}
	g, err := c.group(root, nil)
	if err != nil {
		return nil, err
	}
	if len(g.Sections) == 0 {
		return nil, c.errorf(root, nil, ErrEmptyOutline, "doctree has no sections")
	}
	return g, nil
}

type outlineCompiler struct {
	file string
}

func (c *outlineCompiler) group(n *yaml.Node, path []string) (*ir.Group, error) {
	g := &ir.Group{}
	seen := make(map[string]bool)

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		label := strings.TrimSpace(k.Value)
		here := append(append([]string(nil), path...), label)

		if seen[label] {
			return nil, c.errorf(k, here, ErrDuplicateLabel, fmt.Sprintf("duplicate section %q", label))
		}
		seen[label] = true

		node, err := c.node(label, v, here)
		if err != nil {
			return nil, err
		}
		g.Sections = append(g.Sections, ir.Section{Label: label, Node: node})
	}
	return g, nil
}

func (c *outlineCompiler) node(label string, v *yaml.Node, path []string) (ir.Node, error) {
	switch {
	case label == KeyComments && v.Kind == yaml.SequenceNode:
		fields, err := c.list(v, path)
		if err != nil {
			return nil, err
		}
		return &ir.CommentBlock{Fields: fields}, nil
	case v.Kind == yaml.MappingNode && hasKey(v, KeyQuestions):
		return c.leaf(v, path)
	case v.Kind == yaml.MappingNode:
		return c.group(v, path)
	case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
		// A bare label is an empty group: a heading with no content.
		return &ir.Group{}, nil
	default:
		return nil, c.errorf(v, path, ErrOutlineShape, "section must be a mapping")
	}
}

func (c *outlineCompiler) leaf(n *yaml.Node, path []string) (*ir.Leaf, error) {
	l := &ir.Leaf{Questions: []string{}}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case KeyQuestions:
			qs, err := c.list(v, append(path, KeyQuestions))
			if err != nil {
				return nil, err
			}
			for j, q := range qs {
				if q == "" {
					return nil, c.errorf(v.Content[j], path, ErrEmptyQuestion, "question wording is blank")
				}
			}
			l.Questions = qs
		case KeyComments:
			fields, err := c.list(v, append(path, KeyComments))
			if err != nil {
				return nil, err
			}
			l.Comments = fields
		default:
			return nil, c.errorf(k, path, ErrUnknownLeafKey,
				fmt.Sprintf("unexpected key %q in question group (want %s or %s)", k.Value, KeyQuestions, KeyComments))
		}
	}
	return l, nil
}

// list reads a list of scalars, trimmed. A null value is an empty list.
func (c *outlineCompiler) list(n *yaml.Node, path []string) ([]string, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return []string{}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, c.errorf(n, path, ErrOutlineShape, "must be a list")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, c.errorf(item, path, ErrOutlineShape, "list items must be strings")
		}
		out = append(out, strings.TrimSpace(item.Value))
	}
	return out, nil
}

func (c *outlineCompiler) errorf(n *yaml.Node, path []string, code, msg string) error {
	field := "doctree"
	if len(path) > 0 {
		field = strings.Join(path, " > ")
	}
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf("[%s] %s", code, msg),
		File:    c.file,
		Line:    n.Line,
		Column:  n.Column,
	}
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}
