package ir

import "slices"

// Node is one node of a report outline. The set of node kinds is closed:
// *Group, *Leaf and *CommentBlock.
type Node interface {
	outlineNode()
}

// Section is a labelled child of a Group. Sections keep declaration order.
type Section struct {
	Label string `json:"label"`
	Node  Node   `json:"node"`
}

// Group is a nested outline: an ordered list of uniquely labelled sections.
type Group struct {
	Sections []Section `json:"sections"`
}

// Leaf is a question group. Before resolution Questions holds raw wordings;
// after resolution it holds question identifiers. Comments names free-text
// dataset columns and is never resolved.
type Leaf struct {
	Questions []string `json:"questions"`
	Comments  []string `json:"comments,omitempty"`
}

// CommentBlock is a "Comments" entry declared directly inside a group.
type CommentBlock struct {
	Fields []string `json:"fields"`
}

func (*Group) outlineNode()        {}
func (*Leaf) outlineNode()         {}
func (*CommentBlock) outlineNode() {}

// Outline is the root of a report outline (the doctree).
type Outline = Group

// QuestionIDs returns the leaf's questions as identifiers. Only meaningful on
// a resolved outline.
func (l *Leaf) QuestionIDs() []QuestionID {
	ids := make([]QuestionID, len(l.Questions))
	for i, q := range l.Questions {
		ids[i] = QuestionID(q)
	}
	return ids
}

// Walk visits every section depth-first in declaration order. path holds the
// labels from the root down to and including the visited section.
func Walk(g *Group, fn func(path []string, n Node)) {
	walk(g, nil, fn)
}

func walk(g *Group, prefix []string, fn func([]string, Node)) {
	for _, s := range g.Sections {
		path := append(append([]string(nil), prefix...), s.Label)
		fn(path, s.Node)
		if child, ok := s.Node.(*Group); ok {
			walk(child, path, fn)
		}
	}
}

// CloneOutline returns a deep copy of g.
func CloneOutline(g *Group) *Group {
	if g == nil {
		return nil
	}
	out := &Group{Sections: make([]Section, len(g.Sections))}
	for i, s := range g.Sections {
		out.Sections[i] = Section{Label: s.Label, Node: cloneNode(s.Node)}
	}
	return out
}

func cloneNode(n Node) Node {
	switch v := n.(type) {
	case *Group:
		return CloneOutline(v)
	case *Leaf:
		return &Leaf{
			Questions: slices.Clone(v.Questions),
			Comments:  slices.Clone(v.Comments),
		}
	case *CommentBlock:
		return &CommentBlock{Fields: slices.Clone(v.Fields)}
	default:
		return nil
	}
}
