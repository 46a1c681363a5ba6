// Package render implements the document and chart collaborators of a run:
// a Markdown document and SVG pie and stacked bar charts.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Markdown is a report document rendered as CommonMark. Headings are shifted
// one level down so the document title is the only level-one heading.
type Markdown struct {
	buf    bytes.Buffer
	inList bool
}

// NewMarkdown returns an empty document.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

func (m *Markdown) Title(text string) {
	m.block("# " + inline(text))
}

func (m *Markdown) Heading(level int, text string) {
	level = max(1, min(level, 5))
	m.block(strings.Repeat("#", level+1) + " " + inline(text))
}

// Paragraph writes text; embedded newlines become hard line breaks.
func (m *Markdown) Paragraph(text string) {
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = escape(l)
	}
	m.block(strings.Join(lines, "  \n"))
}

func (m *Markdown) Image(ref, alt string) {
	if strings.ContainsAny(ref, " ()") {
		ref = "<" + ref + ">"
	}
	m.block(fmt.Sprintf("![%s](%s)", inline(alt), ref))
}

func (m *Markdown) Bullet(text string) {
	m.inList = true
	m.buf.WriteString("- " + inline(text) + "\n")
}

// block writes a block element separated from the previous one by a blank line.
func (m *Markdown) block(s string) {
	if m.inList {
		m.buf.WriteString("\n")
		m.inList = false
	}
	m.buf.WriteString(s)
	m.buf.WriteString("\n\n")
}

// Bytes returns the document. A trailing list is terminated.
func (m *Markdown) Bytes() []byte {
	out := bytes.TrimRight(m.buf.Bytes(), "\n")
	return append(append([]byte(nil), out...), '\n')
}

func (m *Markdown) String() string {
	return string(m.Bytes())
}

// WriteFile writes the document to path.
func (m *Markdown) WriteFile(path string) error {
	return os.WriteFile(path, m.Bytes(), 0o644)
}

// inline flattens text onto one line and escapes it.
func inline(text string) string {
	return escape(strings.Join(strings.Fields(text), " "))
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
)

func escape(s string) string {
	return escaper.Replace(s)
}
