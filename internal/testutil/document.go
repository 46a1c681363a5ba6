package testutil

import (
	"fmt"
	"strings"
)

// RecordingDocument records report elements as one line each, for example
// "H2 Pizza" or "IMG AAA-D.svg | Do you like pizza?".
//
// It satisfies engine.Document.
type RecordingDocument struct {
	Lines []string
}

func (d *RecordingDocument) Title(text string) {
	d.add("TITLE " + text)
}

func (d *RecordingDocument) Heading(level int, text string) {
	d.add(fmt.Sprintf("H%d %s", level, text))
}

func (d *RecordingDocument) Paragraph(text string) {
	d.add("P " + strings.ReplaceAll(text, "\n", " / "))
}

func (d *RecordingDocument) Image(ref, alt string) {
	d.add("IMG " + ref + " | " + alt)
}

func (d *RecordingDocument) Bullet(text string) {
	d.add("- " + text)
}

func (d *RecordingDocument) add(line string) {
	d.Lines = append(d.Lines, line)
}

// String returns the recorded lines joined by newlines.
func (d *RecordingDocument) String() string {
	return strings.Join(d.Lines, "\n")
}

// Count returns how many recorded lines start with prefix.
func (d *RecordingDocument) Count(prefix string) int {
	n := 0
	for _, l := range d.Lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
