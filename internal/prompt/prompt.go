// Package prompt asks the operator whether an unknown question wording
// should be registered. Every confirmer satisfies engine.Confirmer.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// Confirmer answers yes/no questions. Same shape as engine.Confirmer.
type Confirmer interface {
	Confirm(ctx context.Context, title, detail string) (bool, error)
}

// New returns an interactive huh form when in is a terminal and a line
// confirmer reading from in otherwise.
func New(in io.Reader, out io.Writer) Confirmer {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return &Form{Input: f, Output: out}
	}
	return NewLine(in, out)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Form confirms with a huh confirm field.
type Form struct {
	Input  io.Reader
	Output io.Writer
}

func (f *Form) Confirm(ctx context.Context, title, detail string) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(title).
		Description(detail).
		Affirmative("Register").
		Negative("Skip").
		Value(&ok)
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(f.Input).
		WithOutput(f.Output)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, fmt.Errorf("confirmation aborted: %w", context.Canceled)
		}
		return false, err
	}
	return ok, nil
}

// Line reads y/yes (any case) as consent; anything else, including EOF, is
// a refusal.
type Line struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLine creates a Line confirmer. The reader is buffered once so several
// prompts can share piped input.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{r: bufio.NewReader(in), out: out}
}

func (l *Line) Confirm(ctx context.Context, title, detail string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintln(l.out, titleStyle.Render(title))
	if detail != "" {
		fmt.Fprintln(l.out, detailStyle.Render(detail))
	}
	fmt.Fprint(l.out, hintStyle.Render("[y/N] "))

	line, err := l.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(l.out)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Static gives the same answer to every question without prompting. It
// backs --yes and --no-input.
type Static struct {
	Answer bool
	// Asked counts the questions answered.
	Asked int
}

func (s *Static) Confirm(ctx context.Context, _, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.Asked++
	return s.Answer, nil
}
