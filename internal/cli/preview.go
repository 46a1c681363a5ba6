package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Width int
	Style string
}

// PreviewResult is the JSON output of preview.
type PreviewResult struct {
	Path     string `json:"path"`
	Rendered string `json:"rendered"`
}

func (r PreviewResult) String() string { return r.Rendered }

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <run> <area>",
		Short: "Render a generated report in the terminal",
		Long: `Render the document of one area of a run in the terminal.

Charts are shown as their image references. The style follows the terminal
background; output that is not a terminal is rendered without colors.

Example:
  surveykn preview 2024-05 North`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 80, "word wrap width")
	cmd.Flags().StringVar(&opts.Style, "style", "", "glamour style (dark, light, notty, ...)")

	return cmd
}

func runPreview(opts *PreviewOptions, run, area string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	root, err := openRoot(opts.RootOptions)
	if err != nil {
		return fail(formatter, "failed to open data root", err)
	}
	path := root.Document(run, area)
	src, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, "no such report", err)
	}

	renderer, err := glamour.NewTermRenderer(previewStyle(opts, cmd), glamour.WithWordWrap(opts.Width))
	if err != nil {
		return fail(formatter, "failed to create renderer", err)
	}
	out, err := renderer.Render(string(src))
	if err != nil {
		return fail(formatter, "failed to render report", fmt.Errorf("%s: %w", path, err))
	}
	return formatter.Success(PreviewResult{Path: path, Rendered: out})
}

func previewStyle(opts *PreviewOptions, cmd *cobra.Command) glamour.TermRendererOption {
	if opts.Style != "" {
		return glamour.WithStylePath(opts.Style)
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isatty.IsTerminal(f.Fd()) && opts.Format == "text" {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStylePath("notty")
}
