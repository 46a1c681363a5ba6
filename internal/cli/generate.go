package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/surveykn/internal/dataroot"
	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/prompt"
	"github.com/roach88/surveykn/internal/render"
	"github.com/roach88/surveykn/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Run         string
	Yes         bool
	NoInput     bool
	MetricsFile string

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Clock overrides the wall clock (for testing).
	Clock engine.Clock
}

// GenerateResult summarizes a completed run.
type GenerateResult struct {
	Run        string        `json:"run"`
	RunID      string        `json:"run_id"`
	Registered []string      `json:"registered"`
	Declined   []string      `json:"declined"`
	Responses  int           `json:"responses"`
	Areas      []AreaSummary `json:"areas"`
}

// AreaSummary describes one written report.
type AreaSummary struct {
	Area      string `json:"area"`
	Responses int    `json:"responses"`
	Charts    int    `json:"charts"`
	Comments  int    `json:"comments"`
	Document  string `json:"document"`
}

func (r GenerateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s): %d response(s)\n", r.Run, r.RunID, r.Responses)
	if len(r.Registered) > 0 {
		fmt.Fprintf(&b, "Registered: %s\n", strings.Join(r.Registered, ", "))
	}
	if len(r.Declined) > 0 {
		fmt.Fprintf(&b, "Left out: %d question(s)\n", len(r.Declined))
	}
	for _, a := range r.Areas {
		fmt.Fprintf(&b, "  %-12s %3d response(s) %3d chart(s) %3d comment(s)  %s\n",
			a.Area, a.Responses, a.Charts, a.Comments, a.Document)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <survey.csv>",
		Short: "Generate the reports of one survey run",
		Long: `Generate one report per area from a survey export.

The doctree is synchronized with the question store first: every question
not yet registered is shown and you decide whether to register it. Declined
questions are left out of this run. The survey's columns are then renamed to
question identifiers and each area's document is assembled with its charts.

Nothing is written unless the whole run succeeds. A successful run writes:
  Surveys/<run>.csv             the bound survey
  Surveys/<run>-original.csv    the input as given
  Visuals/<run>/<area>/*.svg    charts
  Templates/<run>/<area>.md     documents
and records the run in the archive.

Example:
  surveykn generate --run 2024-05 ~/Downloads/export.csv
  surveykn generate --run 2024-05 --yes export.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Run, "run", "", "run label, YYYY-MM (required)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "register every unknown question without asking")
	cmd.Flags().BoolVar(&opts.NoInput, "no-input", false, "leave every unknown question out without asking")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	_ = cmd.MarkFlagRequired("run")
	cmd.MarkFlagsMutuallyExclusive("yes", "no-input")

	return cmd
}

func runGenerate(opts *GenerateOptions, csvPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger().With(zap.String("run", opts.Run))

	if _, err := engine.RunMonth(opts.Run); err != nil {
		return fail(formatter, "invalid run label",
			&LoadError{Code: ErrCodeInvalidArgs, Message: fmt.Sprintf("%q is not YYYY-MM", opts.Run), Err: err})
	}

	ws, err := loadWorkspace(opts.RootOptions)
	if err != nil {
		return fail(formatter, "failed to load data root", err)
	}
	survey, err := dataroot.ReadCSV(csvPath)
	if err != nil {
		return fail(formatter, "failed to read survey", err)
	}
	log.Debug("loaded survey", zap.String("path", csvPath),
		zap.Int("columns", len(survey.Columns)), zap.Int("rows", survey.Len()))

	archive, err := store.Open(ws.Root.Archive())
	if err != nil {
		return fail(formatter, "failed to open archive", err)
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			log.Error("error closing archive", zap.Error(closeErr))
		}
	}()

	var confirmer engine.Confirmer
	switch {
	case opts.Yes:
		confirmer = &prompt.Static{Answer: true}
	case opts.NoInput:
		confirmer = &prompt.Static{Answer: false}
	default:
		confirmer = prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	runnerOpts := []engine.RunnerOption{
		engine.WithSnapshots(dataroot.Chain{archive, dataroot.CSVSnapshots{Root: ws.Root}}),
		engine.WithLogger(log),
		engine.WithImageRef(dataroot.ImageRef(opts.Run)),
	}
	if opts.RunIDs != nil {
		runnerOpts = append(runnerOpts, engine.WithRunIDs(opts.RunIDs))
	}
	if opts.Clock != nil {
		runnerOpts = append(runnerOpts, engine.WithClock(opts.Clock))
	}
	runner := engine.NewRunner(confirmer, render.SVG{},
		func(string) engine.Document { return render.NewMarkdown() },
		runnerOpts...)

	ctx, stop := signalContext(cmd)
	defer stop()

	res, err := runner.Run(ctx, engine.RunInput{
		Label:   opts.Run,
		Outline: ws.Outline,
		Dataset: survey,
		Store:   ws.Store,
		Config:  ws.Config,
	})
	if err != nil {
		return fail(formatter, "run failed, nothing was written", err)
	}

	if err := persist(ctx, ws, archive, res, csvPath); err != nil {
		return fail(formatter, "failed to write run output", err)
	}
	log.Info("run complete", zap.String("run_id", res.Record.ID))

	if opts.MetricsFile != "" {
		if err := runner.Metrics().WriteFile(opts.MetricsFile); err != nil {
			return fail(formatter, "failed to write metrics",
				&LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err})
		}
	}

	return formatter.Success(summarize(ws, res))
}

// signalContext cancels on SIGINT or SIGTERM. The command's context is used
// as parent when set (for testing).
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// persist writes a successful run to the data root. The question store is
// saved first so identifiers are never lost, then the run's files, then the
// archive record.
func persist(ctx context.Context, ws *Workspace, archive *store.Store, res *engine.RunResult, csvPath string) error {
	run := res.Record.Label
	root := ws.Root

	if err := res.Store.Save(root.QuestionStore()); err != nil {
		return writeErr(err)
	}
	if err := dataroot.WriteCSV(root.Survey(run), res.Bound); err != nil {
		return writeErr(err)
	}
	if err := dataroot.CopyFile(csvPath, root.OriginalSurvey(run)); err != nil {
		return writeErr(err)
	}
	for _, src := range []string{ws.ConfigPath, ws.DoctreePath} {
		if err := dataroot.CopyFile(src, filepath.Join(root.Templates(run), filepath.Base(src))); err != nil {
			return writeErr(err)
		}
	}
	for _, area := range res.Areas {
		for _, art := range area.Artifacts {
			if err := dataroot.WriteFile(filepath.Join(root.Visuals(run, area.Area), art.Name), art.Data); err != nil {
				return writeErr(err)
			}
		}
		doc, ok := area.Document.(interface{ Bytes() []byte })
		if !ok {
			return fmt.Errorf("document of %s cannot be serialized", area.Area)
		}
		if err := dataroot.WriteFile(root.Document(run, area.Area), doc.Bytes()); err != nil {
			return writeErr(err)
		}
	}
	return archive.Archive(ctx, res.Record, res.Bound)
}

func writeErr(err error) error {
	return &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err}
}

func summarize(ws *Workspace, res *engine.RunResult) GenerateResult {
	out := GenerateResult{
		Run:        res.Record.Label,
		RunID:      res.Record.ID,
		Registered: []string{},
		Declined:   res.Record.Declined,
		Responses:  res.Record.Responses,
	}
	for _, id := range res.Record.Registered {
		out.Registered = append(out.Registered, string(id))
	}
	for _, a := range res.Areas {
		out.Areas = append(out.Areas, AreaSummary{
			Area:      a.Area,
			Responses: a.Responses,
			Charts:    len(a.Artifacts),
			Comments:  a.Comments,
			Document:  ws.Root.Document(res.Record.Label, a.Area),
		})
	}
	return out
}
