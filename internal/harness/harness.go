package harness

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/dataroot"
	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/questions"
	"github.com/roach88/surveykn/internal/render"
	"github.com/roach88/surveykn/internal/store"
	"github.com/roach88/surveykn/internal/testutil"
)

// Epoch is the start of every scenario's stepping clock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory archive for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Load configuration, doctree, question store and survey
//  2. Load snapshots into the archive
//  3. Run synchronize, bind and assemble with scripted answers
//  4. Archive the run
//  5. Evaluate assertions
//
// Fixture problems are returned as errors. A run that fails or does not match
// its assertions is reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := compiler.LoadConfig(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	outline, err := compiler.LoadOutline(scenario.Doctree)
	if err != nil {
		return nil, fmt.Errorf("load doctree: %w", err)
	}
	qs := questions.New()
	if scenario.Store != "" {
		if qs, err = questions.Load(scenario.Store); err != nil {
			return nil, fmt.Errorf("load store: %w", err)
		}
	}
	survey, err := dataroot.ReadCSV(scenario.Survey)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}

	archive, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory archive: %w", err)
	}
	defer archive.Close()

	for id, path := range scenario.Snapshots {
		d, err := dataroot.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", id, err)
		}
		if err := archive.SaveSnapshot(ctx, id, d, Epoch); err != nil {
			return nil, fmt.Errorf("archive snapshot %s: %w", id, err)
		}
	}

	confirmer := testutil.Scripted(scenario.Answers...)
	confirmer.Default = scenario.DefaultAnswer
	runner := engine.NewRunner(confirmer, render.SVG{},
		func(string) engine.Document { return render.NewMarkdown() },
		engine.WithSnapshots(archive),
		engine.WithRunIDs(engine.NewFixedGenerator("run-"+scenario.Name)),
		engine.WithClock(testutil.NewSteppingClock(Epoch, time.Second)),
		engine.WithLogger(zap.NewNop()),
	)

	result := NewResult()
	res, err := runner.Run(ctx, engine.RunInput{
		Label:   scenario.Run,
		Outline: outline,
		Dataset: survey,
		Store:   qs,
		Config:  cfg,
	})
	if err != nil {
		result.ErrorCode = string(engine.CodeOf(err))
		switch {
		case scenario.ExpectError == "":
			result.AddError(fmt.Sprintf("run failed: %v", err))
		case result.ErrorCode != scenario.ExpectError:
			result.AddError(fmt.Sprintf("expected run to fail with %s, got: %v", scenario.ExpectError, err))
		}
		return result, nil
	}
	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected run to fail with %s, but it succeeded", scenario.ExpectError))
	}

	if err := archive.Archive(ctx, res.Record, res.Bound); err != nil {
		return nil, fmt.Errorf("archive run: %w", err)
	}
	if result.Archived, err = archive.ListRuns(ctx, ""); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	result.RunID = res.Record.ID
	result.Store = res.Store
	result.Columns = res.Bound.Columns
	for _, reg := range res.Sync.Registered {
		result.Registered = append(result.Registered, string(reg.ID))
	}
	result.Declined = append(result.Declined, res.Sync.Declined...)
	for _, area := range res.Areas {
		result.Areas = append(result.Areas, area.Area)
		if doc, ok := area.Document.(*render.Markdown); ok {
			result.Documents[area.Area] = doc.String()
		}
		names := []string{}
		for _, art := range area.Artifacts {
			names = append(names, art.Name)
		}
		result.Charts[area.Area] = names
	}

	for _, msg := range EvaluateAssertions(result, scenario) {
		result.AddError(msg)
	}
	return result, nil
}
