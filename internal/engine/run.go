package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// DocumentFactory creates the document of one area.
type DocumentFactory func(area string) Document

// RunInput is everything one generation run reads. None of it is mutated.
type RunInput struct {
	Label   string
	Outline *ir.Outline
	Dataset *ir.Dataset
	Store   *questions.Store
	Config  *compiler.Config
}

// AreaOutput pairs an area's report with its finished document.
type AreaOutput struct {
	AreaReport
	Document Document
}

// RunResult is the in-memory outcome of a successful run. The caller
// persists it; a failed run returns no result and leaves nothing to persist.
type RunResult struct {
	Record  ir.RunRecord
	Store   *questions.Store
	Sync    *SyncResult
	Bound   *ir.Dataset
	Columns []BoundColumn
	Areas   []AreaOutput
}

// Runner executes the three passes of a run in order: synchronize the
// outline, bind the dataset, assemble one document per area.
//
// The Runner is single-threaded. Each pass consumes the previous pass's
// output; the interactive confirmation of the first pass blocks the run.
type Runner struct {
	confirmer Confirmer
	charts    ChartRenderer
	documents DocumentFactory
	snapshots SnapshotSource
	ids       RunIDGenerator
	clock     Clock
	logger    *zap.Logger
	metrics   *Metrics
	imageRef  func(area, name string) string
}

// RunnerOption allows configuration of runner collaborators.
type RunnerOption func(*Runner)

// WithSnapshots sets the source of historical snapshots.
func WithSnapshots(s SnapshotSource) RunnerOption {
	return func(r *Runner) { r.snapshots = s }
}

// WithRunIDs sets the run id generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) RunnerOption {
	return func(r *Runner) { r.ids = g }
}

// WithClock sets the wall clock. Default: SystemClock.
func WithClock(c Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics sink. Default: a fresh private registry.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithImageRef sets how documents reference chart artifacts.
func WithImageRef(f func(area, name string) string) RunnerOption {
	return func(r *Runner) { r.imageRef = f }
}

// NewRunner creates a Runner. confirmer, charts and documents are required.
func NewRunner(confirmer Confirmer, charts ChartRenderer, documents DocumentFactory, opts ...RunnerOption) *Runner {
	r := &Runner{
		confirmer: confirmer,
		charts:    charts,
		documents: documents,
		ids:       UUIDv7Generator{},
		clock:     SystemClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics()
	}
	return r
}

// Metrics returns the runner's metrics.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run executes one generation run against a clone of in.Store.
func (r *Runner) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	started := r.clock.Now()
	date, err := DocumentDate(in.Label, in.Config.Document.Today, r.clock)
	if err != nil {
		return nil, fmt.Errorf("run label %q: want YYYY-MM: %w", in.Label, err)
	}
	log := r.logger.With(zap.String("run", in.Label))
	store := in.Store.Clone()

	for w, ids := range store.Duplicates() {
		log.Warn("several questions share one wording, the newest wins",
			zap.String("wording", w), zap.Any("ids", ids))
	}

	// Pass 1: synchronize.
	synced, err := Synchronize(ctx, in.Outline, store, r.confirmer)
	if err != nil {
		return nil, err
	}
	for _, reg := range synced.Registered {
		log.Info("registered question", zap.String("id", string(reg.ID)), zap.String("wording", reg.Wording))
	}
	for _, w := range synced.Declined {
		log.Info("question declined, leaving it out of this run", zap.String("wording", w))
	}

	// Pass 2: bind.
	bound, columns, err := Bind(in.Dataset, synced.Lookup, store, in.Label)
	if err != nil {
		return nil, err
	}
	log.Debug("bound survey columns", zap.Int("resolved", len(columns)), zap.Int("columns", len(bound.Columns)))

	// Pass 3: assemble.
	asm := &Assembler{
		Config:    in.Config,
		Store:     store,
		Snapshots: r.snapshots,
		Charts:    r.charts,
		Logger:    log,
		Metrics:   r.metrics,
		ImageRef:  r.imageRef,
	}
	res := &RunResult{Store: store, Sync: synced, Bound: bound, Columns: columns}
	for _, area := range in.Config.Areas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := r.documents(area)
		rep, err := asm.Assemble(ctx, AssembleInput{
			Outline: synced.Outline,
			Dataset: bound,
			Area:    area,
			Run:     in.Label,
			Date:    date,
		}, doc)
		if err != nil {
			return nil, fmt.Errorf("area %s: %w", area, err)
		}
		log.Info("assembled report", zap.String("area", area),
			zap.Int("responses", rep.Responses), zap.Int("charts", len(rep.Artifacts)), zap.Int("comments", rep.Comments))
		res.Areas = append(res.Areas, AreaOutput{AreaReport: *rep, Document: doc})
	}

	rec, err := r.record(in, res, started)
	if err != nil {
		return nil, err
	}
	res.Record = rec

	r.metrics.QuestionsRegistered.Add(float64(len(synced.Registered)))
	r.metrics.QuestionsDeclined.Add(float64(len(synced.Declined)))
	r.metrics.RunDuration.Set(rec.FinishedAt.Sub(started).Seconds())
	return res, nil
}

func (r *Runner) record(in RunInput, res *RunResult, started time.Time) (ir.RunRecord, error) {
	outlineHash, err := ir.OutlineHash(res.Sync.Outline)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("hash outline: %w", err)
	}
	datasetHash, err := ir.DatasetHash(res.Bound)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("hash dataset: %w", err)
	}
	rec := ir.RunRecord{
		ID:          r.ids.Generate(),
		Label:       in.Label,
		StartedAt:   started,
		FinishedAt:  r.clock.Now(),
		OutlineHash: outlineHash,
		DatasetHash: datasetHash,
		Registered:  []ir.QuestionID{},
		Declined:    append([]string{}, res.Sync.Declined...),
		Areas:       append([]string{}, in.Config.Areas...),
		Responses:   res.Bound.Len(),
	}
	for _, reg := range res.Sync.Registered {
		rec.Registered = append(rec.Registered, reg.ID)
	}
	return rec, nil
}
