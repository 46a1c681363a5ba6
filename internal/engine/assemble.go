package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// ChartShape selects the chart drawing.
type ChartShape string

const (
	ShapePie        ChartShape = "pie"
	ShapeStackedBar ChartShape = "stacked_bar"
)

// Slice is one category of an aggregate, in configured choice order.
type Slice struct {
	Value string
	Label string
	Color string
	Count int
}

// Series is one bar of a stacked bar chart.
type Series struct {
	Label  string
	Slices []Slice
}

// ChartRequest is everything a renderer needs to draw one chart.
type ChartRequest struct {
	// Name is the artifact base name: "<id>-D" or "<id>-<chart id>".
	Name        string
	Shape       ChartShape
	Kind        string // default, association, historical or series
	QuestionID  ir.QuestionID
	Title       string
	Annotations []string
	Slices      []Slice  // ShapePie
	Series      []Series // ShapeStackedBar
	Pie         compiler.PieStyle
	Width       int
	Height      int
}

// Artifact is a rendered chart.
type Artifact struct {
	Name string
	Data []byte
}

// ChartRenderer turns aggregates into chart artifacts.
type ChartRenderer interface {
	Render(ctx context.Context, req ChartRequest) (Artifact, error)
}

// Document receives report elements in emission order.
type Document interface {
	Title(text string)
	Heading(level int, text string)
	Paragraph(text string)
	Image(ref, alt string)
	Bullet(text string)
}

// SnapshotSource supplies earlier bound datasets by id. Implementations
// return an error wrapping ErrUnknownSnapshot for ids they do not hold.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id string) (*ir.Dataset, error)
}

// AreaReport is the outcome of assembling one area's document.
type AreaReport struct {
	Area      string
	Responses int
	Artifacts []Artifact
	Comments  int
}

// Assembler walks a resolved outline and emits one area's report.
type Assembler struct {
	Config    *compiler.Config
	Store     *questions.Store
	Snapshots SnapshotSource
	Charts    ChartRenderer
	Logger    *zap.Logger
	Metrics   *Metrics

	// ImageRef maps an artifact to the reference written into the document.
	// Defaults to the artifact name.
	ImageRef func(area, name string) string

	snapshots map[string]*ir.Dataset
}

// AssembleInput is the per-area input of Assemble.
type AssembleInput struct {
	Outline *ir.Outline
	Dataset *ir.Dataset
	Area    string
	Run     string
	Date    string
}

// Assemble writes the report for in.Area into doc.
func (a *Assembler) Assemble(ctx context.Context, in AssembleInput, doc Document) (*AreaReport, error) {
	w := &areaWalker{
		a:       a,
		ctx:     ctx,
		in:      in,
		doc:     doc,
		log:     a.logger().With(zap.String("area", in.Area)),
		report:  &AreaReport{Area: in.Area},
		grouped: in.Dataset.HasColumn(a.Config.GroupingColumn),
	}
	w.rows, _ = in.Dataset.Filter(a.Config.GroupingColumn, in.Area)
	if !w.grouped {
		w.log.Warn("dataset has no grouping column, reporting on all rows",
			zap.String("column", a.Config.GroupingColumn))
	}
	w.report.Responses = w.rows.Len()

	w.preamble()
	if err := w.group(in.Outline, 1); err != nil {
		return nil, err
	}
	if a.Config.Document.ConclusionTree {
		w.conclusion()
	}
	return w.report, nil
}

func (a *Assembler) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// snapshot returns a snapshot, loading each id at most once per Assembler.
func (a *Assembler) snapshot(ctx context.Context, id string) (*ir.Dataset, error) {
	if d, ok := a.snapshots[id]; ok {
		return d, nil
	}
	if a.Snapshots == nil {
		return nil, &RuntimeError{Code: ErrCodeUnknownSnapshot, Message: fmt.Sprintf("snapshot %q: no snapshot source", id)}
	}
	d, err := a.Snapshots.Snapshot(ctx, id)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeUnknownSnapshot,
			Message: fmt.Sprintf("snapshot %q: %v", id, err),
			Details: map[string]string{"snapshot": id},
			Err:     err,
		}
	}
	if a.snapshots == nil {
		a.snapshots = make(map[string]*ir.Dataset)
	}
	a.snapshots[id] = d
	return d, nil
}

type areaWalker struct {
	a       *Assembler
	ctx     context.Context
	in      AssembleInput
	doc     Document
	log     *zap.Logger
	report  *AreaReport
	rows    *ir.Dataset
	grouped bool
}

func (w *areaWalker) cfg() *compiler.Config {
	return w.a.Config
}

func (w *areaWalker) preamble() {
	d := w.cfg().Document
	w.doc.Title(d.Title)
	w.doc.Paragraph(w.in.Date)
	w.doc.Paragraph(fmt.Sprintf("Area: %s\nResponses: %d", w.in.Area, w.report.Responses))
	if d.Disclaimer != "" {
		w.doc.Paragraph(d.Disclaimer)
	}
}

func (w *areaWalker) conclusion() {
	w.heading(1, "Conclusion")
	for _, s := range w.in.Outline.Sections {
		w.heading(2, s.Label)
		w.doc.Paragraph(s.Label + " summary")
	}
}

// heading clamps levels deeper than the configured maximum.
func (w *areaWalker) heading(level int, text string) {
	if depth := w.cfg().Document.MaxDepth; depth > 0 && level > depth {
		w.log.Warn("doctree is deeper than the document supports, clamping heading",
			zap.String("heading", text), zap.Int("level", level), zap.Int("max_depth", depth))
		level = depth
	}
	w.doc.Heading(level, text)
}

func (w *areaWalker) group(g *ir.Group, level int) error {
	for _, s := range g.Sections {
		w.heading(level, s.Label)
		switch n := s.Node.(type) {
		case *ir.Group:
			if err := w.group(n, level+1); err != nil {
				return err
			}
		case *ir.Leaf:
			if err := w.leaf(n); err != nil {
				return err
			}
			if len(n.Comments) > 0 {
				w.heading(level+1, "Comments")
				if err := w.comments(n.Comments); err != nil {
					return err
				}
			}
		case *ir.CommentBlock:
			if err := w.comments(n.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}

// questionCharts holds the validated chart requests of one question.
type questionCharts struct {
	id       ir.QuestionID
	requests []ChartRequest
}

// leaf computes and validates every aggregate of the leaf before emitting
// anything, so an unrecognized category aborts with no partial leaf output.
func (w *areaWalker) leaf(l *ir.Leaf) error {
	var planned []questionCharts
	for _, id := range l.QuestionIDs() {
		if !w.in.Dataset.HasColumn(string(id)) {
			w.log.Warn("question is not in the survey, skipping", zap.String("question", string(id)))
			continue
		}
		reqs, err := w.plan(id)
		if err != nil {
			return err
		}
		planned = append(planned, questionCharts{id: id, requests: reqs})
	}

	for _, q := range planned {
		w.doc.Paragraph(w.cfg().Document.Placeholder)
		for _, req := range q.requests {
			art, err := w.a.Charts.Render(w.ctx, req)
			if err != nil {
				return fmt.Errorf("render %s: %w", req.Name, err)
			}
			w.report.Artifacts = append(w.report.Artifacts, art)
			if w.a.Metrics != nil {
				w.a.Metrics.ChartsRendered.WithLabelValues(req.Kind).Inc()
			}
			w.doc.Image(w.imageRef(art.Name), req.Title)
		}
	}
	return nil
}

func (w *areaWalker) imageRef(name string) string {
	if w.a.ImageRef == nil {
		return name
	}
	return w.a.ImageRef(w.in.Area, name)
}

// plan builds the default request and, unless id is excepted, the configured
// comparisons in draw order.
func (w *areaWalker) plan(id ir.QuestionID) ([]ChartRequest, error) {
	cfg := w.cfg()
	wording, ok := w.a.Store.Wording(id)
	if !ok {
		return nil, FromStoreError(fmt.Errorf("wording of %s: %w", id, questions.ErrNotFound), id)
	}

	base := ChartRequest{
		QuestionID: id,
		Title:      wording,
		Pie:        cfg.Charts.Pie,
		Width:      cfg.Charts.Width,
		Height:     cfg.Charts.Height,
	}

	// Answers are checked across every area, not only the rows charted here.
	if _, err := w.slices(w.in.Dataset, id, wording, "run "+w.in.Run); err != nil {
		return nil, err
	}

	def := base
	def.Name = string(id) + "-D"
	def.Shape = ShapePie
	def.Kind = "default"
	def.Annotations = []string{w.in.Area, w.in.Run}
	counted, err := w.slices(w.rows, id, wording, "run "+w.in.Run)
	if err != nil {
		return nil, err
	}
	def.Slices = counted
	reqs := []ChartRequest{def}

	if cfg.Excepted(id) {
		return reqs, nil
	}

	for _, draw := range cfg.DrawnCharts() {
		req := base
		req.Name = string(id) + "-" + draw.ID
		req.Kind = string(draw.Kind)

		switch draw.Kind {
		case compiler.ChartAssociation:
			req.Shape = ShapePie
			req.Annotations = []string{cfg.Charts.AssociationLabel, w.in.Run}
			req.Slices, err = w.slices(w.in.Dataset, id, wording, "run "+w.in.Run)
		case compiler.ChartHistorical:
			req.Shape = ShapePie
			req.Annotations = []string{w.in.Area, draw.Snapshot}
			req.Slices, err = w.snapshotSlices(draw.Snapshot, id, wording)
		case compiler.ChartSeries:
			req.Shape = ShapeStackedBar
			req.Annotations = []string{w.in.Area}
			for _, snap := range draw.Snapshots {
				var s []Slice
				s, err = w.snapshotSlices(snap, id, wording)
				if err != nil {
					break
				}
				req.Series = append(req.Series, Series{Label: snap, Slices: s})
			}
		}
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// snapshotSlices counts id in a snapshot filtered to the area. Snapshots that
// predate the grouping column are used unfiltered.
func (w *areaWalker) snapshotSlices(snapID string, id ir.QuestionID, wording string) ([]Slice, error) {
	snap, err := w.a.snapshot(w.ctx, snapID)
	if err != nil {
		return nil, err
	}
	if !snap.HasColumn(string(id)) {
		e := NewMissingColumnError(string(id), "snapshot "+snapID)
		e.QuestionID = id
		return nil, e
	}
	rows, grouped := snap.Filter(w.cfg().GroupingColumn, w.in.Area)
	if !grouped {
		w.log.Debug("snapshot has no grouping column, using every row",
			zap.String("snapshot", snapID))
	}
	return w.slices(rows, id, wording, "snapshot "+snapID)
}

// slices counts column id of d and orders the counts by configured choice.
// Any answer outside the choices is fatal.
func (w *areaWalker) slices(d *ir.Dataset, id ir.QuestionID, wording, source string) ([]Slice, error) {
	dist, err := d.Count(string(id))
	if err != nil {
		return nil, NewMissingColumnError(string(id), source)
	}
	for _, v := range dist.Order {
		if _, ok := w.cfg().Choice(v); !ok {
			return nil, NewUnrecognizedCategoryError(id, wording, source, v)
		}
	}
	out := make([]Slice, len(w.cfg().Choices))
	for i, ch := range w.cfg().Choices {
		out[i] = Slice{Value: ch.Value, Label: ch.Label, Color: ch.Color, Count: dist.Counts[ch.Value]}
	}
	return out, nil
}

// comments emits every area answer of the named columns, column by column,
// as a bullet. Answers shorter than comments.min_length runes are dropped.
func (w *areaWalker) comments(fields []string) error {
	minLen := w.cfg().Comments.MinLength
	for _, raw := range fields {
		field := strings.TrimSpace(raw)
		cells, ok := w.rows.Column(field)
		if !ok {
			return NewMissingColumnError(field, "the survey")
		}
		for _, c := range cells {
			text := strings.TrimSpace(c)
			if text == "" || utf8.RuneCountInString(text) < minLen {
				continue
			}
			w.doc.Bullet(text)
			w.report.Comments++
			if w.a.Metrics != nil {
				w.a.Metrics.CommentsEmitted.Inc()
			}
		}
	}
	return nil
}
