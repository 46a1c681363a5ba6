package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
	"github.com/roach88/surveykn/internal/testutil"
)

// recordingRenderer returns one artifact per request and keeps the requests.
type recordingRenderer struct {
	requests []ChartRequest
	fail     string
}

func (r *recordingRenderer) Render(_ context.Context, req ChartRequest) (Artifact, error) {
	if req.Name == r.fail {
		return Artifact{}, errors.New("canvas exploded")
	}
	r.requests = append(r.requests, req)
	return Artifact{Name: req.Name + ".svg", Data: []byte(req.Name)}, nil
}

func (r *recordingRenderer) names() []string {
	out := make([]string, len(r.requests))
	for i, req := range r.requests {
		out[i] = req.Name
	}
	return out
}

// mapSnapshots serves snapshots from memory and counts lookups.
type mapSnapshots struct {
	data  map[string]*ir.Dataset
	calls map[string]int
}

func (m *mapSnapshots) Snapshot(_ context.Context, id string) (*ir.Dataset, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[id]++
	d, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrUnknownSnapshot)
	}
	return d, nil
}

func testConfig() *compiler.Config {
	return &compiler.Config{
		GroupingColumn: "AREA",
		Areas:          []string{"North", "South"},
		Choices: []compiler.Choice{
			{Value: "Yes", Label: "Yes", Color: "#00AA00"},
			{Value: "No", Label: "No", Color: "#AA0000"},
		},
		Charts: compiler.ChartsConfig{
			AssociationLabel: "Association",
			Draw:             []string{},
			Exceptions:       []string{},
			Catalog: map[string]compiler.ChartSpec{
				"association": {ID: "A", Kind: compiler.ChartAssociation},
				"last_year":   {ID: "H", Kind: compiler.ChartHistorical, Snapshot: "2023-05"},
				"trend":       {ID: "S", Kind: compiler.ChartSeries, Snapshots: []string{"2022-05", "2023-05"}},
			},
			Pie:    compiler.PieStyle{ShowValue: true, ShowPercent: true, LineColor: "#FFFFFF", LineWidth: 1},
			Width:  600,
			Height: 400,
		},
		Comments: compiler.CommentsConfig{MinLength: 3},
		Document: compiler.DocumentConfig{
			Title:       "Survey Report",
			Placeholder: "<Write here>",
			MaxDepth:    3,
		},
	}
}

func testStore(t *testing.T) *questions.Store {
	return storeWith(t, "Do you like pizza?", "Do you like pasta?")
}

func testOutline() *ir.Outline {
	return group(
		section("Food", group(
			section("Pizza", &ir.Leaf{Questions: []string{"AAA", "AAB"}, Comments: []string{"Remarks"}}),
		)),
		section("Comments", &ir.CommentBlock{Fields: []string{"General"}}),
	)
}

func testDataset() *ir.Dataset {
	return &ir.Dataset{
		Columns: []string{"AREA", "AAA", "AAB", "Remarks", "General"},
		Rows: [][]string{
			{"North", "Yes", "No", "Great crust", "ok"},
			{"North", "No", "No", " meh ", "Thanks for asking"},
			{"South", "Yes", "Yes", "Lovely", ""},
		},
	}
}

type assembleFixture struct {
	asm     *Assembler
	charts  *recordingRenderer
	snaps   *mapSnapshots
	doc     *testutil.RecordingDocument
	logs    *observer.ObservedLogs
	input   AssembleInput
	metrics *Metrics
	cfg     *compiler.Config
}

func newAssembleFixture(t *testing.T) *assembleFixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &assembleFixture{
		charts:  &recordingRenderer{},
		snaps:   &mapSnapshots{data: map[string]*ir.Dataset{}},
		doc:     &testutil.RecordingDocument{},
		logs:    logs,
		metrics: NewMetrics(),
		cfg:     testConfig(),
	}
	f.asm = &Assembler{
		Config:    f.cfg,
		Store:     testStore(t),
		Snapshots: f.snaps,
		Charts:    f.charts,
		Logger:    zap.New(core),
		Metrics:   f.metrics,
	}
	f.input = AssembleInput{
		Outline: testOutline(),
		Dataset: testDataset(),
		Area:    "North",
		Run:     "2024-05",
		Date:    "May 2024",
	}
	return f
}

func (f *assembleFixture) run(t *testing.T) (*AreaReport, error) {
	t.Helper()
	return f.asm.Assemble(context.Background(), f.input, f.doc)
}

func TestAssemble_Document(t *testing.T) {
	f := newAssembleFixture(t)
	rep, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"TITLE Survey Report",
		"P May 2024",
		"P Area: North / Responses: 2",
		"H1 Food",
		"H2 Pizza",
		"P <Write here>",
		"IMG AAA-D.svg | Do you like pizza?",
		"P <Write here>",
		"IMG AAB-D.svg | Do you like pasta?",
		"H3 Comments",
		"- Great crust",
		"- meh",
		"H1 Comments",
		"- Thanks for asking",
	}, f.doc.Lines)

	assert.Equal(t, "North", rep.Area)
	assert.Equal(t, 2, rep.Responses)
	assert.Equal(t, 3, rep.Comments)
	require.Len(t, rep.Artifacts, 2)
	assert.Equal(t, "AAA-D.svg", rep.Artifacts[0].Name)
}

func TestAssemble_DefaultChartFilteredToArea(t *testing.T) {
	f := newAssembleFixture(t)
	_, err := f.run(t)
	require.NoError(t, err)

	req := f.charts.requests[0]
	assert.Equal(t, ShapePie, req.Shape)
	assert.Equal(t, "default", req.Kind)
	assert.Equal(t, ir.QuestionID("AAA"), req.QuestionID)
	assert.Equal(t, "Do you like pizza?", req.Title)
	assert.Equal(t, []string{"North", "2024-05"}, req.Annotations)
	assert.Equal(t, []Slice{
		{Value: "Yes", Label: "Yes", Color: "#00AA00", Count: 1},
		{Value: "No", Label: "No", Color: "#AA0000", Count: 1},
	}, req.Slices)
	assert.Equal(t, 600, req.Width)
}

func TestAssemble_ZeroCountChoicesKept(t *testing.T) {
	f := newAssembleFixture(t)
	_, err := f.run(t)
	require.NoError(t, err)

	pasta := f.charts.requests[1]
	assert.Equal(t, []int{0, 2}, []int{pasta.Slices[0].Count, pasta.Slices[1].Count})
}

func TestAssemble_ComparisonCharts(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Charts.Draw = []string{"association", "last_year", "trend"}
	f.snaps.data["2023-05"] = &ir.Dataset{
		Columns: []string{"AREA", "AAA", "AAB"},
		Rows:    [][]string{{"North", "No", "Yes"}, {"South", "Yes", "Yes"}},
	}
	f.snaps.data["2022-05"] = &ir.Dataset{
		Columns: []string{"AAA", "AAB"},
		Rows:    [][]string{{"Yes", "No"}, {"Yes", "No"}, {"No", "No"}},
	}

	_, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA-D", "AAA-A", "AAA-H", "AAA-S", "AAB-D", "AAB-A", "AAB-H", "AAB-S"}, f.charts.names())

	assoc := f.charts.requests[1]
	assert.Equal(t, "association", assoc.Kind)
	assert.Equal(t, []string{"Association", "2024-05"}, assoc.Annotations)
	assert.Equal(t, 2, assoc.Slices[0].Count, "association counts every area")
	assert.Equal(t, 1, assoc.Slices[1].Count)

	hist := f.charts.requests[2]
	assert.Equal(t, ShapePie, hist.Shape)
	assert.Equal(t, []string{"North", "2023-05"}, hist.Annotations)
	assert.Equal(t, 0, hist.Slices[0].Count)
	assert.Equal(t, 1, hist.Slices[1].Count)

	series := f.charts.requests[3]
	assert.Equal(t, ShapeStackedBar, series.Shape)
	require.Len(t, series.Series, 2)
	assert.Equal(t, "2022-05", series.Series[0].Label)
	assert.Equal(t, 2, series.Series[0].Slices[0].Count, "snapshot without grouping column is used whole")
	assert.Equal(t, "2023-05", series.Series[1].Label)

	assert.Equal(t, 1, f.snaps.calls["2023-05"], "snapshots load once")
	assert.Equal(t, 4, f.doc.Count("IMG AAA-"))
}

func TestAssemble_Exceptions(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Charts.Draw = []string{"association"}
	f.cfg.Charts.Exceptions = []string{"AAB"}

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA-D", "AAA-A", "AAB-D"}, f.charts.names())
}

func TestAssemble_UnrecognizedCategoryBeforeAnyLeafOutput(t *testing.T) {
	f := newAssembleFixture(t)
	f.input.Dataset.Rows[1][2] = "Maybe"

	_, err := f.run(t)
	require.Error(t, err)
	assert.True(t, IsUnrecognizedCategory(err))

	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ir.QuestionID("AAB"), re.QuestionID)
	assert.Equal(t, "Maybe", re.Value)
	assert.Equal(t, "Do you like pasta?", re.Details["wording"])

	assert.Empty(t, f.charts.requests, "no chart of the leaf is drawn")
	assert.Equal(t, 0, f.doc.Count("IMG "))
}

func TestAssemble_UnrecognizedCategoryInOtherArea(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Charts.Draw = []string{"association"}
	f.input.Dataset.Rows[2][1] = "Perhaps"

	_, err := f.run(t)
	require.Error(t, err)
	assert.True(t, IsUnrecognizedCategory(err), "association counts every row")
}

func TestAssemble_UnrecognizedCategoryInUnconfiguredArea(t *testing.T) {
	f := newAssembleFixture(t)
	f.input.Dataset.Rows = append(f.input.Dataset.Rows, []string{"West", "Maybe", "Perhaps", "", ""})

	for _, area := range []string{"North", "South"} {
		t.Run(area, func(t *testing.T) {
			f.input.Area = area
			f.charts.requests = nil
			_, err := f.run(t)
			require.Error(t, err)
			assert.True(t, IsUnrecognizedCategory(err))

			var re *RuntimeError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, ir.QuestionID("AAA"), re.QuestionID)
			assert.Equal(t, "Maybe", re.Value)
			assert.Empty(t, f.charts.requests)
		})
	}
}

func TestAssemble_BlankAnswersIgnored(t *testing.T) {
	f := newAssembleFixture(t)
	f.input.Dataset.Rows[0][1] = "  "

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 0, f.charts.requests[0].Slices[0].Count)
	assert.Equal(t, 1, f.charts.requests[0].Slices[1].Count)
}

func TestAssemble_MissingQuestionColumnSkipped(t *testing.T) {
	f := newAssembleFixture(t)
	f.input.Outline = group(section("Pizza", leaf("AAA", "AAC")))

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA-D"}, f.charts.names())
	assert.Equal(t, 1, f.logs.FilterMessage("question is not in the survey, skipping").Len())
}

func TestAssemble_MissingCommentColumn(t *testing.T) {
	f := newAssembleFixture(t)
	f.input.Outline = group(section("Notes", &ir.CommentBlock{Fields: []string{"Nope"}}))

	_, err := f.run(t)
	require.Error(t, err)
	assert.True(t, IsMissingColumn(err))
}

func TestAssemble_MissingSnapshotColumn(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Charts.Draw = []string{"last_year"}
	f.snaps.data["2023-05"] = &ir.Dataset{Columns: []string{"AREA", "AAA"}}

	_, err := f.run(t)
	require.Error(t, err)
	assert.True(t, IsMissingColumn(err))
}

func TestAssemble_UnknownSnapshot(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Charts.Draw = []string{"last_year"}

	_, err := f.run(t)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownSnapshot, CodeOf(err))
	assert.ErrorIs(t, err, ErrUnknownSnapshot)
}

func TestAssemble_CommentMinLength(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Comments.MinLength = 12
	f.input.Outline = group(section("Notes", &ir.CommentBlock{Fields: []string{"Remarks", "General"}}))

	rep, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Thanks for asking"}, f.doc.Lines[4:])
	assert.Equal(t, 1, rep.Comments)
}

func TestAssemble_HeadingClamp(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Document.MaxDepth = 1

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Contains(t, f.doc.Lines, "H1 Pizza")
	assert.NotContains(t, f.doc.Lines, "H2 Pizza")
	assert.Equal(t, 2, f.logs.FilterMessage("doctree is deeper than the document supports, clamping heading").Len())
}

func TestAssemble_ConclusionTree(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Document.ConclusionTree = true

	_, err := f.run(t)
	require.NoError(t, err)
	n := len(f.doc.Lines)
	assert.Equal(t, []string{
		"H1 Conclusion",
		"H2 Food",
		"P Food summary",
		"H2 Comments",
		"P Comments summary",
	}, f.doc.Lines[n-5:])
}

func TestAssemble_Disclaimer(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Document.Disclaimer = "Figures are preliminary."

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, "P Figures are preliminary.", f.doc.Lines[3])
}

func TestAssemble_NoGroupingColumn(t *testing.T) {
	f := newAssembleFixture(t)
	d := testDataset()
	f.input.Dataset = &ir.Dataset{Columns: d.Columns[1:]}
	for _, row := range d.Rows {
		f.input.Dataset.Rows = append(f.input.Dataset.Rows, row[1:])
	}

	rep, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Responses)
	assert.Equal(t, 1, f.logs.FilterMessage("dataset has no grouping column, reporting on all rows").Len())
}

func TestAssemble_ImageRef(t *testing.T) {
	f := newAssembleFixture(t)
	f.asm.ImageRef = func(area, name string) string { return area + "/" + name }

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Contains(t, f.doc.Lines, "IMG North/AAA-D.svg | Do you like pizza?")
}

func TestAssemble_RenderFailure(t *testing.T) {
	f := newAssembleFixture(t)
	f.charts.fail = "AAB-D"

	_, err := f.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render AAB-D")
}

func TestAssemble_Metrics(t *testing.T) {
	f := newAssembleFixture(t)
	f.cfg.Charts.Draw = []string{"association"}

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 2.0, promtest.ToFloat64(f.metrics.ChartsRendered.WithLabelValues("default")))
	assert.Equal(t, 2.0, promtest.ToFloat64(f.metrics.ChartsRendered.WithLabelValues("association")))
	assert.Equal(t, 3.0, promtest.ToFloat64(f.metrics.CommentsEmitted))
}
