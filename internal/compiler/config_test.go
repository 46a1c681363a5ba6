package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/surveykn/internal/ir"
)

const minimalConfig = `
areas: [North, South]
choices:
  - {value: "1", label: "Yes", color: "#2E7D32"}
  - {value: "2", label: "No", color: "#C62828"}
`

const fullConfig = `
grouping_column: REGION
areas: [North]
choices:
  - {value: "1", label: "Yes", color: "#2E7D32"}
  - {value: "2", label: "No", color: "#C62828"}
  - {value: "3", label: "Unsure", color: "#9E9E9E"}
charts:
  association_label: Everyone
  draw: [global, last-year, trend]
  exceptions: [AAB]
  catalog:
    global: {id: G, kind: association}
    last-year: {id: P, kind: historical, snapshot: 2023-05}
    trend: {id: B, kind: series, snapshots: [2022-05, 2023-05]}
  pie: {show_label: true, line_width: 2}
  width: 800
comments:
  min_length: 5
document:
  title: Member Survey
  conclusion_tree: true
`

func TestCompileConfig_Defaults(t *testing.T) {
	cfg, err := CompileConfig([]byte(minimalConfig), "config.yml")
	require.NoError(t, err)

	assert.Equal(t, "AREA", cfg.GroupingColumn)
	assert.Equal(t, []string{"North", "South"}, cfg.Areas)
	require.Len(t, cfg.Choices, 2)
	assert.Equal(t, Choice{Value: "1", Label: "Yes", Color: "#2E7D32"}, cfg.Choices[0])

	assert.Equal(t, "Association", cfg.Charts.AssociationLabel)
	assert.Empty(t, cfg.Charts.Draw)
	assert.Empty(t, cfg.Charts.Catalog)
	assert.Equal(t, PieStyle{ShowValue: true, ShowPercent: true, LineColor: "#FFFFFF", LineWidth: 1}, cfg.Charts.Pie)
	assert.Equal(t, 600, cfg.Charts.Width)
	assert.Equal(t, 400, cfg.Charts.Height)

	assert.Equal(t, 3, cfg.Comments.MinLength)
	assert.Equal(t, "<Write here for the chart(s) below>", cfg.Document.Placeholder)
	assert.Equal(t, 3, cfg.Document.MaxDepth)
	assert.False(t, cfg.Document.Today)
}

func TestCompileConfig_Full(t *testing.T) {
	cfg, err := CompileConfig([]byte(fullConfig), "config.yml")
	require.NoError(t, err)

	assert.Equal(t, "REGION", cfg.GroupingColumn)
	assert.Equal(t, "Everyone", cfg.Charts.AssociationLabel)
	assert.True(t, cfg.Charts.Pie.ShowLabel)
	assert.Equal(t, 2, cfg.Charts.Pie.LineWidth)
	assert.Equal(t, 800, cfg.Charts.Width)
	assert.Equal(t, 5, cfg.Comments.MinLength)
	assert.True(t, cfg.Document.ConclusionTree)

	drawn := cfg.DrawnCharts()
	require.Len(t, drawn, 3)
	assert.Equal(t, ChartSpec{ID: "G", Kind: ChartAssociation}, drawn[0])
	assert.Equal(t, ChartSpec{ID: "P", Kind: ChartHistorical, Snapshot: "2023-05"}, drawn[1])
	assert.Equal(t, []string{"2022-05", "2023-05"}, drawn[2].Snapshots)

	assert.Equal(t, []string{"2023-05", "2022-05"}, cfg.Snapshots())
	assert.True(t, cfg.Excepted(ir.QuestionID("AAB")))
	assert.False(t, cfg.Excepted(ir.QuestionID("AAA")))

	ch, ok := cfg.Choice("3")
	require.True(t, ok)
	assert.Equal(t, "Unsure", ch.Label)
	_, ok = cfg.Choice("4")
	assert.False(t, ok)
}

func TestCompileConfig_CUE(t *testing.T) {
	src := `
areas: ["North"]
choices: [{value: "1", label: "Yes", color: "#00FF00"}]
comments: min_length: 10
`
	cfg, err := CompileConfig([]byte(src), "config.cue")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Comments.MinLength)
	assert.Equal(t, "AREA", cfg.GroupingColumn)
}

func TestCompileConfig_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing areas", "choices: [{value: a, label: A, color: '#000000'}]\n"},
		{"empty areas", "areas: []\nchoices: [{value: a, label: A, color: '#000000'}]\n"},
		{"bad color", "areas: [N]\nchoices: [{value: a, label: A, color: red}]\n"},
		{"unknown field", "areas: [N]\nchoices: [{value: a, label: A, color: '#000000'}]\nextra: 1\n"},
		{"bad chart kind", "areas: [N]\nchoices: [{value: a, label: A, color: '#000000'}]\ncharts: {catalog: {x: {id: X, kind: radar}}}\n"},
		{"negative min length", "areas: [N]\nchoices: [{value: a, label: A, color: '#000000'}]\ncomments: {min_length: -1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileConfig([]byte(tt.src), "config.yml")
			require.Error(t, err)
		})
	}
}

func TestCompileConfig_ValidationErrors(t *testing.T) {
	src := `
areas: [N, N]
choices:
  - {value: a, label: A, color: "#000000"}
  - {value: a, label: B, color: "#111111"}
charts:
  draw: [missing, old, trend]
  exceptions: [aaa]
  catalog:
    old: {id: P, kind: historical}
    trend: {id: P, kind: series}
`
	_, err := CompileConfig([]byte(src), "config.yml")
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "want ValidationErrors, got %T", err)

	codes := make(map[string]int)
	for _, e := range verrs {
		codes[e.Code]++
	}
	assert.Equal(t, 1, codes[ErrDuplicateArea])
	assert.Equal(t, 1, codes[ErrDuplicateChoice])
	assert.Equal(t, 1, codes[ErrUnknownChart])
	assert.Equal(t, 1, codes[ErrInvalidException])
	assert.Equal(t, 2, codes[ErrChartParameters])
	assert.Equal(t, 1, codes[ErrDuplicateChartID])
}

func TestValidateConfig_ReservedDefaultID(t *testing.T) {
	cfg := &Config{
		Areas:   []string{"N"},
		Choices: []Choice{{Value: "1", Label: "Yes", Color: "#000000"}},
		Charts: ChartsConfig{
			Catalog: map[string]ChartSpec{"global": {ID: "D", Kind: ChartAssociation}},
		},
	}
	errs := ValidateConfig(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateChartID, errs[0].Code)
	assert.Equal(t, "charts.catalog.global.id", errs[0].Field)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Areas, 2)

	_, err = LoadConfig(filepath.Join(dir, "absent.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompileConfig_ErrorHasPosition(t *testing.T) {
	src := "areas: [N]\nchoices:\n  - {value: a, label: A, color: nope}\n"
	_, err := CompileConfig([]byte(src), "config.yml")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
}
