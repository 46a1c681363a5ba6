package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/surveykn/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// ChartKind selects how a comparison chart's aggregate is computed.
type ChartKind string

const (
	// ChartAssociation is the same column over every row, ignoring the area.
	ChartAssociation ChartKind = "association"
	// ChartHistorical is the same column of one earlier snapshot, filtered to the area.
	ChartHistorical ChartKind = "historical"
	// ChartSeries is one distribution per earlier snapshot, drawn as a stacked bar.
	ChartSeries ChartKind = "series"
)

// Config is the decoded report configuration.
type Config struct {
	GroupingColumn string         `json:"grouping_column"`
	Areas          []string       `json:"areas"`
	Choices        []Choice       `json:"choices"`
	Charts         ChartsConfig   `json:"charts"`
	Comments       CommentsConfig `json:"comments"`
	Document       DocumentConfig `json:"document"`
}

// Choice is one valid answer category, in display order.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// ChartsConfig declares which comparison charts accompany each question.
type ChartsConfig struct {
	AssociationLabel string               `json:"association_label"`
	Draw             []string             `json:"draw"`
	Exceptions       []string             `json:"exceptions"`
	Catalog          map[string]ChartSpec `json:"catalog"`
	Pie              PieStyle             `json:"pie"`
	Width            int                  `json:"width"`
	Height           int                  `json:"height"`
}

// ChartSpec is one named entry of the comparison chart catalog.
type ChartSpec struct {
	ID        string    `json:"id"`
	Kind      ChartKind `json:"kind"`
	Snapshot  string    `json:"snapshot,omitempty"`
	Snapshots []string  `json:"snapshots,omitempty"`
}

// PieStyle controls slice annotations.
type PieStyle struct {
	ShowValue   bool   `json:"show_value"`
	ShowPercent bool   `json:"show_percent"`
	ShowLabel   bool   `json:"show_label"`
	LineColor   string `json:"line_color"`
	LineWidth   int    `json:"line_width"`
}

type CommentsConfig struct {
	MinLength int `json:"min_length"`
}

type DocumentConfig struct {
	Title          string `json:"title"`
	Disclaimer     string `json:"disclaimer"`
	Placeholder    string `json:"placeholder"`
	Today          bool   `json:"today"`
	ConclusionTree bool   `json:"conclusion_tree"`
	MaxDepth       int    `json:"max_depth"`
}

// Excepted reports whether id skips comparison charts.
func (c *Config) Excepted(id ir.QuestionID) bool {
	return slices.Contains(c.Charts.Exceptions, string(id))
}

// Choice returns the configured choice with the given value.
func (c *Config) Choice(value string) (Choice, bool) {
	for _, ch := range c.Choices {
		if ch.Value == value {
			return ch, true
		}
	}
	return Choice{}, false
}

// DrawnCharts returns the catalog entries named by charts.draw, in draw order.
// LoadConfig guarantees every name resolves.
func (c *Config) DrawnCharts() []ChartSpec {
	out := make([]ChartSpec, 0, len(c.Charts.Draw))
	for _, name := range c.Charts.Draw {
		out = append(out, c.Charts.Catalog[name])
	}
	return out
}

// Snapshots returns every snapshot id referenced by drawn charts, deduplicated
// in first-reference order.
func (c *Config) Snapshots() []string {
	var out []string
	add := func(id string) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, spec := range c.DrawnCharts() {
		switch spec.Kind {
		case ChartHistorical:
			add(spec.Snapshot)
		case ChartSeries:
			for _, id := range spec.Snapshots {
				add(id)
			}
		}
	}
	return out
}

// LoadConfig reads a YAML or CUE configuration file, unifies it with the
// embedded schema and decodes it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return CompileConfig(data, path)
}

// CompileConfig compiles configuration source. The format is chosen by the
// filename extension: ".cue" is CUE, anything else is YAML.
func CompileConfig(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var v cue.Value
	if filepath.Ext(filename) == ".cue" {
		v = ctx.CompileBytes(data, cue.Filename(filename))
	} else {
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return nil, formatCUEError(err)
		}
		v = ctx.BuildFile(f)
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if errs := ValidateConfig(&cfg); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ValidateConfig checks cross-field rules the schema cannot express.
// Returns all errors found (does not fail-fast).
func ValidateConfig(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	seenArea := make(map[string]bool)
	for i, a := range cfg.Areas {
		if seenArea[a] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("areas[%d]", i),
				Message: fmt.Sprintf("duplicate area %q", a),
				Code:    ErrDuplicateArea,
			})
		}
		seenArea[a] = true
	}

	seenChoice := make(map[string]bool)
	for i, ch := range cfg.Choices {
		if seenChoice[ch.Value] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("choices[%d].value", i),
				Message: fmt.Sprintf("duplicate choice value %q", ch.Value),
				Code:    ErrDuplicateChoice,
			})
		}
		seenChoice[ch.Value] = true
	}

	seenID := make(map[string]string)
	for _, name := range sortedKeys(cfg.Charts.Catalog) {
		spec := cfg.Charts.Catalog[name]
		field := "charts.catalog." + name
		if other, dup := seenID[spec.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("id %q already used by %q", spec.ID, other),
				Code:    ErrDuplicateChartID,
			})
		}
		seenID[spec.ID] = name
		// "D" names the default chart artifact.
		if spec.ID == "D" {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: `id "D" is reserved for the default chart`,
				Code:    ErrDuplicateChartID,
			})
		}

		switch spec.Kind {
		case ChartHistorical:
			if spec.Snapshot == "" {
				errs = append(errs, ValidationError{
					Field:   field + ".snapshot",
					Message: "historical chart requires a snapshot",
					Code:    ErrChartParameters,
				})
			}
		case ChartSeries:
			if len(spec.Snapshots) == 0 {
				errs = append(errs, ValidationError{
					Field:   field + ".snapshots",
					Message: "series chart requires at least one snapshot",
					Code:    ErrChartParameters,
				})
			}
		}
	}

	for i, name := range cfg.Charts.Draw {
		if _, ok := cfg.Charts.Catalog[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("charts.draw[%d]", i),
				Message: fmt.Sprintf("chart %q is not in the catalog", name),
				Code:    ErrUnknownChart,
			})
		}
	}

	for i, ex := range cfg.Charts.Exceptions {
		if _, err := ir.ParseQuestionID(ex); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("charts.exceptions[%d]", i),
				Message: err.Error(),
				Code:    ErrInvalidException,
			})
		}
	}

	return errs
}

func sortedKeys(m map[string]ChartSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
