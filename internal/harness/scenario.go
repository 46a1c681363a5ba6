package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Run is the run label, YYYY-MM.
	Run string `yaml:"run"`

	Config  string `yaml:"config"`
	Doctree string `yaml:"doctree"`
	Survey  string `yaml:"survey"`

	// Store is the question store the run starts from. Empty means a fresh
	// store.
	Store string `yaml:"store,omitempty"`

	// Snapshots maps snapshot ids to bound survey files loaded into the
	// archive before the run.
	Snapshots map[string]string `yaml:"snapshots,omitempty"`

	// Answers are the operator's confirmations in question order; once
	// exhausted every question gets DefaultAnswer.
	Answers       []bool `yaml:"answers,omitempty"`
	DefaultAnswer bool   `yaml:"default_answer,omitempty"`

	// ExpectError is the runtime error code the run must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type specifies the assertion type; see the package documentation.
	Type string `yaml:"type"`

	// Area selects the document (document_contains, document_lacks, chart_count).
	Area string `yaml:"area,omitempty"`

	// IDs are the expected identifiers (registered).
	IDs []string `yaml:"ids,omitempty"`

	// Wordings are the expected wordings (declined).
	Wordings []string `yaml:"wordings,omitempty"`

	// Columns are the expected bound columns (columns).
	Columns []string `yaml:"columns,omitempty"`

	// Text is the searched substring (document_contains, document_lacks).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number (chart_count, archived).
	Count int `yaml:"count,omitempty"`

	// ID, Run and Wording describe one history entry (history). Run
	// defaults to the scenario's run.
	ID      string `yaml:"id,omitempty"`
	Run     string `yaml:"run,omitempty"`
	Wording string `yaml:"wording,omitempty"`
}

// Assertion type constants.
const (
	AssertRegistered       = "registered"
	AssertDeclined         = "declined"
	AssertColumns          = "columns"
	AssertDocumentContains = "document_contains"
	AssertDocumentLacks    = "document_lacks"
	AssertChartCount       = "chart_count"
	AssertHistory          = "history"
	AssertArchived         = "archived"
)

// LoadScenario reads and parses a scenario YAML file. Relative fixture paths
// are resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	scenario.Config = resolve(scenario.Config)
	scenario.Doctree = resolve(scenario.Doctree)
	scenario.Survey = resolve(scenario.Survey)
	scenario.Store = resolve(scenario.Store)
	for id, p := range scenario.Snapshots {
		scenario.Snapshots[id] = resolve(p)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Run == "" {
		return fmt.Errorf("run is required")
	}
	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	files := []struct{ field, path string }{
		{"config", s.Config},
		{"doctree", s.Doctree},
		{"survey", s.Survey},
	}
	for _, f := range files {
		if f.path == "" {
			return fmt.Errorf("%s is required", f.field)
		}
	}
	if s.Store != "" {
		files = append(files, struct{ field, path string }{"store", s.Store})
	}
	for id, p := range s.Snapshots {
		files = append(files, struct{ field, path string }{"snapshots." + id, p})
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", f.field, f.path)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRegistered, AssertDeclined, AssertColumns:
	case AssertDocumentContains, AssertDocumentLacks:
		if a.Area == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: area and text are required for %s", index, a.Type)
		}
	case AssertChartCount:
		if a.Area == "" {
			return fmt.Errorf("assertions[%d]: area is required for chart_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for chart_count", index)
		}
	case AssertHistory:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for history", index)
		}
	case AssertArchived:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for archived", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
