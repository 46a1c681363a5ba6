package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenSuffix is the extension of golden document files.
const GoldenSuffix = ".golden"

// GoldenName is the golden file base name of one area's document.
func GoldenName(scenario, area string) string {
	return scenario + "." + area
}

// RunWithGolden executes a scenario and compares every area's document
// against testdata/golden/{scenario}.{area}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if a document doesn't match its golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's documents against golden files.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	for _, area := range result.Areas {
		g.Assert(t, GoldenName(scenarioName, area), []byte(result.Documents[area]))
	}
}

// CompareGolden compares documents against golden files in dir. It returns
// one message per mismatching area and whether any golden file existed.
func CompareGolden(dir, scenarioName string, result *Result) (mismatches []string, found bool, err error) {
	for _, area := range result.Areas {
		path := filepath.Join(dir, GoldenName(scenarioName, area)+GoldenSuffix)
		want, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, found, fmt.Errorf("read golden file: %w", err)
		}
		found = true
		if !bytes.Equal(want, []byte(result.Documents[area])) {
			mismatches = append(mismatches, fmt.Sprintf("%s document differs from %s", area, path))
		}
	}
	return mismatches, found, nil
}

// UpdateGolden writes every area's document to dir.
func UpdateGolden(dir, scenarioName string, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	for _, area := range result.Areas {
		path := filepath.Join(dir, GoldenName(scenarioName, area)+GoldenSuffix)
		if err := os.WriteFile(path, []byte(result.Documents[area]), 0o644); err != nil {
			return fmt.Errorf("write golden file: %w", err)
		}
	}
	return nil
}
