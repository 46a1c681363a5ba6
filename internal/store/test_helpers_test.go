package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/surveykn/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)

func testDataset() *ir.Dataset {
	return &ir.Dataset{
		Columns: []string{"AREA", "AAA", "Remarks"},
		Rows: [][]string{
			{"North", "Yes", "Crispy \"base\""},
			{"South", "No", ""},
			{"North", "Yes", "日本語"},
		},
	}
}

func testRecord(id, label string) ir.RunRecord {
	return ir.RunRecord{
		ID:          id,
		Label:       label,
		StartedAt:   testTime,
		FinishedAt:  testTime.Add(1500 * time.Millisecond),
		OutlineHash: "outline-hash",
		DatasetHash: "dataset-hash",
		Registered:  []ir.QuestionID{"AAB", "AAC"},
		Declined:    []string{"Anything else?"},
		Areas:       []string{"North", "South"},
		Responses:   3,
	}
}
