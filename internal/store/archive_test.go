package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/ir"
)

var _ engine.SnapshotSource = (*Store)(nil)

func TestSnapshot_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "2023-05", testDataset(), testTime))

	got, err := s.Snapshot(ctx, "2023-05")
	require.NoError(t, err)
	if diff := cmp.Diff(testDataset(), got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_Replace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "2023-05", testDataset(), testTime))
	smaller := &ir.Dataset{Columns: []string{"AAA"}, Rows: [][]string{{"No"}}}
	require.NoError(t, s.SaveSnapshot(ctx, "2023-05", smaller, testTime))

	got, err := s.Snapshot(ctx, "2023-05")
	require.NoError(t, err)
	assert.Equal(t, smaller, got)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM snapshot_rows").Scan(&n))
	assert.Equal(t, 1, n, "old rows cascade away")
}

func TestSnapshot_Empty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "2022-05", &ir.Dataset{Columns: []string{"AREA"}}, testTime))
	got, err := s.Snapshot(ctx, "2022-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"AREA"}, got.Columns)
	assert.Equal(t, 0, got.Len())
}

func TestSnapshot_Unknown(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Snapshot(context.Background(), "1999-01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrUnknownSnapshot))
	assert.Contains(t, err.Error(), "1999-01")
}

func TestListSnapshots(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.SaveSnapshot(ctx, "2024-05", testDataset(), testTime))
	require.NoError(t, s.SaveSnapshot(ctx, "2023-05", &ir.Dataset{Columns: []string{"AAA"}}, testTime))

	list, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2023-05", list[0].ID)
	assert.Equal(t, SnapshotInfo{ID: "2024-05", Columns: 3, Rows: 3, Hash: mustHash(t, testDataset()), CreatedAt: testTime}, list[1])
}

func mustHash(t *testing.T, d *ir.Dataset) string {
	t.Helper()
	h, err := ir.DatasetHash(d)
	require.NoError(t, err)
	return h
}

func TestRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testRecord("run-1", "2024-05")

	require.NoError(t, s.SaveRun(ctx, rec))

	got, err := s.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestRun_EmptyLists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testRecord("run-1", "2024-05")
	rec.Registered = nil
	rec.Declined = nil

	require.NoError(t, s.SaveRun(ctx, rec))
	got, err := s.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []ir.QuestionID{}, got.Registered)
	assert.Equal(t, []string{}, got.Declined)
}

func TestRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSaveRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testRecord("run-1", "2024-05")

	require.NoError(t, s.SaveRun(ctx, rec))
	changed := rec
	changed.Responses = 99
	require.NoError(t, s.SaveRun(ctx, changed))

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Responses, "first write wins")
}

func TestListRuns_OrderAndFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, rec := range []ir.RunRecord{
		testRecord("run-b", "2024-05"),
		testRecord("run-a", "2024-06"),
		testRecord("run-c", "2024-05"),
	} {
		require.NoError(t, s.SaveRun(ctx, rec))
	}

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"run-b", "run-a", "run-c"}, ids, "archive order, not id order")

	may, err := s.ListRuns(ctx, "2024-05")
	require.NoError(t, err)
	assert.Len(t, may, 2)

	none, err := s.ListRuns(ctx, "1999-01")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestArchive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testRecord("run-1", "2024-05")

	require.NoError(t, s.Archive(ctx, rec, testDataset()))

	snap, err := s.Snapshot(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, testDataset(), snap)

	list, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.FinishedAt, list[0].CreatedAt)

	got, err := s.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestArchive_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Archive(ctx, testRecord("run-1", "2024-05"), testDataset())
	require.Error(t, err)

	list, err := s.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	runs, err := s.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
