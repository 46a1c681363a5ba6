package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := NewDataset(
		[]string{"AREA", "AAA"},
		[][]string{
			{"North", "Yes"},
			{"North", "No"},
			{"South", "Yes"},
			{"North", " Yes "},
			{"North", ""},
		},
	)
	require.NoError(t, err)
	return d
}

func TestNewDataset_RejectsRaggedRows(t *testing.T) {
	_, err := NewDataset([]string{"A", "B"}, [][]string{{"x"}})
	assert.ErrorContains(t, err, "row 1")
}

func TestDataset_Filter(t *testing.T) {
	d := testDataset(t)

	north, ok := d.Filter("AREA", "North")
	require.True(t, ok)
	assert.Equal(t, 4, north.Len())

	all, ok := d.Filter("REGION", "North")
	assert.False(t, ok)
	assert.Equal(t, d.Len(), all.Len())
}

func TestDataset_Count(t *testing.T) {
	d := testDataset(t)
	north, _ := d.Filter("AREA", "North")

	dist, err := north.Count("AAA")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Yes": 2, "No": 1}, dist.Counts)
	assert.Equal(t, []string{"Yes", "No"}, dist.Order)
	assert.Equal(t, 3, dist.Total())

	_, err = d.Count("AAB")
	assert.Error(t, err)
}
