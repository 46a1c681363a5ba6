package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

func TestBind_RenamesKnownColumns(t *testing.T) {
	store := storeWith(t, "Do you like pizza?", "Do you like pineapple on pizza?")
	lookup := map[string]ir.QuestionID{"Do you like pizza?": "AAA", "Do you like pineapple on pizza?": "AAB"}
	raw := &ir.Dataset{
		Columns: []string{"AREA", "1) Do you like pizza?", "2) Do you like pineapple on pizza?", "Remarks"},
		Rows:    [][]string{{"North", "Yes", "No", "tasty"}},
	}

	bound, cols, err := Bind(raw, lookup, store, "2024-05")
	require.NoError(t, err)

	assert.Equal(t, []string{"AREA", "AAA", "AAB", "Remarks"}, bound.Columns)
	assert.Equal(t, raw.Rows, bound.Rows)
	assert.Equal(t, []BoundColumn{
		{Raw: "1) Do you like pizza?", Wording: "Do you like pizza?", ID: "AAA"},
		{Raw: "2) Do you like pineapple on pizza?", Wording: "Do you like pineapple on pizza?", ID: "AAB"},
	}, cols)
	assert.Equal(t, "1) Do you like pizza?", raw.Columns[1], "raw dataset untouched")

	hist, err := store.History("AAB")
	require.NoError(t, err)
	assert.Equal(t, []questions.Usage{{Run: "2024-05", Wording: "Do you like pineapple on pizza?"}}, hist)
}

func TestBind_UnknownColumnsStripped(t *testing.T) {
	raw := &ir.Dataset{Columns: []string{"3) Something else", "AREA"}}
	bound, cols, err := Bind(raw, map[string]ir.QuestionID{}, questions.New(), "2024-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"Something else", "AREA"}, bound.Columns)
	assert.Empty(t, cols)
}

func TestBind_WordingsStartingWithDigits(t *testing.T) {
	store := storeWith(t, "3D printing lab: is it useful?", "2024 goals met?", "3D printer ok?")
	lookup := map[string]ir.QuestionID{
		"3D printing lab: is it useful?": "AAA",
		"2024 goals met?":                "AAB",
		"3D printer ok?":                 "AAC",
	}
	raw := &ir.Dataset{Columns: []string{"AREA", "3D printing lab: is it useful?", "2024 goals met?", "10) 3D printer ok?"}}

	bound, cols, err := Bind(raw, lookup, store, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"AREA", "AAA", "AAB", "AAC"}, bound.Columns)
	assert.Len(t, cols, 3)
}

func TestBind_NumberedAndPlainHeaderCollide(t *testing.T) {
	store := storeWith(t, "3D printing lab: is it useful?")
	lookup := map[string]ir.QuestionID{"3D printing lab: is it useful?": "AAA"}
	raw := &ir.Dataset{Columns: []string{"4) 3D printing lab: is it useful?", "3D printing lab: is it useful?"}}

	_, _, err := Bind(raw, lookup, store, "2024-05")
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicateColumn, CodeOf(err))
}

func TestBind_RecordsRunWording(t *testing.T) {
	store := storeWith(t, "Do you like pizza?")
	lookup := map[string]ir.QuestionID{"Do you like pizza?": "AAA"}

	_, _, err := Bind(&ir.Dataset{Columns: []string{"Do you like pizza?"}}, lookup, store, "2023-05")
	require.NoError(t, err)
	_, _, err = Bind(&ir.Dataset{Columns: []string{"Do you like pizza?"}}, lookup, store, "2024-05")
	require.NoError(t, err)

	entry, ok := store.Get("AAA")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"2023-05": "Do you like pizza?", "2024-05": "Do you like pizza?"}, entry.History)
}

func TestBind_DuplicateColumn(t *testing.T) {
	store := storeWith(t, "Do you like pizza?")
	lookup := map[string]ir.QuestionID{"Do you like pizza?": "AAA"}
	raw := &ir.Dataset{Columns: []string{"1) Do you like pizza?", "7) Do you like pizza?"}}

	_, _, err := Bind(raw, lookup, store, "2024-05")
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicateColumn, CodeOf(err))

	entry, _ := store.Get("AAA")
	assert.Empty(t, entry.History, "nothing recorded on failure")
}

func TestBind_StaleLookup(t *testing.T) {
	lookup := map[string]ir.QuestionID{"Ghost?": "AAZ"}
	_, _, err := Bind(&ir.Dataset{Columns: []string{"Ghost?"}}, lookup, questions.New(), "2024-05")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
}
