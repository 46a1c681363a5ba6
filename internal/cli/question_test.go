package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/surveykn/internal/dataroot"
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

func questionCmd(t *testing.T, root dataroot.Root, stdin string, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"question"}, args...)
	full = append(full, "--root", root.Path, "--format", "json")
	out, _, err := execute(t, stdin, full...)
	return out, err
}

func ids(l QuestionList) []ir.QuestionID {
	out := make([]ir.QuestionID, len(l.Questions))
	for i, q := range l.Questions {
		out[i] = q.ID
	}
	return out
}

func TestQuestion_NewEditList(t *testing.T) {
	root := newDataRoot(t)

	out, err := questionCmd(t, root, "", "new", "Do", "you", "like", "pizza?")
	require.NoError(t, err, out)
	var created QuestionList
	decodeData(t, out, &created)
	require.Len(t, created.Questions, 1)
	assert.Equal(t, ir.QuestionID("AAA"), created.Questions[0].ID)
	assert.Equal(t, "Do you like pizza?", created.Questions[0].Current)
	assert.Equal(t, 17575, created.Remaining)

	_, err = questionCmd(t, root, "", "new", "Do you like pineapple?")
	require.NoError(t, err)

	out, err = questionCmd(t, root, "", "edit", "aab", "Do you like pineapple on pizza?")
	require.NoError(t, err, out)
	var edited QuestionList
	decodeData(t, out, &edited)
	assert.Equal(t, "Do you like pineapple on pizza?", edited.Questions[0].Current)

	out, err = questionCmd(t, root, "", "list")
	require.NoError(t, err)
	var all QuestionList
	decodeData(t, out, &all)
	assert.Equal(t, []ir.QuestionID{"AAA", "AAB"}, ids(all))

	out, err = questionCmd(t, root, "", "list", "--last", "1")
	require.NoError(t, err)
	var tail QuestionList
	decodeData(t, out, &tail)
	assert.Equal(t, []ir.QuestionID{"AAB"}, ids(tail))

	out, err = questionCmd(t, root, "", "last")
	require.NoError(t, err)
	var last QuestionList
	decodeData(t, out, &last)
	assert.Equal(t, []ir.QuestionID{"AAB"}, ids(last))
}

func TestQuestion_NewDuplicate(t *testing.T) {
	root := newDataRoot(t)
	_, err := questionCmd(t, root, "", "new", "Do you like pizza?")
	require.NoError(t, err)

	out, err := questionCmd(t, root, "", "new", "  Do you like pizza?  ")
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicate, decodeError(t, out).Code)
}

func TestQuestion_EditUnknown(t *testing.T) {
	root := newDataRoot(t)

	out, err := questionCmd(t, root, "", "edit", "ZZZ", "Anything")
	require.Error(t, err)
	assert.Equal(t, ErrCodeQuestionMissing, decodeError(t, out).Code)

	out, err = questionCmd(t, root, "", "edit", "A1", "Anything")
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidArgs, decodeError(t, out).Code)
}

func TestQuestion_Import(t *testing.T) {
	root := newDataRoot(t)
	_, err := questionCmd(t, root, "", "new", "Do you like pizza?")
	require.NoError(t, err)

	file := writeFile(t, "questions.txt", "\uFEFFDo you like pizza?\n\nDo you like pasta?\nDo you like pasta?\nDo you like soup?\n")
	out, err := questionCmd(t, root, "", "import", file)
	require.NoError(t, err, out)

	var result ImportResult
	decodeData(t, out, &result)
	require.Len(t, result.Registered, 2)
	assert.Equal(t, ir.QuestionID("AAB"), result.Registered[0].ID)
	assert.Equal(t, "Do you like pasta?", result.Registered[0].Current)
	assert.Equal(t, ir.QuestionID("AAC"), result.Registered[1].ID)
	assert.Equal(t, []string{"Do you like pizza?", "Do you like pasta?"}, result.Skipped)

	s, err := questions.Load(root.QuestionStore())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
}

func TestQuestion_DeleteLast(t *testing.T) {
	root := newDataRoot(t)
	_, err := questionCmd(t, root, "", "new", "Do you like pizza?")
	require.NoError(t, err)

	// Refusing the confirmation leaves the store alone.
	_, err = questionCmd(t, root, "n\n", "delete-last")
	require.NoError(t, err)
	s, err := questions.Load(root.QuestionStore())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	out, err := questionCmd(t, root, "", "delete-last", "--yes")
	require.NoError(t, err, out)
	var msg Message
	decodeData(t, out, &msg)
	assert.Equal(t, "Removed AAA : Do you like pizza?", msg.Text)

	s, err = questions.Load(root.QuestionStore())
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestQuestion_DeleteLastWithHistory(t *testing.T) {
	root := newDataRoot(t)
	require.NoError(t, os.WriteFile(root.QuestionStore(), []byte(`NEXTINLINE: AAB
COUNT: {current: 1, maximum: 17576}
AAA:
  current: Do you like pizza?
  "2023-05": Do you like pizza?
`), 0o644))

	out, err := questionCmd(t, root, "", "delete-last", "--yes")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeHasHistory, decodeError(t, out).Code)

	out, err = questionCmd(t, root, "", "history", "AAA")
	require.NoError(t, err, out)
	var history HistoryResult
	decodeData(t, out, &history)
	assert.Equal(t, "Do you like pizza?", history.Current)
	require.Len(t, history.History, 1)
	assert.Equal(t, "2023-05", history.History[0].Run)
}

func TestQuestion_Copy(t *testing.T) {
	root := newDataRoot(t)
	_, err := questionCmd(t, root, "", "new", "Do you like pizza?")
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = questionCmd(t, root, "", "copy", dir)
	require.NoError(t, err)

	s, err := questions.Load(filepath.Join(dir, dataroot.QuestionStoreFile))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestQuestion_TextOutput(t *testing.T) {
	root := newDataRoot(t)
	out, _, err := execute(t, "", "question", "new", "Do you like pizza?", "--root", root.Path)
	require.NoError(t, err)
	assert.Equal(t, "AAA : Do you like pizza?\n", out)

	out, _, err = execute(t, "", "question", "history", "AAA", "--root", root.Path)
	require.NoError(t, err)
	assert.Contains(t, out, "(never used)")
}
