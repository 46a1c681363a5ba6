package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "surveykn", cmd.Use)
	assert.Contains(t, cmd.Long, "question identity")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"},
		{"validate"},
		{"generate"},
		{"question", "new"},
		{"question", "import"},
		{"question", "edit"},
		{"question", "delete-last"},
		{"question", "last"},
		{"question", "list"},
		{"question", "history"},
		{"question", "copy"},
		{"runs", "list"},
		{"runs", "show"},
		{"snapshots", "list"},
		{"preview"},
		{"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	rootFlag := cmd.PersistentFlags().Lookup("root")
	require.NotNil(t, rootFlag)
	assert.Equal(t, "r", rootFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("doctree"))
}

func TestRootFlagFromEnvironment(t *testing.T) {
	t.Setenv(EnvRoot, "/srv/reports")
	cmd := NewRootCommand()
	assert.Equal(t, "/srv/reports", cmd.PersistentFlags().Lookup("root").DefValue)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	genCmd, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	runFlag := genCmd.Flags().Lookup("run")
	require.NotNil(t, runFlag)
	// --run is required, so default is empty
	assert.Equal(t, "", runFlag.DefValue)

	yesFlag := genCmd.Flags().Lookup("yes")
	require.NotNil(t, yesFlag)
	assert.Equal(t, "y", yesFlag.Shorthand)

	require.NotNil(t, genCmd.Flags().Lookup("no-input"))
	require.NotNil(t, genCmd.Flags().Lookup("metrics-file"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	require.NotNil(t, testCmd.Flags().Lookup("filter"))
	require.NotNil(t, testCmd.Flags().Lookup("golden"))
}

func TestPreviewCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	previewCmd, _, err := cmd.Find([]string{"preview"})
	require.NoError(t, err)

	widthFlag := previewCmd.Flags().Lookup("width")
	require.NotNil(t, widthFlag)
	assert.Equal(t, "80", widthFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "validate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
