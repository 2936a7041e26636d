package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/errors"
)

// execRoot runs the full command tree with the given args, using an
// isolated BDRUN_HOME so tests never touch the real user log directory.
func execRoot(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("BDRUN_HOME", filepath.Join(t.TempDir(), "home"))

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{})
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	CloseLogFile()
	return err
}

func TestRootCommandShowsHelp(t *testing.T) {
	require.NoError(t, execRoot(t))
}

func TestRootCommandRejectsInvalidOutputFormat(t *testing.T) {
	err := execRoot(t, "--output", "yaml", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, constants.ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCommandRejectsVerboseQuietTogether(t *testing.T) {
	err := execRoot(t, "--verbose", "--quiet", "list")
	require.Error(t, err)
	assert.Equal(t, constants.ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCommandUnknownSubcommand(t *testing.T) {
	err := execRoot(t, "rnu")
	require.Error(t, err)
	assert.Equal(t, constants.ExitInvalidInput, ExitCodeForError(err))
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2026-08-25)",
		formatVersion(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-08-25"}))
}

func TestRootCommandHasExpectedSubcommands(t *testing.T) {
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "list", "merge", "report", "clean"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
