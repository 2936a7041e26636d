package invoker

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdrun/bdrun/internal/config"
	"github.com/bdrun/bdrun/internal/constants"
	"github.com/bdrun/bdrun/internal/domain"
	"github.com/bdrun/bdrun/internal/errors"
)

// fakeEngine writes an executable shell script that mimics the engine:
// it locates the -o argument, writes one result artifact there, and exits
// with $FAKE_ENGINE_EXIT (default 0).
const fakeEngineScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
if [ -n "$out" ]; then
  echo "{\"worker\":\"$BDRUN_WORKER_ID\"}" > "$out/result.json"
fi
exit ${FAKE_ENGINE_EXIT:-0}
`

func writeFakeEngine(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine script requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-engine")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700)) //nolint:gosec // test script must be executable
	return path
}

func testConfig(t *testing.T, engineBinary string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Engine.Binary = engineBinary
	cfg.Paths.ResultsDir = filepath.Join(t.TempDir(), "allure-results")
	return cfg
}

// mockExecutor records the command it was asked to run.
type mockExecutor struct {
	lastCmd *exec.Cmd
	err     error
}

func (m *mockExecutor) Execute(_ context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	m.lastCmd = cmd
	return nil, nil, m.err
}

func TestExecuteSuccessWritesArtifacts(t *testing.T) {
	engine := writeFakeEngine(t, fakeEngineScript)
	cfg := testConfig(t, engine)
	inv := New(cfg, WithLogger(zerolog.Nop()))

	item := domain.WorkItem{Kind: domain.KindFeature, Feature: "features/login.feature"}
	result, err := inv.Execute(context.Background(), item)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Passed())
	assert.Equal(t, item, result.Item)
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))

	// The engine wrote into this invocation's own namespace.
	artifact := filepath.Join(result.ResultDir, "result.json")
	data, readErr := os.ReadFile(artifact) //nolint:gosec // test-owned path
	require.NoError(t, readErr)
	assert.Contains(t, string(data), result.WorkerID)
}

func TestExecuteFailingTestIsNotAnError(t *testing.T) {
	engine := writeFakeEngine(t, fakeEngineScript)
	cfg := testConfig(t, engine)
	inv := New(cfg)
	t.Setenv("FAKE_ENGINE_EXIT", "3")

	result, err := inv.Execute(context.Background(), domain.WorkItem{
		Kind: domain.KindScenario, Feature: "features/cart.feature", Line: 12,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Passed())
	assert.NoError(t, result.Err)
}

func TestExecuteMissingBinaryIsLaunchError(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "does-not-exist"))
	inv := New(cfg)

	result, err := inv.Execute(context.Background(), domain.WorkItem{
		Kind: domain.KindFeature, Feature: "features/login.feature",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrWorkerLaunch)
	assert.Equal(t, constants.LaunchFailureExitCode, result.ExitCode)
}

func TestExecuteTimeoutIsRecordedNotRaised(t *testing.T) {
	engine := writeFakeEngine(t, "#!/bin/sh\nexec sleep 5\n")
	cfg := testConfig(t, engine)
	cfg.Runner.Timeout = 100 * time.Millisecond
	inv := New(cfg)

	start := time.Now()
	result, err := inv.Execute(context.Background(), domain.WorkItem{
		Kind: domain.KindFeature, Feature: "features/slow.feature",
	})

	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, errors.ErrWorkerTimeout)
	assert.Equal(t, constants.LaunchFailureExitCode, result.ExitCode)
	assert.False(t, result.Passed())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteDistinctWorkerIDs(t *testing.T) {
	engine := writeFakeEngine(t, fakeEngineScript)
	cfg := testConfig(t, engine)
	inv := New(cfg)

	item := domain.WorkItem{Kind: domain.KindFeature, Feature: "features/a.feature"}
	first, err := inv.Execute(context.Background(), item)
	require.NoError(t, err)
	second, err := inv.Execute(context.Background(), item)
	require.NoError(t, err)

	assert.NotEqual(t, first.WorkerID, second.WorkerID)
	assert.NotEqual(t, first.ResultDir, second.ResultDir)
}

func TestBuildCommandArguments(t *testing.T) {
	cfg := testConfig(t, "behave")
	cfg.Engine.Tags = "@smoke"
	mock := &mockExecutor{}
	inv := New(cfg, WithExecutor(mock))

	item := domain.WorkItem{Kind: domain.KindScenario, Feature: "features/login.feature", Line: 7}
	result, err := inv.Execute(context.Background(), item)
	require.NoError(t, err)

	require.NotNil(t, mock.lastCmd)
	args := mock.lastCmd.Args
	// behave <location> --no-capture --no-color --tags @smoke --format <fmt> -o <dir>
	assert.Equal(t, "features/login.feature:7", args[1])
	assert.Contains(t, args, "--no-capture")
	assert.Contains(t, args, "--no-color")
	assert.Contains(t, args, "--tags")
	assert.Contains(t, args, "@smoke")
	assert.Contains(t, args, "--format")
	assert.Contains(t, args, constants.DefaultAllureFormatter)
	assert.Contains(t, args, "-o")
	assert.Contains(t, args, result.ResultDir)

	// Worker identity is exported into the child environment.
	assert.Contains(t, mock.lastCmd.Env, constants.WorkerIDEnvVar+"="+result.WorkerID)
}

func TestExecuteCreatesResultDirBeforeLaunch(t *testing.T) {
	cfg := testConfig(t, "behave")
	mock := &mockExecutor{}
	inv := New(cfg, WithExecutor(mock))

	result, err := inv.Execute(context.Background(), domain.WorkItem{
		Kind: domain.KindFeature, Feature: "features/login.feature",
	})
	require.NoError(t, err)

	info, statErr := os.Stat(result.ResultDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}
