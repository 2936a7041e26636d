package results

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdrun/bdrun/internal/errors"
)

// writeArtifact creates a file with parent dirs.
func writeArtifact(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// mergedNames lists the filenames present in dir, sorted.
func mergedNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func newAggregator() *Aggregator {
	return New(zerolog.Nop())
}

func TestMergeFlattensWorkerDirectories(t *testing.T) {
	root := t.TempDir()
	resultRoot := filepath.Join(root, "allure-results")
	mergedRoot := filepath.Join(root, "merged")

	writeArtifact(t, filepath.Join(resultRoot, "worker-001-aaaa", "1-result.json"), `{"a":1}`)
	writeArtifact(t, filepath.Join(resultRoot, "worker-002-bbbb", "2-result.json"), `{"b":2}`)
	writeArtifact(t, filepath.Join(resultRoot, "worker-002-bbbb", "attach.txt"), "log")
	writeArtifact(t, filepath.Join(resultRoot, "worker-003-cccc", "env.xml"), "<env/>")
	// Unrecognized extensions are left behind.
	writeArtifact(t, filepath.Join(resultRoot, "worker-003-cccc", "screenshot.png"), "png")

	count, err := newAggregator().Merge(resultRoot, mergedRoot)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	assert.Equal(t, []string{"1-result.json", "2-result.json", "attach.txt", "env.xml"}, mergedNames(t, mergedRoot))
}

func TestMergeSkipsEmptyArtifacts(t *testing.T) {
	root := t.TempDir()
	resultRoot := filepath.Join(root, "results")
	mergedRoot := filepath.Join(root, "merged")

	writeArtifact(t, filepath.Join(resultRoot, "w1", "good.json"), `{}`)
	writeArtifact(t, filepath.Join(resultRoot, "w1", "corrupt.json"), "")

	count, err := newAggregator().Merge(resultRoot, mergedRoot)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"good.json"}, mergedNames(t, mergedRoot))
}

func TestMergeIsIdempotent(t *testing.T) {
	root := t.TempDir()
	resultRoot := filepath.Join(root, "results")
	mergedRoot := filepath.Join(root, "merged")

	writeArtifact(t, filepath.Join(resultRoot, "w1", "one.json"), `{"n":1}`)
	writeArtifact(t, filepath.Join(resultRoot, "w2", "two.json"), `{"n":2}`)

	first, err := newAggregator().Merge(resultRoot, mergedRoot)
	require.NoError(t, err)
	second, err := newAggregator().Merge(resultRoot, mergedRoot)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"one.json", "two.json"}, mergedNames(t, mergedRoot))
}

func TestMergeCollisionLastWriteWins(t *testing.T) {
	root := t.TempDir()
	resultRoot := filepath.Join(root, "results")
	mergedRoot := filepath.Join(root, "merged")

	// Two workers producing the same filename is a selector defect; the
	// merge must not fail, and the later copy wins.
	writeArtifact(t, filepath.Join(resultRoot, "w1", "same.json"), `{"from":"w1"}`)
	writeArtifact(t, filepath.Join(resultRoot, "w2", "same.json"), `{"from":"w2"}`)

	count, err := newAggregator().Merge(resultRoot, mergedRoot)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := os.ReadFile(filepath.Join(mergedRoot, "same.json")) //nolint:gosec // test-owned path
	require.NoError(t, err)
	assert.Contains(t, string(data), "w2")
}

func TestMergeNoArtifactsFails(t *testing.T) {
	root := t.TempDir()
	resultRoot := filepath.Join(root, "results")
	require.NoError(t, os.MkdirAll(filepath.Join(resultRoot, "w1"), 0o750))

	_, err := newAggregator().Merge(resultRoot, filepath.Join(root, "merged"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoResults)
}

func TestMergeMissingResultRootFails(t *testing.T) {
	root := t.TempDir()

	_, err := newAggregator().Merge(filepath.Join(root, "nope"), filepath.Join(root, "merged"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoResults)
}

func TestClean(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "allure-results")
	writeArtifact(t, filepath.Join(existing, "w1", "r.json"), `{}`)

	agg := newAggregator()
	require.NoError(t, agg.Clean(existing, filepath.Join(root, "missing"), ""))

	_, err := os.Stat(existing)
	assert.True(t, os.IsNotExist(err))
}
