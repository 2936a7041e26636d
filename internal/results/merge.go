// Package results consolidates per-worker result artifacts into one
// unified directory for report generation.
//
// Result artifact sets are append-only: workers write them, the
// aggregator only copies. The aggregator runs single-threaded after all
// workers have exited, so there is no concurrent-write hazard on the
// merged directory.
package results

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bdrun/bdrun/internal/errors"
)

// artifactExtensions are the recognized structured-result file types
// written by the engine's formatter.
var artifactExtensions = map[string]struct{}{ //nolint:gochecknoglobals // Package-level lookup table
	".json": {},
	".txt":  {},
	".xml":  {},
}

// Aggregator merges per-worker result directories.
type Aggregator struct {
	logger zerolog.Logger
}

// New creates an Aggregator.
func New(logger zerolog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Merge recursively finds every result artifact under resultRoot
// (including per-worker subdirectories) and copies each into mergedRoot,
// flattening directory structure. It returns the number of files merged.
//
// Empty (zero-byte) artifacts indicate an interrupted formatter and are
// skipped rather than copied. Filename collisions are copy-overwritten
// (last write wins) with a warning: worker result directories are
// process-unique, so a collision indicates a selector defect, and
// preserving the remaining artifacts beats failing the merge.
//
// Returns errors.ErrNoResults if zero artifacts are found, since that
// signals the engine did not write results as expected.
func (a *Aggregator) Merge(resultRoot, mergedRoot string) (int, error) {
	if _, err := os.Stat(resultRoot); err != nil {
		return 0, errors.Wrapf(errors.ErrNoResults, "result root %s missing", resultRoot)
	}

	if err := os.MkdirAll(mergedRoot, 0o750); err != nil {
		return 0, errors.Wrapf(err, "cannot create merged dir %s", mergedRoot)
	}

	merged := 0
	seen := make(map[string]string) // filename -> source path, for collision warnings

	walkErr := filepath.WalkDir(resultRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isArtifact(path) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if info.Size() == 0 {
			a.logger.Warn().Str("file", path).Msg("skipping empty result artifact")
			return nil
		}

		name := filepath.Base(path)
		if prev, ok := seen[name]; ok {
			a.logger.Warn().
				Str("file", name).
				Str("kept", path).
				Str("overwritten", prev).
				Msg("result artifact filename collision, last write wins")
		}
		seen[name] = path

		if copyErr := copyFile(path, filepath.Join(mergedRoot, name)); copyErr != nil {
			return errors.Wrapf(copyErr, "failed to copy %s", name)
		}
		merged++
		return nil
	})
	if walkErr != nil {
		return merged, errors.Wrap(walkErr, "merge walk failed")
	}

	if merged == 0 {
		return 0, errors.Wrapf(errors.ErrNoResults, "no artifacts under %s", resultRoot)
	}

	a.logger.Info().
		Int("files", merged).
		Str("merged_dir", mergedRoot).
		Msg("results merged")

	return merged, nil
}

// Clean removes previous result, merged, and report directories.
// Missing directories are not an error.
func (a *Aggregator) Clean(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "failed to clean %s", dir)
		}
		a.logger.Info().Str("dir", dir).Msg("cleaned")
	}
	return nil
}

// isArtifact reports whether path has a recognized artifact extension.
func isArtifact(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := artifactExtensions[ext]
	return ok
}

// copyFile copies src to dst, truncating dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from local directory walk
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) //nolint:gosec // merged dir is run-local output
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
