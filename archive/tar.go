// Package archive snapshots a project tree by invoking an external tar
// binary. Creation honors an exclusion list; verification trusts the
// archiver's own integrity check. Both are boolean-result operations.
package archive

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/pagelift/pagelift/execx"
)

// DefaultExclusions lists patterns never worth carrying into an isolated
// copy: dependency caches, logs, temp files, and build-tool caches. The
// .git directory is deliberately NOT excluded; the extracted copy must
// remain a working repository.
var DefaultExclusions = []string{
	"node_modules",
	".cache",
	".parcel-cache",
	".next/cache",
	"*.log",
	"*.tmp",
	".DS_Store",
}

// Runner executes tar with the given arguments in dir. Swappable for tests.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Tar creates and verifies compressed snapshots of a directory tree.
type Tar struct {
	run Runner
}

// Option configures a Tar archiver.
type Option func(*Tar)

// WithRunner replaces the process-spawning runner.
func WithRunner(run Runner) Option {
	return func(t *Tar) {
		t.run = run
	}
}

// New creates an archiver.
func New(opts ...Option) *Tar {
	t := &Tar{
		run: func(ctx context.Context, dir string, args ...string) (string, error) {
			return execx.Run(ctx, dir, "tar", args...)
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create snapshots srcDir into a gzip-compressed archive at destPath,
// skipping the given exclusion patterns.
func (t *Tar) Create(ctx context.Context, srcDir, destPath string, exclusions []string) error {
	args := []string{"-czf", destPath}
	for _, pattern := range exclusions {
		args = append(args, "--exclude", pattern)
	}
	args = append(args, ".")
	if _, err := t.run(ctx, srcDir, args...); err != nil {
		return errors.Wrapf(err, "archiving %s", srcDir)
	}
	return nil
}

// Verify checks that the archive opens and its internal integrity check
// passes. A non-zero result means the snapshot is unusable.
func (t *Tar) Verify(ctx context.Context, archivePath string) error {
	if _, err := os.Stat(archivePath); err != nil {
		return errors.Wrap(err, "archive missing")
	}
	if _, err := t.run(ctx, "", "-tzf", archivePath); err != nil {
		return errors.Wrapf(err, "archive %s failed integrity check", archivePath)
	}
	return nil
}

// Extract expands the archive into destDir, preserving hidden entries.
func (t *Tar) Extract(ctx context.Context, archivePath, destDir string) error {
	if _, err := t.run(ctx, destDir, "-xzf", archivePath); err != nil {
		return errors.Wrapf(err, "extracting %s", archivePath)
	}
	return nil
}
