// Package workspace builds the throwaway copy of the project that all
// destructive publish operations run inside, keeping the caller's
// working tree untouched.
package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pagelift/pagelift/archive"
)

const (
	archiveName = "site.tar.gz"
	copyName    = "copy"
)

// ErrCorruptArchive marks a snapshot archive that failed its integrity
// check. No retry can help; the archive has to be rebuilt from changed
// inputs.
var ErrCorruptArchive = errors.New("snapshot archive failed verification")

// Snapshot owns a private directory, the archive inside it, and the
// extracted working copy once expanded. It is exclusively owned by the
// pipeline run until released.
type Snapshot struct {
	dir         string
	archivePath string
	copyDir     string
	archiver    *archive.Tar
}

// NewSnapshot allocates a fresh private directory with restrictive
// permissions and computes the archive's target path inside it.
func NewSnapshot(archiver *archive.Tar) (*Snapshot, error) {
	dir, err := os.MkdirTemp("", "pagelift-")
	if err != nil {
		return nil, errors.Wrap(err, "allocating private directory")
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "restricting private directory")
	}
	return &Snapshot{
		dir:         dir,
		archivePath: filepath.Join(dir, archiveName),
		archiver:    archiver,
	}, nil
}

// Dir returns the private directory.
func (s *Snapshot) Dir() string {
	return s.dir
}

// ArchivePath returns the archive's path inside the private directory.
func (s *Snapshot) ArchivePath() string {
	return s.archivePath
}

// CopyDir returns the extracted working copy, or empty before Extract.
func (s *Snapshot) CopyDir() string {
	return s.copyDir
}

// Archive snapshots projectRoot into the private archive and verifies
// its integrity before anything is allowed to depend on it.
func (s *Snapshot) Archive(ctx context.Context, projectRoot string, exclusions []string) error {
	if err := s.archiver.Create(ctx, projectRoot, s.archivePath, exclusions); err != nil {
		return err
	}
	if err := s.archiver.Verify(ctx, s.archivePath); err != nil {
		return errors.Wrapf(ErrCorruptArchive, "%v", err)
	}
	return nil
}

// Extract expands the archive into a nested working directory inside the
// private directory and records it as the working copy.
func (s *Snapshot) Extract(ctx context.Context) (string, error) {
	copyDir := filepath.Join(s.dir, copyName)
	if err := os.MkdirAll(copyDir, 0o700); err != nil {
		return "", errors.Wrap(err, "creating working copy directory")
	}
	if err := s.archiver.Extract(ctx, s.archivePath, copyDir); err != nil {
		return "", err
	}
	s.copyDir = copyDir
	return copyDir, nil
}

// Remove discards the private directory and everything inside it.
// Missing paths are not an error; release runs on every exit path and
// may race a failed construction.
func (s *Snapshot) Remove() error {
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	return errors.Wrap(err, "removing private directory")
}
