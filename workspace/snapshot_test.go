package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/archive"
)

// fakeArchiver simulates tar on the real filesystem: create writes the
// archive file, extract drops a sentinel into the destination.
func fakeArchiver(calls *[][]string) *archive.Tar {
	runner := func(ctx context.Context, dir string, args ...string) (string, error) {
		*calls = append(*calls, args)
		switch args[0] {
		case "-czf":
			return "", os.WriteFile(args[1], []byte("archive"), 0o600)
		case "-xzf":
			return "", os.WriteFile(filepath.Join(dir, "index.html"), []byte("site"), 0o644)
		default:
			return "", nil
		}
	}
	return archive.New(archive.WithRunner(runner))
}

func TestSnapshotLifecycle(t *testing.T) {
	var calls [][]string
	snapshot, err := NewSnapshot(fakeArchiver(&calls))
	require.NoError(t, err)
	defer snapshot.Remove()

	require.DirExists(t, snapshot.Dir())
	require.Equal(t, filepath.Join(snapshot.Dir(), "site.tar.gz"), snapshot.ArchivePath())
	require.Empty(t, snapshot.CopyDir())

	require.NoError(t, snapshot.Archive(context.Background(), t.TempDir(), archive.DefaultExclusions))
	require.FileExists(t, snapshot.ArchivePath())

	copyDir, err := snapshot.Extract(context.Background())
	require.NoError(t, err)
	require.Equal(t, copyDir, snapshot.CopyDir())
	require.FileExists(t, filepath.Join(copyDir, "index.html"))

	// Create, verify, extract.
	require.Len(t, calls, 3)
	require.Equal(t, "-czf", calls[0][0])
	require.Equal(t, "-tzf", calls[1][0])
	require.Equal(t, "-xzf", calls[2][0])

	require.NoError(t, snapshot.Remove())
	require.NoDirExists(t, snapshot.Dir())
}

func TestSnapshotDirIsPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are unix-only")
	}
	var calls [][]string
	snapshot, err := NewSnapshot(fakeArchiver(&calls))
	require.NoError(t, err)
	defer snapshot.Remove()

	info, err := os.Stat(snapshot.Dir())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestSnapshotRemoveIsIdempotent(t *testing.T) {
	var calls [][]string
	snapshot, err := NewSnapshot(fakeArchiver(&calls))
	require.NoError(t, err)

	require.NoError(t, snapshot.Remove())
	require.NoError(t, snapshot.Remove())
}

func TestSnapshotVerifyFailureIsCorruptArchive(t *testing.T) {
	runner := func(ctx context.Context, dir string, args ...string) (string, error) {
		switch args[0] {
		case "-czf":
			return "", os.WriteFile(args[1], []byte("archive"), 0o600)
		case "-tzf":
			return "", errors.New("gzip: unexpected end of file")
		default:
			return "", nil
		}
	}
	snapshot, err := NewSnapshot(archive.New(archive.WithRunner(runner)))
	require.NoError(t, err)
	defer snapshot.Remove()

	err = snapshot.Archive(context.Background(), t.TempDir(), nil)
	require.ErrorIs(t, err, ErrCorruptArchive)
}

func TestSnapshotArchiveFailureSurfaces(t *testing.T) {
	runner := func(ctx context.Context, dir string, args ...string) (string, error) {
		return "", os.ErrPermission
	}
	snapshot, err := NewSnapshot(archive.New(archive.WithRunner(runner)))
	require.NoError(t, err)
	defer snapshot.Remove()

	err = snapshot.Archive(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
}
