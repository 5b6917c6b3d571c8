package execx

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell tools")
	}

	t.Run("returns trimmed stdout", func(t *testing.T) {
		out, err := Run(context.Background(), "", "echo", "hello")
		require.NoError(t, err)
		require.Equal(t, "hello", out)
	})

	t.Run("runs in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		out, err := Run(context.Background(), dir, "pwd")
		require.NoError(t, err)
		resolved, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		require.Equal(t, resolved, out)
	})

	t.Run("failure carries the command and stderr", func(t *testing.T) {
		_, err := Run(context.Background(), "", "sh", "-c", "echo broken >&2; exit 3")
		require.Error(t, err)
		require.Contains(t, err.Error(), "broken")
	})
}

func TestRunShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell tools")
	}

	t.Run("streams output to the given file", func(t *testing.T) {
		out, err := os.CreateTemp(t.TempDir(), "out")
		require.NoError(t, err)
		defer out.Close()

		require.NoError(t, RunShell(context.Background(), "", "echo streamed", out, nil))

		contents, err := os.ReadFile(out.Name())
		require.NoError(t, err)
		require.Contains(t, string(contents), "streamed")
	})

	t.Run("non-zero exit is an error", func(t *testing.T) {
		err := RunShell(context.Background(), "", "exit 7", nil, nil)
		require.Error(t, err)
	})
}

func TestLookPath(t *testing.T) {
	require.True(t, LookPath("sh"))
	require.False(t, LookPath("definitely-not-a-real-tool"))
}
