package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "gh-pages", s.Branch)
	require.Equal(t, "origin", s.Remote)
	require.False(t, s.Unattended)
	require.False(t, s.DryRun)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "yes: true\nbranch: pages\nbuild_dir: out\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	s, err := Load(dir)
	require.NoError(t, err)
	require.True(t, s.Unattended)
	require.Equal(t, "pages", s.Branch)
	require.Equal(t, "out", s.BuildDir)
	require.Equal(t, "origin", s.Remote)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("branch: pages\ndry_run: false\n"), 0o600))
	t.Setenv(EnvBranch, "deploy")
	t.Setenv(EnvDryRun, "1")

	s, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "deploy", s.Branch)
	require.True(t, s.DryRun)
}

func TestInvalidBooleanEnv(t *testing.T) {
	t.Setenv(EnvYes, "sometimes")
	_, err := Load(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvYes)
}

func TestMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(":\tnot yaml"), 0o600))
	_, err := Load(dir)
	require.Error(t, err)
}
