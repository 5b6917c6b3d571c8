package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/retry"
)

type fakeGit struct {
	hasBranch bool
	switchErr error
	staged    bool
	pushErr   error
	pushCount int
	domain    string
	domainErr error
	calls     []string
	commitMsg string

	// stageDir, when set, makes StageAll record the working-tree files
	// it would stage, so tests can inspect the branch's final contents.
	stageDir    string
	stagedFiles []string
}

func (f *fakeGit) ShortRev(ctx context.Context) (string, error) { return "abc1234", nil }

func (f *fakeGit) HasBranch(ctx context.Context, branch string) bool { return f.hasBranch }

func (f *fakeGit) Switch(ctx context.Context, branch string) error {
	f.calls = append(f.calls, "switch "+branch)
	return f.switchErr
}

func (f *fakeGit) ForceDeleteBranch(ctx context.Context, branch string) error {
	f.calls = append(f.calls, "delete "+branch)
	return nil
}

func (f *fakeGit) CreateOrphan(ctx context.Context, branch string) error {
	f.calls = append(f.calls, "orphan "+branch)
	return nil
}

func (f *fakeGit) RemoveTracked(ctx context.Context) error {
	f.calls = append(f.calls, "wipe")
	return nil
}

func (f *fakeGit) StageAll(ctx context.Context) error {
	f.calls = append(f.calls, "stage")
	if f.stageDir == "" {
		return nil
	}
	return filepath.WalkDir(f.stageDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(f.stageDir, path)
		if err != nil {
			return err
		}
		f.stagedFiles = append(f.stagedFiles, filepath.ToSlash(rel))
		return nil
	})
}

func (f *fakeGit) HasStagedChanges(ctx context.Context) bool { return f.staged }

func (f *fakeGit) Commit(ctx context.Context, message string) error {
	f.calls = append(f.calls, "commit")
	f.commitMsg = message
	return nil
}

func (f *fakeGit) Push(ctx context.Context, remote, branch string) error {
	f.pushCount++
	f.calls = append(f.calls, "push")
	return f.pushErr
}

func (f *fakeGit) FileOnBranch(ctx context.Context, branch, path string) (string, error) {
	if f.domainErr != nil {
		return "", f.domainErr
	}
	return f.domain, nil
}

// newCopyDir lays out an isolated-copy directory with build output.
func newCopyDir(t *testing.T, outputDir string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, outputDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func testOptions(t *testing.T, git *fakeGit, dir string) Options {
	t.Helper()
	return Options{
		Git:          git,
		Dir:          dir,
		OutputDir:    "build",
		Branch:       "gh-pages",
		Remote:       "origin",
		SourceBranch: "main",
		Framework:    "react",
		PushPolicy:   retry.Policy{MaxAttempts: 3, Delay: time.Millisecond},
		Now:          func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestTargetAbsentIsCreated(t *testing.T) {
	git := &fakeGit{hasBranch: false, staged: true, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, TargetCreated, result.TargetState)
	require.True(t, result.Committed)
	require.True(t, result.Pushed)
	require.Equal(t, 1, git.pushCount)
}

func TestTargetPresentCleanIsWiped(t *testing.T) {
	git := &fakeGit{hasBranch: true, staged: true, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, TargetPresentClean, result.TargetState)
	require.Contains(t, git.calls, "switch gh-pages")
	require.Contains(t, git.calls, "wipe")
	require.NotContains(t, git.calls, "delete gh-pages")
}

func TestCorruptTargetIsRecreated(t *testing.T) {
	git := &fakeGit{
		hasBranch: true,
		switchErr: errors.New("reference broken"),
		staged:    true,
		domainErr: errors.New("no file"),
	}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, TargetRecreated, result.TargetState)
	require.Contains(t, git.calls, "delete gh-pages")
	require.Contains(t, git.calls, "orphan gh-pages")
}

func TestNothingToPublish(t *testing.T) {
	git := &fakeGit{hasBranch: true, staged: false, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.NothingToPublish)
	require.False(t, result.Committed)
	require.NotContains(t, git.calls, "commit")
	require.Zero(t, git.pushCount)
}

func TestPopulateWritesMarkerAndHiddenFiles(t *testing.T) {
	git := &fakeGit{staged: true, domain: "example.com"}
	dir := newCopyDir(t, "build", map[string]string{
		"index.html":       "hello",
		".wellknown/x.txt": "hidden",
	})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, Marker))
	require.NoError(t, err, "platform marker written")

	content, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))

	_, err = os.Stat(filepath.Join(dir, ".wellknown", "x.txt"))
	require.NoError(t, err, "hidden entries copied")

	domain, err := os.ReadFile(filepath.Join(dir, DomainFile))
	require.NoError(t, err)
	require.Equal(t, "example.com\n", string(domain))
}

func TestBranchHoldsOnlyPopulatedOutput(t *testing.T) {
	git := &fakeGit{hasBranch: true, staged: true, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{
		"index.html":    "hello",
		"assets/app.js": "app",
	})
	git.stageDir = dir
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// The wiped branch receives the output's contents plus the marker;
	// the output directory itself must not survive into the commit.
	require.ElementsMatch(t, []string{Marker, "assets/app.js", "index.html"}, git.stagedFiles)
	require.NoDirExists(t, filepath.Join(dir, "build"))
}

func TestCommitMessageContents(t *testing.T) {
	git := &fakeGit{staged: true, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, git.commitMsg, "react")
	require.Contains(t, git.commitMsg, "main@abc1234")
	require.Contains(t, git.commitMsg, "(build)")
	require.Contains(t, git.commitMsg, "2026-01-02T03:04:05Z")
}

func TestDryRunCommitsButNeverPushes(t *testing.T) {
	git := &fakeGit{staged: true, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	opts := testOptions(t, git, dir)
	opts.DryRun = true
	p, err := New(opts)
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Committed)
	require.True(t, result.DryRun)
	require.False(t, result.Pushed)
	require.Zero(t, git.pushCount)
}

func TestPushRetryExhaustionIsFatal(t *testing.T) {
	git := &fakeGit{staged: true, pushErr: errors.New("connection refused"), domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	p, err := New(testOptions(t, git, dir))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, 3, git.pushCount)
}

func TestPushConfirmationDeclinedSkipsPush(t *testing.T) {
	git := &fakeGit{staged: true, domainErr: errors.New("no file")}
	dir := newCopyDir(t, "build", map[string]string{"index.html": "hello"})
	opts := testOptions(t, git, dir)
	opts.Confirm = func(ctx context.Context) (bool, error) { return false, nil }
	p, err := New(opts)
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Committed)
	require.True(t, result.PushDeclined)
	require.False(t, result.Pushed)
	require.Zero(t, git.pushCount)
}
