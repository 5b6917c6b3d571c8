package vcs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedRunner records invocations and answers from a canned table
// keyed by the first matching argument prefix.
type scriptedRunner struct {
	calls   []string
	replies map[string]string
	fails   map[string]error
}

func (s *scriptedRunner) run(ctx context.Context, dir string, args ...string) (string, error) {
	call := strings.Join(args, " ")
	s.calls = append(s.calls, call)
	for prefix, err := range s.fails {
		if strings.HasPrefix(call, prefix) {
			return "", err
		}
	}
	for prefix, out := range s.replies {
		if strings.HasPrefix(call, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func newScripted() *scriptedRunner {
	return &scriptedRunner{replies: map[string]string{}, fails: map[string]error{}}
}

func TestCurrentBranch(t *testing.T) {
	s := newScripted()
	s.replies["rev-parse --abbrev-ref HEAD"] = "main"
	g := New("/repo", WithRunner(s.run))

	branch, err := g.CurrentBranch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

func TestNormalizeRemoteURL(t *testing.T) {
	tests := map[string]string{
		"git@github.com:acme/site.git":     "https://github.com/acme/site",
		"https://github.com/acme/site.git": "https://github.com/acme/site",
		"https://github.com/acme/site":     "https://github.com/acme/site",
		" git@gitlab.com:a/b ":             "https://gitlab.com/a/b",
	}
	for in, want := range tests {
		require.Equal(t, want, NormalizeRemoteURL(in), "input %q", in)
	}
}

func TestHasBranch(t *testing.T) {
	s := newScripted()
	s.fails["show-ref --verify --quiet refs/heads/missing"] = errors.New("exit status 1")
	g := New("/repo", WithRunner(s.run))

	require.True(t, g.HasBranch(context.Background(), "gh-pages"))
	require.False(t, g.HasBranch(context.Background(), "missing"))
}

func TestCreateOrphanDiscardsTree(t *testing.T) {
	s := newScripted()
	g := New("/repo", WithRunner(s.run))

	require.NoError(t, g.CreateOrphan(context.Background(), "gh-pages"))
	require.Equal(t, []string{
		"checkout --orphan gh-pages",
		"rm -rfq --ignore-unmatch .",
	}, s.calls)
}

func TestHasStagedChanges(t *testing.T) {
	s := newScripted()
	g := New("/repo", WithRunner(s.run))
	require.False(t, g.HasStagedChanges(context.Background()))

	s.fails["diff --cached --quiet"] = errors.New("exit status 1")
	require.True(t, g.HasStagedChanges(context.Background()))
}

func TestPushForces(t *testing.T) {
	s := newScripted()
	g := New("/repo", WithRunner(s.run))
	require.NoError(t, g.Push(context.Background(), "origin", "gh-pages"))
	require.Equal(t, []string{"push --force origin gh-pages"}, s.calls)
}

func TestInDirKeepsRunner(t *testing.T) {
	s := newScripted()
	g := New("/repo", WithRunner(s.run))
	isolated := g.InDir("/tmp/copy")
	require.Equal(t, "/tmp/copy", isolated.Dir())
	_, err := isolated.CurrentBranch(context.Background())
	require.NoError(t, err)
	require.Len(t, s.calls, 1)
}
