// Package vcs issues coarse version-control operations against an
// external git binary. Each operation reports success or failure only;
// no tool output is parsed beyond presence checks.
package vcs

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/pagelift/pagelift/execx"
)

// Runner executes git with the given arguments in dir and returns its
// trimmed stdout. Swappable for tests.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Git runs version-control operations in a fixed working directory.
type Git struct {
	dir string
	run Runner
}

// Option configures a Git client.
type Option func(*Git)

// WithRunner replaces the process-spawning runner.
func WithRunner(run Runner) Option {
	return func(g *Git) {
		g.run = run
	}
}

// New creates a client operating in dir.
func New(dir string, opts ...Option) *Git {
	g := &Git{
		dir: dir,
		run: func(ctx context.Context, dir string, args ...string) (string, error) {
			return execx.Run(ctx, dir, "git", args...)
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the working directory operations run in.
func (g *Git) Dir() string {
	return g.dir
}

// InDir returns a client identical to g but operating in dir. Used when
// control moves into the isolated copy.
func (g *Git) InDir(dir string) *Git {
	return &Git{dir: dir, run: g.run}
}

// IsRepo reports whether the directory is inside a work tree.
func (g *Git) IsRepo(ctx context.Context) bool {
	_, err := g.run(ctx, g.dir, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := g.run(ctx, g.dir, "rev-parse", "--abbrev-ref", "HEAD")
	return branch, errors.Wrap(err, "resolving current branch")
}

// ShortRev returns the abbreviated revision of HEAD.
func (g *Git) ShortRev(ctx context.Context) (string, error) {
	rev, err := g.run(ctx, g.dir, "rev-parse", "--short", "HEAD")
	return rev, errors.Wrap(err, "resolving short revision")
}

// RemoteURL returns the URL of the named remote.
func (g *Git) RemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := g.run(ctx, g.dir, "remote", "get-url", remote)
	return url, errors.Wrapf(err, "resolving remote %q", remote)
}

// NormalizeRemoteURL rewrites an scp-style remote (git@host:path) into
// URL form and strips a trailing .git suffix. Used for display and for
// comparing remotes, never for pushing.
func NormalizeRemoteURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if rest, found := strings.CutPrefix(url, "git@"); found {
		if host, path, ok := strings.Cut(rest, ":"); ok {
			return "https://" + host + "/" + path
		}
	}
	return url
}

// HasBranch reports whether a local branch reference exists.
func (g *Git) HasBranch(ctx context.Context, branch string) bool {
	_, err := g.run(ctx, g.dir, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// Switch checks out the named branch.
func (g *Git) Switch(ctx context.Context, branch string) error {
	_, err := g.run(ctx, g.dir, "checkout", branch)
	return errors.Wrapf(err, "switching to branch %q", branch)
}

// ForceDeleteBranch removes a local branch reference regardless of its
// merge state.
func (g *Git) ForceDeleteBranch(ctx context.Context, branch string) error {
	_, err := g.run(ctx, g.dir, "branch", "-D", branch)
	return errors.Wrapf(err, "deleting branch %q", branch)
}

// CreateOrphan creates a parentless branch and discards the inherited
// working-tree contents, leaving an empty tree ready to receive output.
func (g *Git) CreateOrphan(ctx context.Context, branch string) error {
	if _, err := g.run(ctx, g.dir, "checkout", "--orphan", branch); err != nil {
		return errors.Wrapf(err, "creating orphan branch %q", branch)
	}
	return g.RemoveTracked(ctx)
}

// RemoveTracked removes all tracked files from the index and working
// tree. Version-control metadata is untouched; this is a selective wipe,
// not a history rewrite.
func (g *Git) RemoveTracked(ctx context.Context) error {
	_, err := g.run(ctx, g.dir, "rm", "-rfq", "--ignore-unmatch", ".")
	return errors.Wrap(err, "removing tracked files")
}

// StageAll stages every change, including deletions and untracked files.
func (g *Git) StageAll(ctx context.Context) error {
	_, err := g.run(ctx, g.dir, "add", "--all")
	return errors.Wrap(err, "staging files")
}

// HasStagedChanges reports whether the staged diff against the branch
// tip is non-empty.
func (g *Git) HasStagedChanges(ctx context.Context) bool {
	// diff --cached exits non-zero when there are staged changes.
	_, err := g.run(ctx, g.dir, "diff", "--cached", "--quiet")
	return err != nil
}

// HasUncommittedChanges reports whether the working tree differs from
// the committed state.
func (g *Git) HasUncommittedChanges(ctx context.Context) bool {
	out, err := g.run(ctx, g.dir, "status", "--porcelain")
	return err == nil && out != ""
}

// Commit records the staged tree with the given message and no further
// prompts or hooks.
func (g *Git) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, g.dir, "commit", "--no-verify", "-m", message)
	return errors.Wrap(err, "committing")
}

// Push publishes the branch to the remote. The hosting branch is rebuilt
// from scratch when recreated, so the push always forces.
func (g *Git) Push(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, g.dir, "push", "--force", remote, branch)
	return errors.Wrapf(err, "pushing %q to %q", branch, remote)
}

// FileOnBranch returns the contents of a file at the tip of a branch.
func (g *Git) FileOnBranch(ctx context.Context, branch, path string) (string, error) {
	out, err := g.run(ctx, g.dir, "show", branch+":"+path)
	return out, errors.Wrapf(err, "reading %s from branch %q", path, branch)
}
