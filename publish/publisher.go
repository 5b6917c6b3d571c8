// Package publish drives the hosting branch of an isolated repository
// copy from its current state to one holding exactly the built site.
// Everything here runs inside the disposable copy; the caller's tree is
// never touched.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/pagelift/pagelift/retry"
)

// Marker suppresses the hosting platform's default site processing.
const Marker = ".nojekyll"

// DomainFile maps a custom domain; carried forward from the source
// branch when present.
const DomainFile = "CNAME"

// GitClient is the slice of version control the publisher needs. Each
// operation reports success or failure only.
type GitClient interface {
	ShortRev(ctx context.Context) (string, error)
	HasBranch(ctx context.Context, branch string) bool
	Switch(ctx context.Context, branch string) error
	ForceDeleteBranch(ctx context.Context, branch string) error
	CreateOrphan(ctx context.Context, branch string) error
	RemoveTracked(ctx context.Context) error
	StageAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) bool
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, remote, branch string) error
	FileOnBranch(ctx context.Context, branch, path string) (string, error)
}

// TargetState describes how the hosting branch converged to an empty
// tree ready to receive output.
type TargetState string

const (
	// TargetCreated: the branch was absent and created parentless.
	TargetCreated TargetState = "created"
	// TargetPresentClean: the branch existed, switched to, and its
	// tracked files were selectively wiped.
	TargetPresentClean TargetState = "present-clean"
	// TargetRecreated: switching failed, so the branch reference was
	// force-deleted and recreated parentless.
	TargetRecreated TargetState = "recreated"
)

// Options configures a publish run inside the isolated copy.
type Options struct {
	// Git operates in the isolated copy's root.
	Git GitClient

	// Dir is the isolated copy's root on disk.
	Dir string

	// OutputDir is the build output directory, relative to Dir.
	OutputDir string

	// Branch is the hosting branch.
	Branch string

	// Remote receives the push.
	Remote string

	// SourceBranch is the branch the site was built from; recorded in
	// the commit message and consulted for the domain file.
	SourceBranch string

	// Framework is recorded in the commit message.
	Framework string

	// DryRun stops after the commit and reports the push that would
	// have happened.
	DryRun bool

	// Confirm, when non-nil, is asked before pushing. Declining skips
	// the push without failing. Unattended runs leave it nil.
	Confirm func(ctx context.Context) (bool, error)

	// PushPolicy bounds push retries. Zero value falls back to the
	// default policy.
	PushPolicy retry.Policy

	Logger *slog.Logger

	// Now is the commit timestamp source. Tests pin it.
	Now func() time.Time
}

// Result reports what the publisher did.
type Result struct {
	TargetState      TargetState
	CommitMessage    string
	Committed        bool
	Pushed           bool
	NothingToPublish bool
	DryRun           bool
	PushDeclined     bool
}

// Publisher executes the publish state machine.
type Publisher struct {
	opts Options
}

// New validates options and creates a publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Git == nil {
		return nil, fmt.Errorf("git client is required")
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Branch == "" {
		return nil, fmt.Errorf("hosting branch is required")
	}
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.PushPolicy.MaxAttempts == 0 {
		opts.PushPolicy = retry.DefaultPolicy
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Publisher{opts: opts}, nil
}

// Run drives the branch through target resolution, populate, stage &
// diff, commit, and publish.
func (p *Publisher) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	state, err := p.resolveTarget(ctx)
	if err != nil {
		return nil, err
	}
	result.TargetState = state
	p.opts.Logger.Info("hosting branch ready", "branch", p.opts.Branch, "state", state)

	if err := p.populate(ctx); err != nil {
		return nil, err
	}

	if err := p.opts.Git.StageAll(ctx); err != nil {
		return nil, err
	}
	if !p.opts.Git.HasStagedChanges(ctx) {
		p.opts.Logger.Info("nothing to publish", "branch", p.opts.Branch)
		result.NothingToPublish = true
		return result, nil
	}

	message := p.commitMessage(ctx)
	if err := p.opts.Git.Commit(ctx, message); err != nil {
		return nil, err
	}
	result.Committed = true
	result.CommitMessage = message

	return p.publish(ctx, result)
}

// resolveTarget converges the hosting branch to an empty working tree.
func (p *Publisher) resolveTarget(ctx context.Context) (TargetState, error) {
	git, branch := p.opts.Git, p.opts.Branch

	if !git.HasBranch(ctx, branch) {
		if err := git.CreateOrphan(ctx, branch); err != nil {
			return "", err
		}
		return TargetCreated, nil
	}

	if err := git.Switch(ctx, branch); err != nil {
		// A branch that cannot be switched to is treated as corrupt:
		// drop the reference and start it over parentless.
		p.opts.Logger.Warn("hosting branch unusable, recreating", "branch", branch, "error", err)
		if err := git.ForceDeleteBranch(ctx, branch); err != nil {
			return "", err
		}
		if err := git.CreateOrphan(ctx, branch); err != nil {
			return "", err
		}
		return TargetRecreated, nil
	}

	if err := git.RemoveTracked(ctx); err != nil {
		return "", err
	}
	return TargetPresentClean, nil
}

// populate copies the build output into the working-tree root, writes
// the platform marker, and carries the domain file forward.
func (p *Publisher) populate(ctx context.Context) error {
	outputPath := filepath.Join(p.opts.Dir, p.opts.OutputDir)
	if err := copyTree(outputPath, p.opts.Dir); err != nil {
		return errors.Wrapf(err, "copying %s into working tree", p.opts.OutputDir)
	}
	// The output directory sits untracked in the copy; left in place it
	// would be staged too, committing the site a second time under it.
	if err := os.RemoveAll(outputPath); err != nil {
		return errors.Wrapf(err, "removing %s after copy", p.opts.OutputDir)
	}

	markerPath := filepath.Join(p.opts.Dir, Marker)
	if err := os.WriteFile(markerPath, nil, 0o644); err != nil {
		return errors.Wrap(err, "writing platform marker")
	}

	if p.opts.SourceBranch != "" {
		domain, err := p.opts.Git.FileOnBranch(ctx, p.opts.SourceBranch, DomainFile)
		if err == nil && domain != "" {
			domainPath := filepath.Join(p.opts.Dir, DomainFile)
			if err := os.WriteFile(domainPath, []byte(domain+"\n"), 0o644); err != nil {
				return errors.Wrap(err, "carrying domain file forward")
			}
		}
	}
	return nil
}

func (p *Publisher) commitMessage(ctx context.Context) string {
	rev, err := p.opts.Git.ShortRev(ctx)
	if err != nil {
		rev = "unknown"
	}
	return fmt.Sprintf("Deploy %s site from %s@%s (%s) at %s",
		p.opts.Framework, p.opts.SourceBranch, rev, p.opts.OutputDir,
		p.opts.Now().Format(time.RFC3339))
}

// publish pushes the commit, honoring dry-run and the interactive
// confirmation. Retries are bounded; exhausting them is fatal with no
// partial-success outcome.
func (p *Publisher) publish(ctx context.Context, result *Result) (*Result, error) {
	if p.opts.DryRun {
		p.opts.Logger.Info("dry run: skipping push",
			"branch", p.opts.Branch, "remote", p.opts.Remote)
		result.DryRun = true
		return result, nil
	}

	if p.opts.Confirm != nil {
		ok, err := p.opts.Confirm(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.opts.Logger.Info("push declined; commit remains local in the disposable copy")
			result.PushDeclined = true
			return result, nil
		}
	}

	err := p.opts.PushPolicy.Do(ctx, func() error {
		if err := p.opts.Git.Push(ctx, p.opts.Remote, p.opts.Branch); err != nil {
			p.opts.Logger.Warn("push attempt failed", "error", err)
			return retry.NewRecoverableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pushing %s to %s", p.opts.Branch, p.opts.Remote)
	}
	result.Pushed = true
	return result, nil
}

// copyTree copies src's contents, hidden entries included, into dest,
// overwriting existing files.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
