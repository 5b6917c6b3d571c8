// Package deploy assembles the publishing pipeline: six fixed steps
// that validate the environment, build the site, snapshot the project
// into an isolated copy, and publish from that copy. Step bodies fail
// fast with a descriptive cause and never roll back locally; the
// resource guard owns restoration.
package deploy

import (
	"context"
	"io"
	"log/slog"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/archive"
	"github.com/pagelift/pagelift/config"
	"github.com/pagelift/pagelift/guard"
	"github.com/pagelift/pagelift/prompt"
	"github.com/pagelift/pagelift/publish"
	"github.com/pagelift/pagelift/vcs"
	"github.com/pagelift/pagelift/workspace"
)

// Deployment carries the shared state of one pipeline run. Fields above
// the divider are fixed at construction; the rest are established by
// early steps and read by later ones.
type Deployment struct {
	Settings    *config.Settings
	Framework   config.Framework
	ProjectRoot string
	Git         *vcs.Git
	Archiver    *archive.Tar
	Engine      *prompt.Engine
	Guard       *guard.Guard
	Logger      *slog.Logger

	// Established during the run.
	RemoteURL    string
	SourceBranch string
	Snapshot     *workspace.Snapshot
	Result       *publish.Result

	// Swappable for tests.
	checkNet func(ctx context.Context, remoteURL string) error
	tools    []string
}

// Options configures a deployment.
type Options struct {
	Settings    *config.Settings
	Framework   config.Framework
	ProjectRoot string
	Engine      *prompt.Engine
	Guard       *guard.Guard
	Logger      *slog.Logger

	// Git and Archiver default to real process-spawning collaborators.
	Git      *vcs.Git
	Archiver *archive.Tar
}

// NewDeployment wires the collaborators for a run rooted at ProjectRoot.
func NewDeployment(opts Options) (*Deployment, error) {
	if opts.Settings == nil {
		return nil, pagelift.NewUsageError("settings are required")
	}
	if opts.ProjectRoot == "" {
		return nil, pagelift.NewUsageError("project root is required")
	}
	if opts.Engine == nil {
		return nil, pagelift.NewUsageError("confirmation engine is required")
	}
	if opts.Guard == nil {
		return nil, pagelift.NewUsageError("resource guard is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Git == nil {
		opts.Git = vcs.New(opts.ProjectRoot)
	}
	if opts.Archiver == nil {
		opts.Archiver = archive.New()
	}
	return &Deployment{
		Settings:    opts.Settings,
		Framework:   opts.Framework,
		ProjectRoot: opts.ProjectRoot,
		Git:         opts.Git,
		Archiver:    opts.Archiver,
		Engine:      opts.Engine,
		Guard:       opts.Guard,
		Logger:      opts.Logger,
		checkNet:    checkConnectivity,
		tools:       requiredTools,
	}, nil
}

// NewPipeline assembles the fixed step sequence for the deployment.
func NewPipeline(d *Deployment) (*pagelift.Pipeline, error) {
	return pagelift.New(pagelift.Options{
		Name:        "publish-site",
		Description: "build the site and publish it to the hosting branch",
		Steps: []*pagelift.Step{
			newValidateStep(d),
			newDependenciesStep(d),
			newBuildStep(d),
			newIsolateStep(d),
			newArchiveStep(d),
			newPublishStep(d),
		},
	})
}

// Gate adapts the confirmation engine's step gate to the executor.
func Gate(engine *prompt.Engine) pagelift.GateFunc {
	return func(ctx context.Context, step *pagelift.Step) (bool, error) {
		return engine.StepGate(ctx, step.Name, step.Description)
	}
}
