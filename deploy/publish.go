package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/publish"
)

// newPublishStep extracts the snapshot into a working copy, moves into
// it, and runs the publish state machine there. The original checkout
// is never touched; even the working directory is restored on the way
// out.
func newPublishStep(d *Deployment) *pagelift.Step {
	return &pagelift.Step{
		Name:        "publish-from-isolated-copy",
		Description: "publish the built site to the hosting branch",
		Run: func(ctx context.Context) error {
			if d.Snapshot == nil {
				return pagelift.NewUsageError("workspace has not been created")
			}
			copyDir, err := d.Snapshot.Extract(ctx)
			if err != nil {
				return pagelift.NewEnvironmentError("%v", err)
			}

			prev, err := os.Getwd()
			if err != nil {
				return pagelift.NewEnvironmentError("%v", err)
			}
			if err := os.Chdir(copyDir); err != nil {
				return pagelift.NewEnvironmentError("%v", err)
			}
			defer func() {
				if err := os.Chdir(prev); err != nil {
					d.Logger.Warn("unable to return to the project directory", "error", err)
				}
			}()

			opts := publish.Options{
				Git:          d.Git.InDir(copyDir),
				Dir:          copyDir,
				OutputDir:    d.Settings.BuildDir,
				Branch:       d.Settings.Branch,
				Remote:       d.Settings.Remote,
				SourceBranch: d.SourceBranch,
				Framework:    d.Framework.Name,
				DryRun:       d.Settings.DryRun,
				Logger:       d.Logger,
			}
			if !d.Engine.Unattended() {
				opts.Confirm = func(ctx context.Context) (bool, error) {
					return d.Engine.Confirm(ctx,
						fmt.Sprintf("Push to %s/%s?", d.Settings.Remote, d.Settings.Branch), true)
				}
			}
			publisher, err := publish.New(opts)
			if err != nil {
				return err
			}
			result, err := publisher.Run(ctx)
			if err != nil {
				return err
			}
			d.Result = result
			return nil
		},
	}
}
