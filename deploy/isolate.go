package deploy

import (
	"context"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/workspace"
)

// newIsolateStep creates the private scratch directory the rest of the
// run operates in and registers its removal with the guard. Creation
// happens inside a suspend window so an interrupt cannot leave a
// half-made directory unregistered.
func newIsolateStep(d *Deployment) *pagelift.Step {
	return &pagelift.Step{
		Name:        "create-isolated-workspace",
		Description: "create a private scratch directory for the run",
		AutoConfirm: true,
		Run: func(ctx context.Context) error {
			if d.Git.HasUncommittedChanges(ctx) {
				if d.Engine.Unattended() {
					d.Logger.Warn("uncommitted changes present, the published copy will include them")
				} else {
					proceed, err := d.Engine.Confirm(ctx,
						"You have uncommitted changes. Continue anyway?", false)
					if err != nil {
						return err
					}
					if !proceed {
						return pagelift.NewUsageError("aborted: commit or stash your changes first")
					}
				}
			}

			d.Guard.Suspend()
			defer d.Guard.Resume()

			snapshot, err := workspace.NewSnapshot(d.Archiver)
			if err != nil {
				return pagelift.NewEnvironmentError("%v", err)
			}
			d.Snapshot = snapshot
			d.Guard.Register("workspace", func(ctx context.Context) error {
				return snapshot.Remove()
			})
			d.Logger.Info("workspace created", "dir", snapshot.Dir())
			return nil
		},
	}
}
