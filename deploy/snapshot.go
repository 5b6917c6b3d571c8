package deploy

import (
	"context"
	"errors"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/archive"
	"github.com/pagelift/pagelift/workspace"
)

// newArchiveStep snapshots the project into the isolated workspace. The
// archive and its verification happen inside a suspend window so an
// interrupt never observes a partially written snapshot.
func newArchiveStep(d *Deployment) *pagelift.Step {
	return &pagelift.Step{
		Name:        "create-archive",
		Description: "snapshot the project into the workspace",
		AutoConfirm: true,
		Run: func(ctx context.Context) error {
			if d.Snapshot == nil {
				return pagelift.NewUsageError("workspace has not been created")
			}
			d.Guard.Suspend()
			defer d.Guard.Resume()

			if err := d.Snapshot.Archive(ctx, d.ProjectRoot, archive.DefaultExclusions); err != nil {
				if errors.Is(err, workspace.ErrCorruptArchive) {
					return pagelift.NewDataError("%v", err)
				}
				return pagelift.NewEnvironmentError("%v", err)
			}
			d.Logger.Info("project archived", "archive", d.Snapshot.ArchivePath())
			return nil
		},
	}
}
