package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/config"
	"github.com/pagelift/pagelift/execx"
	"github.com/pagelift/pagelift/retry"
)

// newDependenciesStep verifies the project manifest declares the chosen
// framework and that its dependencies are installed, installing them
// after confirmation when they are missing.
func newDependenciesStep(d *Deployment) *pagelift.Step {
	return &pagelift.Step{
		Name:        "check-dependencies",
		Description: "verify the project manifest and installed dependencies",
		AutoConfirm: true,
		Run: func(ctx context.Context) error {
			manifest := filepath.Join(d.ProjectRoot, config.ManifestFile)
			if _, err := os.Stat(manifest); err != nil {
				return pagelift.NewEnvironmentError("%s not found, is this a node project?", config.ManifestFile)
			}
			ok, err := config.DeclaresDependency(d.ProjectRoot, d.Framework.Dependency)
			if err != nil {
				return pagelift.NewDataError("unable to read %s: %v", config.ManifestFile, err)
			}
			if !ok {
				return pagelift.NewEnvironmentError(
					"%s does not declare %q, required for %s projects",
					config.ManifestFile, d.Framework.Dependency, d.Framework.Name)
			}

			cache := filepath.Join(d.ProjectRoot, config.DependencyCache)
			if _, err := os.Stat(cache); err == nil {
				d.Logger.Info("dependencies present", "framework", d.Framework.Name)
				return nil
			}

			if !d.Engine.Unattended() {
				proceed, err := d.Engine.Confirm(ctx,
					fmt.Sprintf("%s is missing. Install dependencies now?", config.DependencyCache), true)
				if err != nil {
					return err
				}
				if !proceed {
					return pagelift.NewEnvironmentError("dependencies are not installed")
				}
			}

			d.Logger.Info("installing dependencies")
			err = retry.Do(ctx, func() error {
				_, err := execx.Run(ctx, d.ProjectRoot, "npm", "install")
				return err
			})
			if err != nil {
				return pagelift.NewEnvironmentError("npm install failed: %v", err)
			}
			return nil
		},
	}
}
