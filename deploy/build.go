package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/execx"
)

// BuildStats summarizes a completed build.
type BuildStats struct {
	Duration time.Duration
	Files    int
	Bytes    int64
}

// newBuildStep removes any stale output directory, runs the framework's
// build command, and verifies it produced output. On failure the command
// is re-run once with its output attached so the cause is visible.
func newBuildStep(d *Deployment) *pagelift.Step {
	return &pagelift.Step{
		Name:        "build",
		Description: "run the production build",
		Run: func(ctx context.Context) error {
			outputPath := filepath.Join(d.ProjectRoot, d.Settings.BuildDir)
			if _, err := os.Stat(outputPath); err == nil {
				if !d.Engine.Unattended() {
					proceed, err := d.Engine.Confirm(ctx,
						fmt.Sprintf("Remove stale output in %s?", d.Settings.BuildDir), true)
					if err != nil {
						return err
					}
					if !proceed {
						return pagelift.NewUsageError("stale build output left in place")
					}
				}
				if err := os.RemoveAll(outputPath); err != nil {
					return pagelift.NewEnvironmentError("unable to remove %s: %v", d.Settings.BuildDir, err)
				}
			}

			command := d.Framework.BuildCommand
			d.Logger.Info("building site", "command", command)
			start := time.Now()
			if _, err := execx.Run(ctx, d.ProjectRoot, "sh", "-c", command); err != nil {
				d.Logger.Warn("build failed, re-running with output attached", "error", err)
				if err := execx.RunShell(ctx, d.ProjectRoot, command, os.Stdout, os.Stderr); err != nil {
					return pagelift.NewEnvironmentError("build failed: %v", err)
				}
			}
			elapsed := time.Since(start)

			stats, err := collectBuildStats(outputPath)
			if err != nil {
				return pagelift.NewDataError(
					"build completed but %s is missing or empty", d.Settings.BuildDir)
			}
			stats.Duration = elapsed
			d.Logger.Info("build complete",
				"duration", elapsed.Round(time.Millisecond),
				"files", stats.Files,
				"size", formatBytes(stats.Bytes))
			return nil
		},
	}
}

func collectBuildStats(dir string) (BuildStats, error) {
	var stats BuildStats
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return BuildStats{}, err
	}
	if stats.Files == 0 {
		return BuildStats{}, fmt.Errorf("no files in %s", dir)
	}
	return stats, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
