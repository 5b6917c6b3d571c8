package deploy

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/execx"
	"github.com/pagelift/pagelift/prompt"
	"github.com/pagelift/pagelift/vcs"
)

// requiredTools are the external programs every run needs on PATH.
var requiredTools = []string{"git", "tar", "npm"}

const connectivityTimeout = 5 * time.Second

// newValidateStep checks the environment before any work happens: a git
// repository with a usable remote, the external tools on PATH, and
// network reachability for the eventual push. It also records the
// current branch as the guard's restore point.
func newValidateStep(d *Deployment) *pagelift.Step {
	return &pagelift.Step{
		Name:        "validate-environment",
		Description: "verify the repository, required tools, and connectivity",
		AutoConfirm: true,
		Run: func(ctx context.Context) error {
			if !d.Git.IsRepo(ctx) {
				return pagelift.NewEnvironmentError("not inside a git repository")
			}
			remote, err := d.Git.RemoteURL(ctx, d.Settings.Remote)
			if err != nil {
				return pagelift.NewEnvironmentError("remote %q is not configured", d.Settings.Remote)
			}
			d.RemoteURL = vcs.NormalizeRemoteURL(remote)

			branch, err := d.Git.CurrentBranch(ctx)
			if err != nil {
				return pagelift.NewEnvironmentError("unable to determine the current branch")
			}
			if branch == d.Settings.Branch {
				return pagelift.NewUsageError("already on %q; deploy from your source branch instead", branch)
			}
			d.SourceBranch = branch
			d.Guard.SetRestorePoint(branch, d.Git)

			for _, tool := range d.tools {
				if !execx.LookPath(tool) {
					return pagelift.NewEnvironmentError("%s is not installed", tool)
				}
			}

			if err := d.checkNet(ctx, d.RemoteURL); err != nil {
				if d.Engine.Mode() == prompt.ModeUnattended {
					return pagelift.NewEnvironmentError("remote host is unreachable: %v", err)
				}
				d.Logger.Warn("remote host is unreachable, the push may fail", "error", err)
			}

			d.Logger.Info("environment validated",
				"branch", branch, "remote", d.RemoteURL, "framework", d.Framework.Name)
			return nil
		},
	}
}

// checkConnectivity dials the remote host on the HTTPS port.
func checkConnectivity(ctx context.Context, remoteURL string) error {
	host := remoteHost(remoteURL)
	if host == "" {
		return fmt.Errorf("cannot determine host from %q", remoteURL)
	}
	dialer := net.Dialer{Timeout: connectivityTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err != nil {
		return err
	}
	return conn.Close()
}

func remoteHost(remoteURL string) string {
	rest := strings.TrimPrefix(remoteURL, "https://")
	rest = strings.TrimPrefix(rest, "http://")
	host, _, _ := strings.Cut(rest, "/")
	return host
}
