// Package execx runs external collaborators (git, tar, build commands)
// with context cancellation and graceful shutdown. Only exit status and
// captured output cross this boundary; nothing here parses tool output
// beyond presence checks.
package execx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// WaitDelay is the grace period given to child processes to handle
// termination signals before being force-killed.
const WaitDelay = 5 * time.Second

// Command creates an exec.Cmd rooted at dir with graceful shutdown
// configured: on context cancellation the process receives SIGINT first,
// then SIGKILL after WaitDelay.
func Command(ctx context.Context, dir, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = WaitDelay
	return cmd
}

// Run executes the command and returns its trimmed stdout. On a non-zero
// exit the error carries the tool's stderr so callers can surface a
// one-line cause.
func Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := Command(ctx, dir, name, args...)
	stdout, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			detail := strings.TrimSpace(string(exitError.Stderr))
			if detail != "" {
				return "", fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), detail)
			}
		}
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// RunShell executes command through the shell in dir, streaming output to
// the given writers. Used for build commands whose output the operator
// should see as it happens.
func RunShell(ctx context.Context, dir, command string, stdout, stderr *os.File) error {
	cmd := Command(ctx, dir, "sh", "-c", command)
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q: %w", command, err)
	}
	return nil
}

// LookPath reports whether the named tool is available on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
