// Package guard tracks disposable resources held by a pipeline run and
// guarantees their release exactly once on every exit path: normal
// return, fatal error, or termination signal.
package guard

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/pagelift/pagelift"
)

// BranchSwitcher is the slice of version control the guard needs to put
// the original repository back on its restore point.
type BranchSwitcher interface {
	CurrentBranch(ctx context.Context) (string, error)
	Switch(ctx context.Context, branch string) error
}

type hook struct {
	name    string
	release func(ctx context.Context) error
}

// Guard owns the restore point and the release hooks for temporary
// artifacts. ReleaseAll is idempotent; a second call is a no-op.
type Guard struct {
	logger   *slog.Logger
	exitFunc func(code int)

	mu           sync.Mutex
	hooks        []hook
	restorePoint string
	switcher     BranchSwitcher
	released     bool
	suspended    bool
	interrupted  bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithExitFunc replaces os.Exit for the signal path. Used in tests.
func WithExitFunc(exit func(code int)) Option {
	return func(g *Guard) {
		g.exitFunc = exit
	}
}

// New creates a guard. A nil logger discards release diagnostics.
func New(logger *slog.Logger, opts ...Option) *Guard {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g := &Guard{logger: logger, exitFunc: os.Exit}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRestorePoint captures the branch to return the original repository
// to. Once captured it is never reassigned; later calls are ignored.
func (g *Guard) SetRestorePoint(branch string, switcher BranchSwitcher) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.restorePoint != "" {
		return
	}
	g.restorePoint = branch
	g.switcher = switcher
}

// RestorePoint returns the captured branch name, or empty before capture.
func (g *Guard) RestorePoint() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restorePoint
}

// Register adds a release hook. Hooks run in reverse registration order,
// after the branch switch-back.
func (g *Guard) Register(name string, release func(ctx context.Context) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, hook{name: name, release: release})
}

// Suspend opens a window during which a resource is in an inconsistent
// intermediate state. A termination signal arriving inside the window is
// deferred until Resume rather than tearing the resource down mid-build.
func (g *Guard) Suspend() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suspended = true
}

// Resume closes the window opened by Suspend. A signal deferred during
// the window releases everything now and exits.
func (g *Guard) Resume() {
	g.mu.Lock()
	g.suspended = false
	interrupted := g.interrupted
	g.mu.Unlock()
	if interrupted {
		g.exitOnSignal()
	}
}

// HandleSignals installs the release routine on interrupt and
// termination signals. Call once at startup.
func (g *Guard) HandleSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		g.onSignal()
	}()
}

func (g *Guard) onSignal() {
	g.mu.Lock()
	if g.suspended {
		// Mid-construction window: defer teardown to Resume.
		g.interrupted = true
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.exitOnSignal()
}

func (g *Guard) exitOnSignal() {
	g.ReleaseAll(context.Background())
	color.Red("Interrupted. Original branch restored, temporary files removed.")
	g.exitFunc(130)
}

// ReleaseAll restores the original branch and runs every registered
// release hook, newest first. All failures here are best-effort: logged,
// never escalated, because the process is already unwinding. Calling it
// a second time is a no-op.
func (g *Guard) ReleaseAll(ctx context.Context) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	hooks := g.hooks
	restorePoint := g.restorePoint
	switcher := g.switcher
	g.mu.Unlock()

	if restorePoint != "" && switcher != nil {
		current, err := switcher.CurrentBranch(ctx)
		if err != nil {
			g.logger.Warn("could not determine current branch during release",
				"error", pagelift.NewTeardownError(err))
		} else if current != restorePoint {
			if err := switcher.Switch(ctx, restorePoint); err != nil {
				g.logger.Warn("could not restore original branch",
					"branch", restorePoint, "error", pagelift.NewTeardownError(err))
			} else {
				g.logger.Info("restored original branch", "branch", restorePoint)
			}
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].release(ctx); err != nil {
			g.logger.Warn("release hook failed",
				"hook", hooks[i].name, "error", pagelift.NewTeardownError(err))
		}
	}
}

// Finish releases everything and emits the terminal summary for the
// run's outcome.
func (g *Guard) Finish(ctx context.Context, runErr error) {
	g.ReleaseAll(ctx)
	if runErr != nil {
		color.Red("Deployment failed: %v", runErr)
		color.Red("Original branch restored, temporary files removed.")
	} else {
		color.Green("Deployment finished. Workspace left as it was found.")
	}
}
