package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift"
	"github.com/pagelift/pagelift/config"
	"github.com/pagelift/pagelift/deploy"
	"github.com/pagelift/pagelift/guard"
	"github.com/pagelift/pagelift/prompt"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var flags struct {
	yes       bool
	dryRun    bool
	verbose   bool
	framework string
	buildDir  string
	branch    string
	remote    string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagelift",
		Short: "Build a static site and publish it to its hosting branch",
		Long: `pagelift builds a static site and publishes the output to a hosting
branch, working entirely inside an isolated copy of the project so the
local checkout is never disturbed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDeploy,
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.yes, "yes", "y", false, "run unattended; every prompt takes its default")
	f.BoolVar(&flags.dryRun, "dry-run", false, "stop before pushing and report what would happen")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&flags.framework, "framework", "", "framework preset (default: detected from the manifest)")
	f.StringVar(&flags.buildDir, "build-dir", "", "build output directory (default: the framework's)")
	f.StringVar(&flags.branch, "branch", "", "hosting branch (default "+config.DefaultBranch+")")
	f.StringVar(&flags.remote, "remote", "", "remote to push to (default "+config.DefaultRemote+")")

	cmd.AddCommand(newFrameworksCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the CLI and maps the outcome to an exit code.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		if pagelift.MatchesErrorKind(err, pagelift.ErrorKindUsage) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

func runDeploy(cmd *cobra.Command, args []string) error {
	projectRoot, err := os.Getwd()
	if err != nil {
		return err
	}

	settings, err := config.Load(projectRoot)
	if err != nil {
		return pagelift.NewUsageError("%v", err)
	}
	applyFlags(cmd, settings)

	// Unattended runs are usually CI; emit machine-readable logs there.
	var logger *slog.Logger
	if settings.Unattended && !isatty.IsTerminal(os.Stderr.Fd()) {
		logger = pagelift.NewJSONLogger(os.Stderr)
	} else {
		logger = pagelift.NewLogger(settings.Verbose)
	}

	framework, err := resolveFramework(projectRoot, settings)
	if err != nil {
		return err
	}
	if settings.BuildDir == "" {
		settings.BuildDir = framework.OutputDir
	}

	mode := prompt.ModeInteractive
	if settings.Unattended {
		mode = prompt.ModeUnattended
	}
	engine := prompt.NewEngine(mode)

	g := guard.New(logger)
	g.HandleSignals()

	d, err := deploy.NewDeployment(deploy.Options{
		Settings:    settings,
		Framework:   framework,
		ProjectRoot: projectRoot,
		Engine:      engine,
		Guard:       g,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	pipeline, err := deploy.NewPipeline(d)
	if err != nil {
		return err
	}
	execution, err := pagelift.NewExecution(pagelift.ExecutionOptions{
		Pipeline:  pipeline,
		Gate:      deploy.Gate(engine),
		Logger:    logger,
		Callbacks: pagelift.NewCallbackChain(&progressCallbacks{}, &loggingCallbacks{logger: logger}),
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := execution.Run(ctx)
	g.Finish(ctx, runErr)
	if runErr != nil {
		return runErr
	}

	printSummary(d)
	return nil
}

// applyFlags lays explicitly set flags over the loaded settings.
func applyFlags(cmd *cobra.Command, settings *config.Settings) {
	f := cmd.Flags()
	if f.Changed("yes") {
		settings.Unattended = flags.yes
	}
	if f.Changed("dry-run") {
		settings.DryRun = flags.dryRun
	}
	if f.Changed("verbose") {
		settings.Verbose = flags.verbose
	}
	if f.Changed("framework") {
		settings.Framework = flags.framework
	}
	if f.Changed("build-dir") {
		settings.BuildDir = flags.buildDir
	}
	if f.Changed("branch") {
		settings.Branch = flags.branch
	}
	if f.Changed("remote") {
		settings.Remote = flags.remote
	}
}

func resolveFramework(projectRoot string, settings *config.Settings) (config.Framework, error) {
	if settings.Framework != "" {
		framework, ok := config.LookupFramework(settings.Framework)
		if !ok {
			return config.Framework{}, pagelift.NewUsageError(
				"unknown framework %q (known: %s)",
				settings.Framework, strings.Join(config.FrameworkNames(), ", "))
		}
		return framework, nil
	}
	framework, ok := config.DetectFramework(projectRoot)
	if !ok {
		return config.Framework{}, pagelift.NewEnvironmentError(
			"unable to detect the framework; pass --framework (known: %s)",
			strings.Join(config.FrameworkNames(), ", "))
	}
	color.Blue("Detected framework: %s", framework.Name)
	return framework, nil
}

func printSummary(d *deploy.Deployment) {
	result := d.Result
	if result == nil {
		return
	}
	switch {
	case result.NothingToPublish:
		color.Yellow("Nothing to publish: the site is already up to date")
	case result.DryRun:
		color.Yellow("Dry run: committed on %q but nothing was pushed", d.Settings.Branch)
	case result.PushDeclined:
		color.Yellow("Push skipped at your request; the commit stays in the isolated copy")
	case result.Pushed:
		color.Green("Published %s to %s/%s", d.Settings.BuildDir, d.Settings.Remote, d.Settings.Branch)
		color.White("%s", result.CommitMessage)
		if url := pagesURL(d.RemoteURL); url != "" {
			fmt.Printf("Your site should be live shortly at %s\n", url)
		}
	}
}

// pagesURL derives the public site URL for github.com remotes.
func pagesURL(remoteURL string) string {
	rest, found := strings.CutPrefix(remoteURL, "https://github.com/")
	if !found {
		return ""
	}
	owner, repo, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://%s.github.io/%s/", owner, repo)
}
