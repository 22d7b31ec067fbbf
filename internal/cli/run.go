package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ariel-frischer/relcut/internal/changelog"
	"github.com/ariel-frischer/relcut/internal/command"
	"github.com/ariel-frischer/relcut/internal/config"
	clierrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/git"
	"github.com/ariel-frischer/relcut/internal/history"
	"github.com/ariel-frischer/relcut/internal/manifest"
	"github.com/ariel-frischer/relcut/internal/progress"
	"github.com/ariel-frischer/relcut/internal/release"
	"github.com/spf13/cobra"
)

func runRelease(cmd *cobra.Command, opts *rootOptions, version string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	if opts.debug {
		defer enableDebugLogging(stderr)()
	}

	repo, err := git.Open(opts.repoDir)
	if err != nil {
		return clierrors.NotARepository(opts.repoDir, err)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		RepoDir:           repo.Root(),
		ProjectConfigPath: opts.configPath,
		WarningWriter:     stderr,
	})
	if err != nil {
		if opts.configPath != "" && errors.Is(err, os.ErrNotExist) {
			e := clierrors.NewConfigError(fmt.Sprintf("config file not found: %s", opts.configPath),
				"Check the --config path, or omit it to use .relcut/config.yml")
			e.Err = err
			return e
		}
		return clierrors.ConfigParseError(err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := cfg.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	orch := &release.Orchestrator{
		Repo: repo,
		Changelog: &changelog.Generator{
			Command: cfg.ChangelogCmd,
			Output:  cfg.Changelog,
			Strict:  cfg.ChangelogStrict,
		},
		Manifest: manifest.Updater{Indent: cfg.ManifestIndent},
		Fallback: &git.CLIPusher{GitCmd: cfg.GitCmd},
		Reporter: progress.NewDisplay(stdout, capabilitiesFor(cfg, stdout)),
		Options:  releaseOptions(cfg, opts),
	}

	result, err := orch.Run(ctx, version)
	if errors.Is(err, context.DeadlineExceeded) {
		timeoutErr := clierrors.TimeoutError(cfg.TimeoutDuration().String())
		timeoutErr.Err = err
		err = timeoutErr
	}

	if !opts.dryRun && cfg.StateDir != "" {
		writer := history.NewWriter(cfg.StateDir, cfg.MaxHistoryEntries)
		writer.Warnings = stderr
		writer.LogRelease(history.Release{
			Repo:       repo.Root(),
			Version:    result.Version,
			Tag:        result.Tag,
			Commit:     result.Commit,
			PushMethod: string(result.PushMethod),
			ExitCode:   ExitCode(err),
			Err:        err,
		}, result.Duration)
	}

	if err != nil {
		return err
	}
	if !result.DryRun {
		fmt.Fprintf(stdout, "\nReleased %s (tag %s, commit %s)\n", result.Version, result.Tag, shortHash(result.Commit))
	}
	return nil
}

func releaseOptions(cfg *config.Configuration, opts *rootOptions) release.Options {
	return release.Options{
		Manifest:      cfg.Manifest,
		Changelog:     cfg.Changelog,
		TagFormat:     cfg.TagFormat,
		TagMessage:    cfg.TagMessage,
		CommitMessage: cfg.CommitMessage,
		Remote:        cfg.Remote,
		Branch:        cfg.Branch,
		FallbackPush:  cfg.FallbackPush,
		DryRun:        opts.dryRun,
		NoPush:        opts.noPush,
	}
}

// capabilitiesFor only probes the terminal when writing to the process stdout.
func capabilitiesFor(cfg *config.Configuration, out io.Writer) progress.TerminalCapabilities {
	if cfg.Progress == config.ProgressPlain || out != io.Writer(os.Stdout) {
		return progress.PlainCapabilities()
	}
	return progress.DetectTerminalCapabilities()
}

// enableDebugLogging routes git and command debug output to w and returns
// a function that turns it off again.
func enableDebugLogging(w io.Writer) func() {
	logger := log.New(w, "[relcut] ", log.Ltime|log.Lmicroseconds)
	git.SetDebugLogger(logger.Printf)
	command.SetDebugLogger(logger.Printf)
	return func() {
		git.SetDebugLogger(nil)
		command.SetDebugLogger(nil)
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
