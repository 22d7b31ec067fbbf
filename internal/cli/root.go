// Package cli implements the relcut command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ariel-frischer/relcut/internal/build"
	"github.com/ariel-frischer/relcut/internal/config"
	clierrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/spf13/cobra"
)

// rootOptions holds the flag values of one root command instance.
type rootOptions struct {
	configPath string
	repoDir    string
	dryRun     bool
	noPush     bool
	debug      bool

	printConfig bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "relcut [flags] VERSION",
		Short: "Cut a release: changelog, version bump, tag, commit and push",
		Long: `relcut cuts a release of the repository in one step:

  1. runs the changelog generator (git-chglog by default)
  2. sets the "version" field of the package manifest (package.json by default)
  3. creates an annotated tag, commits the changelog and the manifest
  4. pushes the tag and the current branch to origin

When pushing fails at the transport level (network, authentication,
unsupported protocol), relcut retries with 'git push --atomic' so the git
CLI and its credential helpers can publish the release.

Configuration is read from ~/.config/relcut/config.yml, .relcut/config.yml
in the repository and RELCUT_* environment variables.`,
		Example: `  # Release version 1.2.3 from the current repository
  relcut 1.2.3

  # Show what would happen
  relcut --dry-run 1.2.3

  # Commit and tag locally, push later
  relcut --no-push 1.2.3

  # Release another checkout with debug logging
  relcut --repo ../app --debug 2.0.0

  # Start a project config
  mkdir -p .relcut && relcut --print-config > .relcut/config.yml`,
		Version:       build.Info(),
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.printConfig && len(args) == 0 {
				return nil
			}
			return validateArgs(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.printConfig {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.GetDefaultConfigTemplate())
				return err
			}
			return runRelease(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Project config file (default: <repo>/.relcut/config.yml)")
	flags.StringVarP(&opts.repoDir, "repo", "C", ".", "Repository to release")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Print the planned steps without changing anything")
	flags.BoolVar(&opts.noPush, "no-push", false, "Tag and commit, but do not push")
	flags.BoolVar(&opts.debug, "debug", false, "Log git and command operations to stderr")
	flags.BoolVar(&opts.printConfig, "print-config", false, "Print a commented default .relcut/config.yml and exit")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), c.UseLine(), "Run 'relcut --help' for the list of flags")
	})

	return cmd
}

// validateArgs requires exactly one non-empty VERSION argument.
func validateArgs(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0 || (len(args) == 1 && strings.TrimSpace(args[0]) == ""):
		return clierrors.MissingVersion()
	case len(args) > 1:
		return clierrors.TooManyArguments(args)
	}
	return nil
}

// Execute runs relcut with the process arguments. Errors are printed to
// stderr; use ExitCode to turn the returned error into an exit status.
func Execute() error {
	return execute(rootCmd, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(cmd *cobra.Command, args []string, stdout, stderr io.Writer) error {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(stderr)
		clierrors.FprintError(stderr, err)
	}
	return err
}
