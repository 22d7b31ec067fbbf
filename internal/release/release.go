// Package release cuts a release: it generates the changelog, bumps the
// manifest version, tags, commits and pushes. Steps run strictly in order
// and stop at the first failure; nothing is rolled back.
package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/relcut/internal/changelog"
	clierrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/git"
	"github.com/ariel-frischer/relcut/internal/manifest"
)

// VersionPlaceholder is replaced by the release version in tag and commit templates.
const VersionPlaceholder = "{{VERSION}}"

// PushMethod records how the release reached the remote.
type PushMethod string

const (
	// PushTransport means go-git pushed the tag and the branch.
	PushTransport PushMethod = "transport"
	// PushFallback means the git CLI atomic push was used.
	PushFallback PushMethod = "fallback"
	// PushSkipped means nothing was pushed (--no-push or dry run).
	PushSkipped PushMethod = "skipped"
)

// Repository is the version-control surface a release needs.
type Repository interface {
	Root() string
	CurrentBranch() (string, error)
	TagExists(name string) (bool, error)
	HasRemote(name string) bool
	CreateTag(name, message string) error
	Add(paths ...string) error
	Commit(message string) (string, error)
	PushTag(ctx context.Context, remote, tag string) error
	PushBranch(ctx context.Context, remote, branch string) error
}

// ChangelogGenerator writes the changelog for a version.
type ChangelogGenerator interface {
	Generate(ctx context.Context, dir, version string) (*changelog.Result, error)
}

// ManifestUpdater reads and sets the version of a manifest file.
type ManifestUpdater interface {
	ReadVersion(path string) (string, error)
	Update(path, version string) (string, error)
}

// FallbackPusher pushes a branch and a tag atomically outside go-git.
type FallbackPusher interface {
	PushAtomic(ctx context.Context, dir, remote, branch, tag string) error
}

// Reporter shows step progress.
type Reporter interface {
	Start(step string)
	Done(msg string)
	Fail(msg string)
	Warn(msg string)
	Info(msg string)
}

// Options are the release settings.
type Options struct {
	// Manifest and Changelog are relative to the repository root unless absolute.
	Manifest  string
	Changelog string

	TagFormat     string
	TagMessage    string
	CommitMessage string

	Remote string
	// Branch is pushed with the tag by the fallback push.
	Branch       string
	FallbackPush bool

	DryRun bool
	NoPush bool
}

// Result describes a release run. It is returned on failure too, with the
// fields reached so far filled in.
type Result struct {
	Version         string
	PreviousVersion string
	Tag             string
	Commit          string
	PushMethod      PushMethod
	Warnings        []string
	Duration        time.Duration
	DryRun          bool
}

// Orchestrator runs the release steps against its collaborators.
type Orchestrator struct {
	Repo      Repository
	Changelog ChangelogGenerator
	Manifest  ManifestUpdater
	Fallback  FallbackPusher
	Reporter  Reporter
	Options   Options
}

// Render substitutes version for {{VERSION}} in tmpl.
func Render(tmpl, version string) string {
	return strings.ReplaceAll(tmpl, VersionPlaceholder, version)
}

// Run releases version. Errors are *clierrors.CLIError values that keep
// the underlying cause reachable through errors.Is and errors.As.
func (o *Orchestrator) Run(ctx context.Context, version string) (*Result, error) {
	start := time.Now()
	result := &Result{
		Version: version,
		Tag:     Render(o.Options.TagFormat, version),
		DryRun:  o.Options.DryRun,
	}
	err := o.run(ctx, version, result)
	result.Duration = time.Since(start)
	if err != nil {
		o.reporter().Fail(failureSummary(err))
	}
	return result, err
}

func (o *Orchestrator) run(ctx context.Context, version string, result *Result) error {
	r := o.reporter()
	root := o.Repo.Root()
	manifestPath := o.path(o.Options.Manifest)
	changelogPath := o.path(o.Options.Changelog)

	branch, err := o.preflight(manifestPath, result)
	if err != nil {
		return err
	}

	if o.Options.DryRun {
		result.PushMethod = PushSkipped
		o.describePlan(version, result, branch)
		return nil
	}

	// 1. Changelog
	r.Start(fmt.Sprintf("Generating changelog for version %s", version))
	clResult, err := o.Changelog.Generate(ctx, root, version)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return clierrors.ChangelogFailed(err)
	}
	for _, w := range clResult.Warnings {
		result.Warnings = append(result.Warnings, w)
		r.Warn(w)
	}
	r.Done("Changelog generated")

	if err := ctx.Err(); err != nil {
		return err
	}

	// 2. Manifest
	r.Start(fmt.Sprintf("Updating %s", filepath.Base(manifestPath)))
	previous, err := o.Manifest.Update(manifestPath, version)
	if err != nil {
		return manifestError(manifestPath, "updating", err)
	}
	result.PreviousVersion = previous
	r.Done(fmt.Sprintf("%s updated", filepath.Base(manifestPath)))

	// 3. Tag
	r.Start(fmt.Sprintf("Creating tag %s", result.Tag))
	if err := o.Repo.CreateTag(result.Tag, Render(o.Options.TagMessage, version)); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return clierrors.TagExists(result.Tag, err)
		}
		return clierrors.WrapWithMessage(err, clierrors.Runtime, fmt.Sprintf("creating tag %s", result.Tag))
	}
	r.Done(fmt.Sprintf("Tag %s created", result.Tag))

	// 4. Stage and commit
	r.Start("Committing release files")
	staged := []string{manifestPath}
	if _, err := os.Stat(changelogPath); err == nil {
		staged = append([]string{changelogPath}, staged...)
	} else {
		w := fmt.Sprintf("changelog %s not found, committing the manifest only", o.Options.Changelog)
		result.Warnings = append(result.Warnings, w)
		r.Warn(w)
	}
	if err := o.Repo.Add(staged...); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "staging release files")
	}
	hash, err := o.Repo.Commit(Render(o.Options.CommitMessage, version))
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "committing release files")
	}
	result.Commit = hash
	r.Done("Changelog updated | Version file updated")

	// 5. Push
	if o.Options.NoPush {
		result.PushMethod = PushSkipped
		r.Info(fmt.Sprintf("Push skipped; run 'git push --atomic %s %s %s' to publish", o.Options.Remote, branch, result.Tag))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	method, err := o.push(ctx, root, branch, result)
	if err != nil {
		return err
	}
	result.PushMethod = method
	return nil
}

// preflight checks everything that can be checked without side effects and
// returns the branch to push.
func (o *Orchestrator) preflight(manifestPath string, result *Result) (string, error) {
	previous, err := o.Manifest.ReadVersion(manifestPath)
	if err != nil {
		return "", manifestError(manifestPath, "reading", err)
	}
	result.PreviousVersion = previous

	tag := result.Tag
	exists, err := o.Repo.TagExists(tag)
	if err != nil {
		return "", clierrors.WrapWithMessage(err, clierrors.Runtime, fmt.Sprintf("looking up tag %s", tag))
	}
	if exists {
		return "", clierrors.TagExists(tag, fmt.Errorf("tag %s: %w", tag, git.ErrTagExists))
	}

	if o.Options.NoPush {
		return o.Options.Branch, nil
	}
	branch, err := o.Repo.CurrentBranch()
	if err != nil {
		e := clierrors.WrapWithMessage(err, clierrors.Prerequisite, "determining the branch to push",
			"Check out the release branch, or pass --no-push")
		return "", e
	}
	if !o.Repo.HasRemote(o.Options.Remote) {
		return "", clierrors.RemoteNotConfigured(o.Options.Remote,
			fmt.Errorf("remote %s: %w", o.Options.Remote, git.ErrRemoteNotFound))
	}
	return branch, nil
}

// push pushes the tag and then the branch. A transport failure switches to
// the atomic CLI push of the configured branch and the tag; any other
// failure is returned as is.
func (o *Orchestrator) push(ctx context.Context, root, branch string, result *Result) (PushMethod, error) {
	r := o.reporter()
	remote := o.Options.Remote

	r.Start(fmt.Sprintf("Pushing %s to %s", result.Tag, remote))
	err := o.Repo.PushTag(ctx, remote, result.Tag)
	if err == nil {
		err = o.Repo.PushBranch(ctx, remote, branch)
	}
	if err == nil {
		r.Done(fmt.Sprintf("Tag pushed to %s", remote))
		return PushTransport, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	if git.IsTransportError(err) && o.Options.FallbackPush && o.Fallback != nil {
		w := fmt.Sprintf("push failed (%s): %v; retrying with git push --atomic", git.PushErrorTransport, err)
		result.Warnings = append(result.Warnings, w)
		r.Warn(w)
		if branch != o.Options.Branch {
			mismatch := fmt.Sprintf("fallback push publishes branch %s, but the release commit is on %s", o.Options.Branch, branch)
			result.Warnings = append(result.Warnings, mismatch)
			r.Warn(mismatch)
		}
		if ferr := o.Fallback.PushAtomic(ctx, root, remote, o.Options.Branch, result.Tag); ferr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", clierrors.FallbackPushFailed(remote, ferr)
		}
		r.Done(fmt.Sprintf("Tag pushed to %s", remote))
		return PushFallback, nil
	}

	switch git.ClassifyPushError(err) {
	case git.PushErrorRejected:
		return "", clierrors.PushRejected(remote, err)
	case git.PushErrorRemoteMissing:
		return "", clierrors.RemoteNotConfigured(remote, err)
	default:
		return "", clierrors.WrapWithMessage(err, clierrors.Runtime, fmt.Sprintf("pushing to %s", remote))
	}
}

func (o *Orchestrator) describePlan(version string, result *Result, branch string) {
	r := o.reporter()
	tag := result.Tag
	r.Info(fmt.Sprintf("Dry run: release %s", version))
	r.Info(fmt.Sprintf("  1. generate %s", o.Options.Changelog))
	r.Info(fmt.Sprintf("  2. set version in %s (%q -> %q)", o.Options.Manifest, result.PreviousVersion, version))
	r.Info(fmt.Sprintf("  3. create tag %s (%q)", tag, Render(o.Options.TagMessage, version)))
	r.Info(fmt.Sprintf("  4. commit %s and %s (%q)", o.Options.Changelog, o.Options.Manifest, Render(o.Options.CommitMessage, version)))
	if o.Options.NoPush {
		r.Info("  5. push skipped")
		return
	}
	r.Info(fmt.Sprintf("  5. push %s and %s to %s", tag, branch, o.Options.Remote))
}

func (o *Orchestrator) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.Repo.Root(), p)
}

func (o *Orchestrator) reporter() Reporter {
	if o.Reporter == nil {
		return nopReporter{}
	}
	return o.Reporter
}

func manifestError(path, op string, err error) error {
	var parseErr *manifest.ParseError
	switch {
	case errors.As(err, &parseErr):
		return clierrors.ManifestParseError(path, err)
	case errors.Is(err, fs.ErrNotExist):
		return clierrors.ManifestNotFound(path, err)
	default:
		return clierrors.WrapWithMessage(err, clierrors.Runtime, fmt.Sprintf("%s manifest %s", op, path))
	}
}

// failureSummary returns the first line of the error message; command
// output appended to it is left for the error report.
func failureSummary(err error) string {
	msg := err.Error()
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		msg = cliErr.Message
	}
	line, _, _ := strings.Cut(msg, "\n")
	return line
}

type nopReporter struct{}

func (nopReporter) Start(string) {}
func (nopReporter) Done(string)  {}
func (nopReporter) Fail(string)  {}
func (nopReporter) Warn(string)  {}
func (nopReporter) Info(string)  {}
