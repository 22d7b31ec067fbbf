package errors

import "fmt"

// Common error messages for the relcut CLI.
// These templates ensure consistent, actionable error messages.

// MissingVersion creates an error for a missing VERSION argument.
func MissingVersion() *CLIError {
	return NewArgumentErrorWithUsage(
		"VERSION is required",
		"relcut VERSION",
		"Pass the version to release as the only argument",
		"Example: relcut 1.2.3",
	)
}

// TooManyArguments creates an error when more than one positional argument is given.
func TooManyArguments(args []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("expected exactly one VERSION argument, got %d: %v", len(args), args),
		"relcut VERSION",
		"Quote the version if it contains spaces",
	)
}

// ManifestNotFound creates an error for a missing manifest file.
func ManifestNotFound(path string, err error) *CLIError {
	e := NewPrerequisiteError(
		fmt.Sprintf("manifest not found: %s", path),
		"Run relcut from the repository root or pass --repo",
		"Set 'manifest' in .relcut/config.yml if the file has another name",
	)
	e.Err = err
	return e
}

// ManifestParseError creates an error for a manifest that cannot be parsed.
func ManifestParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("parsing manifest %s", path),
		"Fix the syntax error and run the release again",
	)
}

// NotARepository creates an error when the repository path is not a git repository.
func NotARepository(path string, err error) *CLIError {
	e := NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", path),
		"Run relcut inside a git working tree",
		"Or pass the repository path with --repo",
	)
	e.Err = err
	return e
}

// TagExists creates an error when the release tag already exists.
func TagExists(tag string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("creating tag %s", tag),
		fmt.Sprintf("Delete the tag with 'git tag -d %s' if it was created by a failed run", tag),
		"Or release a different version",
	)
}

// RemoteNotConfigured creates an error when the push remote does not exist.
func RemoteNotConfigured(remote string, err error) *CLIError {
	e := NewPrerequisiteError(
		fmt.Sprintf("remote %s is not configured", remote),
		fmt.Sprintf("Add it with 'git remote add %s <url>'", remote),
		"Or set 'remote' in .relcut/config.yml, or pass --no-push",
	)
	e.Err = err
	return e
}

// PushRejected creates an error when the remote rejects the push.
func PushRejected(remote string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("pushing to %s", remote),
		fmt.Sprintf("Pull the latest changes from %s and rebase the release commit", remote),
		"The tag and commit exist locally; push them manually once resolved",
	)
}

// FallbackPushFailed creates an error when the git CLI fallback push fails.
func FallbackPushFailed(remote string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("fallback push to %s failed", remote),
		"Check network access and git credentials",
		"The tag and commit exist locally; push them manually once resolved",
	)
}

// ChangelogFailed creates an error when the changelog generator fails in strict mode.
func ChangelogFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"generating changelog",
		"Verify the changelog generator is installed (default: git-chglog)",
		"Set changelog_strict: false to continue on generator failures",
	)
}

// ConfigParseError creates an error for a config file that cannot be loaded.
func ConfigParseError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"loading configuration",
		"Check .relcut/config.yml for syntax errors",
		"Check RELCUT_* environment variables",
	)
}

// TimeoutError creates an error when the release exceeds the configured timeout.
func TimeoutError(duration string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("release timed out after %s", duration),
		"Increase 'timeout' in .relcut/config.yml (0 disables it)",
		"Earlier steps are not rolled back; inspect tags and commits before retrying",
	)
}
