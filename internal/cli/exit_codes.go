package cli

import (
	"context"
	"errors"

	clierrors "github.com/ariel-frischer/relcut/internal/errors"
)

// Exit codes for the relcut CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates the release completed
	ExitSuccess = 0

	// ExitFailure indicates a release step failed
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingPrerequisites indicates the repository or manifest is missing
	ExitMissingPrerequisites = 4

	// ExitTimeout indicates the release exceeded the configured timeout
	ExitTimeout = 5
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeout
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingPrerequisites
		}
	}
	return ExitFailure
}
