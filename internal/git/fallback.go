package git

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/relcut/internal/command"
)

// CLIPusher pushes through the git executable. It is the fallback used
// when the in-process transport cannot reach the remote.
type CLIPusher struct {
	// GitCmd is the git executable (default "git").
	GitCmd string
	// Runner executes the command (default command.ExecRunner).
	Runner command.Runner
}

// AtomicPushArgs returns the git arguments for pushing a branch and a tag
// in one atomic operation.
func AtomicPushArgs(remote, branch, tag string) []string {
	return []string{"push", "--atomic", remote, branch, tag}
}

// PushAtomic runs `git push --atomic <remote> <branch> <tag>` in dir.
func (p *CLIPusher) PushAtomic(ctx context.Context, dir, remote, branch, tag string) error {
	gitCmd := p.GitCmd
	if gitCmd == "" {
		gitCmd = "git"
	}
	runner := p.Runner
	if runner == nil {
		runner = command.ExecRunner{}
	}

	logDebug("[git] fallback push: %s %v", gitCmd, AtomicPushArgs(remote, branch, tag))
	if _, err := runner.Run(ctx, dir, gitCmd, AtomicPushArgs(remote, branch, tag)...); err != nil {
		return fmt.Errorf("git push --atomic %s %s %s: %w", remote, branch, tag, err)
	}
	return nil
}
