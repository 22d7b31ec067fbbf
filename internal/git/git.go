// Package git provides the repository operations relcut needs to publish a
// release: annotated tags, staging, committing and pushing. It uses the
// go-git library for all of them, and falls back to the git CLI only for
// the atomic push used when the in-process transport is unavailable.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging. The logger function should format
// and output the message (similar to log.Printf signature).
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// ErrDetachedHead is returned when a branch name is required but HEAD is detached.
var ErrDetachedHead = errors.New("HEAD is detached")

// ErrTagExists is wrapped by CreateTag when the tag is already present.
var ErrTagExists = git.ErrTagExists

// ErrRemoteNotFound is returned by go-git when a named remote is not configured.
var ErrRemoteNotFound = git.ErrRemoteNotFound

// Repository wraps a go-git repository rooted at a working tree.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the git repository containing path. It walks up the directory
// tree to find the repository root, so path may be any directory inside
// the working tree.
func Open(path string) (*Repository, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	logDebug("[git] opening repository at %s", abs)

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", abs, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	logDebug("[git] repository root: %s", root)
	return &Repository{repo: repo, root: root}, nil
}

// Root returns the absolute path of the working tree root.
func (r *Repository) Root() string {
	return r.root
}

// CurrentBranch returns the short name of the checked-out branch.
// Returns ErrDetachedHead if HEAD does not point at a branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// TagExists reports whether a tag with the given name exists.
func (r *Repository) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("looking up tag %s: %w", name, err)
}

// CreateTag creates an annotated tag on HEAD. The tagger identity comes
// from the git config (repository, then global, then system).
// Returns an error wrapping git.ErrTagExists if the tag is already present.
func (r *Repository) CreateTag(name, message string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}

	logDebug("[git] CreateTag: %s -> %s", name, head.Hash())
	return nil
}

// Add stages the given paths. Relative paths are resolved against the
// working tree root; absolute paths must be inside it.
func (r *Repository) Add(paths ...string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return err
		}
		if _, err := worktree.Add(rel); err != nil {
			return fmt.Errorf("staging %s: %w", rel, err)
		}
		logDebug("[git] Add: %s", rel)
	}
	return nil
}

// relative converts p to a slash-separated path relative to the root.
func (r *Repository) relative(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	rel, err := filepath.Rel(r.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the repository %s", p, r.root)
	}
	return filepath.ToSlash(rel), nil
}

// Commit records the staged changes and returns the new commit hash.
// The author comes from the git config.
func (r *Repository) Commit(message string) (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}

	logDebug("[git] Commit: %s", hash)
	return hash.String(), nil
}

// HasRemote reports whether a remote with the given name is configured.
func (r *Repository) HasRemote(name string) bool {
	_, err := r.repo.Remote(name)
	return err == nil
}

// PushTag pushes a single tag to the remote.
func (r *Repository) PushTag(ctx context.Context, remote, tag string) error {
	ref := plumbing.NewTagReferenceName(tag)
	return r.push(ctx, remote, ref)
}

// PushBranch pushes a local branch to the branch of the same name on the remote.
func (r *Repository) PushBranch(ctx context.Context, remote, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	return r.push(ctx, remote, ref)
}

// push sends ref to remote. Failures are returned as *PushError so callers
// can decide on a fallback by kind.
func (r *Repository) push(ctx context.Context, remoteName string, ref plumbing.ReferenceName) error {
	remote, err := r.repo.Remote(remoteName)
	if err != nil {
		return newPushError(remoteName, ref.String(), err)
	}

	var auth transport.AuthMethod
	if urls := remote.Config().URLs; len(urls) > 0 {
		auth = getAuthForURL(urls[0])
	}

	spec := config.RefSpec(ref.String() + ":" + ref.String())
	logDebug("[git] pushing %s to %s", spec, remoteName)

	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       auth,
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return newPushError(remoteName, ref.String(), err)
}

// getAuthForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use environment credentials.
func getAuthForURL(url string) transport.AuthMethod {
	if isSSHURL(url) {
		if !isSSHAgentAvailable() {
			logDebug("[git] SSH_AUTH_SOCK not set, using default SSH auth")
			return nil
		}
		auth, err := ssh.NewSSHAgentAuth(sshUser(url))
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	// For HTTPS, try environment credentials
	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username == "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			username = "x-access-token"
			password = token
		}
	}

	if username != "" {
		return &http.BasicAuth{
			Username: username,
			Password: password,
		}
	}

	return nil
}

// sshUser extracts the user from an SCP-style or ssh:// URL, defaulting to "git".
func sshUser(url string) string {
	rest := url
	for _, prefix := range []string{"git+ssh://", "ssh://"} {
		rest = strings.TrimPrefix(rest, prefix)
	}
	if user, _, found := strings.Cut(rest, "@"); found && user != "" && !strings.ContainsAny(user, "/:") {
		return user
	}
	return "git"
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
// Returns true only if SSH_AUTH_SOCK is set and non-empty.
func isSSHAgentAvailable() bool {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	return sock != ""
}
