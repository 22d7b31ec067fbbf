package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature is the identity used for commits and tags in test repositories.
var Signature = object.Signature{
	Name:  "Release Bot",
	Email: "release-bot@example.com",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

// NewRepo initializes a repository on branch main in a temp directory,
// configures a local user identity, and commits the given files.
func NewRepo(t *testing.T, files map[string]string) (string, *git.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("reading repository config: %v", err)
	}
	cfg.User.Name = Signature.Name
	cfg.User.Email = Signature.Email
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("writing repository config: %v", err)
	}

	if len(files) == 0 {
		files = map[string]string{"README.md": "# test\n"}
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("getting worktree: %v", err)
	}
	for name, content := range files {
		WriteFile(t, dir, name, content)
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("staging %s: %v", name, err)
		}
	}
	sig := Signature
	if _, err := wt.Commit("initial commit", &git.CommitOptions{Author: &sig, Committer: &sig}); err != nil {
		t.Fatalf("initial commit: %v", err)
	}

	return dir, repo
}

// NewBareRemote initializes a bare repository to push to and registers it
// as a remote of repo.
func NewBareRemote(t *testing.T, repo *git.Repository, name string) string {
	t.Helper()

	dir := t.TempDir()
	if _, err := git.PlainInit(dir, true); err != nil {
		t.Fatalf("init bare repository: %v", err)
	}
	AddRemote(t, repo, name, dir)
	return dir
}

// AddRemote registers a remote with a single URL.
func AddRemote(t *testing.T, repo *git.Repository, name, url string) {
	t.Helper()

	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		t.Fatalf("creating remote %s: %v", name, err)
	}
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}
