package config

import (
	"github.com/ariel-frischer/relcut/internal/changelog"
	"github.com/ariel-frischer/relcut/internal/manifest"
)

// Progress display modes.
const (
	ProgressAuto  = "auto"
	ProgressPlain = "plain"
)

// GetDefaults returns the default configuration values keyed by koanf path.
// With no config files and no RELCUT_* variables these reproduce the
// classic package.json + git-chglog + origin/main release flow.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"manifest":            "package.json",
		"manifest_indent":     manifest.DefaultIndent,
		"changelog":           changelog.DefaultOutput,
		"changelog_cmd":       changelog.DefaultCommand,
		"changelog_strict":    false,
		"tag_format":          "{{VERSION}}",
		"tag_message":         "chore(bump): v{{VERSION}}",
		"commit_message":      "chore(VERSION): update VERSION",
		"remote":              "origin",
		"branch":              "main",
		"fallback_push":       true,
		"git_cmd":             "git",
		"timeout":             0,
		"state_dir":           "~/.relcut/state",
		"max_history_entries": 500,
		"progress":            ProgressAuto,
	}
}

// GetDefaultConfigTemplate returns a commented project config listing every key.
func GetDefaultConfigTemplate() string {
	return `# relcut project configuration (.relcut/config.yml)
# Every key can be overridden with a RELCUT_<KEY> environment variable.

# Files
manifest: package.json                # JSON or YAML manifest whose "version" is bumped
manifest_indent: 4                    # Indentation used when the manifest is rewritten
changelog: CHANGELOG.md               # Changelog written by the generator and committed

# Changelog generator ({{VERSION}} and {{OUTPUT}} are substituted)
changelog_cmd: git-chglog --next-tag v{{VERSION}} --output {{OUTPUT}}
changelog_strict: false               # Fail the release when the generator fails

# Tag and commit
tag_format: "{{VERSION}}"             # Tag name
tag_message: "chore(bump): v{{VERSION}}"
commit_message: "chore(VERSION): update VERSION"

# Push
remote: origin
branch: main                          # Branch pushed by the git CLI fallback
fallback_push: true                   # Retry with 'git push --atomic' on transport errors
git_cmd: git

# Runtime
timeout: 0                            # Seconds for the whole release (0 = no timeout)
progress: auto                        # auto | plain
state_dir: ~/.relcut/state            # Release history location
max_history_entries: 500
`
}
