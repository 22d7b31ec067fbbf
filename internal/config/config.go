// Package config provides layered configuration for relcut using koanf.
// Configuration is loaded with priority: environment variables (RELCUT_*) >
// project config (.relcut/config.yml, or legacy .relcut.json) > user config
// (~/.config/relcut/config.yml) > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read as config keys.
const EnvPrefix = "RELCUT_"

// Configuration is the relcut release configuration.
type Configuration struct {
	// Manifest is the package manifest whose version field is rewritten,
	// relative to the repository root.
	Manifest string `koanf:"manifest" validate:"required"`
	// ManifestIndent is the number of spaces per level in the rewritten manifest.
	ManifestIndent int `koanf:"manifest_indent" validate:"min=1,max=16"`

	// Changelog is the file written by the generator and staged for commit.
	Changelog string `koanf:"changelog" validate:"required"`
	// ChangelogCmd is the generator command template.
	// {{VERSION}} and {{OUTPUT}} are substituted per argument.
	ChangelogCmd string `koanf:"changelog_cmd" validate:"required"`
	// ChangelogStrict makes a failing generator abort the release.
	ChangelogStrict bool `koanf:"changelog_strict"`

	TagFormat     string `koanf:"tag_format" validate:"required"`
	TagMessage    string `koanf:"tag_message" validate:"required"`
	CommitMessage string `koanf:"commit_message" validate:"required"`

	Remote string `koanf:"remote" validate:"required"`
	// Branch is pushed together with the tag by the git CLI fallback.
	Branch string `koanf:"branch" validate:"required"`
	// FallbackPush enables 'git push --atomic' after a transport failure.
	FallbackPush bool   `koanf:"fallback_push"`
	GitCmd       string `koanf:"git_cmd" validate:"required"`

	// Timeout bounds the whole release in seconds; 0 disables it.
	Timeout int `koanf:"timeout" validate:"min=0,max=86400"`
	// Progress selects the progress display: "auto" shows a spinner on a
	// terminal, "plain" always prints plain status lines.
	Progress string `koanf:"progress" validate:"oneof=auto plain"`

	StateDir string `koanf:"state_dir"`
	// MaxHistoryEntries caps the release history; oldest entries are pruned.
	MaxHistoryEntries int `koanf:"max_history_entries" validate:"min=0,max=100000"`
}

// TimeoutDuration returns Timeout as a duration (0 when disabled).
func (c *Configuration) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// RepoDir is the repository root project config paths are resolved against.
	RepoDir string
	// ProjectConfigPath overrides the project config path (default: <RepoDir>/.relcut/config.yml)
	ProjectConfigPath string
	// WarningWriter receives warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses warnings
	SkipWarnings bool
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := opts.WarningWriter
	if warningWriter == nil {
		warningWriter = os.Stderr
	}

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if err := loadUserConfig(k); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(k, opts, warningWriter); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	return finalizeConfig(k)
}

func loadUserConfig(k *koanf.Koanf) error {
	path, err := UserConfigPath()
	if err != nil || !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project YAML config, or the legacy JSON file
// when no YAML config exists. An explicit ProjectConfigPath must exist.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions, warningWriter io.Writer) error {
	if opts.ProjectConfigPath != "" {
		if !fileExists(opts.ProjectConfigPath) {
			return fmt.Errorf("config file %s: %w", opts.ProjectConfigPath, os.ErrNotExist)
		}
		if strings.EqualFold(filepath.Ext(opts.ProjectConfigPath), ".json") {
			return loadJSONConfig(k, opts.ProjectConfigPath)
		}
		if err := loadYAMLConfig(k, opts.ProjectConfigPath); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		return nil
	}

	yamlPath := ProjectConfigPath(opts.RepoDir)
	legacyPath := LegacyProjectConfigPath(opts.RepoDir)
	yamlExists := fileExists(yamlPath)
	legacyExists := fileExists(legacyPath)

	switch {
	case yamlExists:
		if err := loadYAMLConfig(k, yamlPath); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if legacyExists && !opts.SkipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Legacy config %s ignored, using %s\n", legacyPath, yamlPath)
		}
	case legacyExists:
		if err := loadJSONConfig(k, legacyPath); err != nil {
			return err
		}
		if !opts.SkipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Using legacy JSON config %s\n", legacyPath)
			fmt.Fprintf(warningWriter, "  Move its keys to %s.\n", yamlPath)
		}
	}
	return nil
}

func loadYAMLConfig(k *koanf.Koanf, path string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadJSONConfig(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	return nil
}

func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, err
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: RELCUT_TAG_FORMAT -> tag_format
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
