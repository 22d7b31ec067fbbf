package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config and home directories at temp dirs and
// returns the user config directory. Tests calling it cannot run in parallel.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())
	return filepath.Join(xdg, "relcut")
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithOptions(LoadOptions{RepoDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "package.json", cfg.Manifest)
	assert.Equal(t, 4, cfg.ManifestIndent)
	assert.Equal(t, "CHANGELOG.md", cfg.Changelog)
	assert.Equal(t, "git-chglog --next-tag v{{VERSION}} --output {{OUTPUT}}", cfg.ChangelogCmd)
	assert.False(t, cfg.ChangelogStrict)
	assert.Equal(t, "{{VERSION}}", cfg.TagFormat)
	assert.Equal(t, "chore(bump): v{{VERSION}}", cfg.TagMessage)
	assert.Equal(t, "chore(VERSION): update VERSION", cfg.CommitMessage)
	assert.Equal(t, "origin", cfg.Remote)
	assert.Equal(t, "main", cfg.Branch)
	assert.True(t, cfg.FallbackPush)
	assert.Equal(t, "git", cfg.GitCmd)
	assert.Zero(t, cfg.TimeoutDuration())
	assert.Equal(t, ProgressAuto, cfg.Progress)
	assert.Equal(t, 500, cfg.MaxHistoryEntries)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".relcut", "state"), cfg.StateDir)
}

func TestLoad_Precedence(t *testing.T) {
	userDir := isolate(t)
	repo := t.TempDir()

	writeConfig(t, filepath.Join(userDir, "config.yml"), "remote: upstream\nbranch: trunk\ntimeout: 10\n")
	writeConfig(t, ProjectConfigPath(repo), "branch: release\nmanifest: pubspec.yaml\nmanifest_indent: 2\n")
	t.Setenv("RELCUT_TIMEOUT", "30")
	t.Setenv("RELCUT_CHANGELOG_STRICT", "true")

	cfg, err := LoadWithOptions(LoadOptions{RepoDir: repo})
	require.NoError(t, err)

	assert.Equal(t, "upstream", cfg.Remote, "user config over defaults")
	assert.Equal(t, "release", cfg.Branch, "project config over user config")
	assert.Equal(t, "pubspec.yaml", cfg.Manifest)
	assert.Equal(t, 2, cfg.ManifestIndent)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration(), "environment over user config")
	assert.True(t, cfg.ChangelogStrict)
}

func TestLoad_LegacyJSON(t *testing.T) {
	tests := map[string]struct {
		yaml        string
		wantRemote  string
		wantWarning string
	}{
		"legacy only": {
			wantRemote:  "legacy",
			wantWarning: "Using legacy JSON config",
		},
		"yaml wins over legacy": {
			yaml:        "remote: modern\n",
			wantRemote:  "modern",
			wantWarning: "ignored",
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			isolate(t)
			repo := t.TempDir()
			writeConfig(t, LegacyProjectConfigPath(repo), `{"remote": "legacy"}`)
			if tt.yaml != "" {
				writeConfig(t, ProjectConfigPath(repo), tt.yaml)
			}

			var warnings bytes.Buffer
			cfg, err := LoadWithOptions(LoadOptions{RepoDir: repo, WarningWriter: &warnings})
			require.NoError(t, err)

			assert.Equal(t, tt.wantRemote, cfg.Remote)
			assert.Contains(t, warnings.String(), tt.wantWarning)
		})
	}
}

func TestLoad_SkipWarnings(t *testing.T) {
	isolate(t)
	repo := t.TempDir()
	writeConfig(t, LegacyProjectConfigPath(repo), `{"remote": "legacy"}`)

	var warnings bytes.Buffer
	_, err := LoadWithOptions(LoadOptions{RepoDir: repo, WarningWriter: &warnings, SkipWarnings: true})
	require.NoError(t, err)
	assert.Empty(t, warnings.String())
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	repo := t.TempDir()

	custom := filepath.Join(t.TempDir(), "release.yml")
	writeConfig(t, custom, "remote: mirror\n")
	writeConfig(t, ProjectConfigPath(repo), "remote: ignored\n")

	cfg, err := LoadWithOptions(LoadOptions{RepoDir: repo, ProjectConfigPath: custom})
	require.NoError(t, err)
	assert.Equal(t, "mirror", cfg.Remote)

	_, err = LoadWithOptions(LoadOptions{RepoDir: repo, ProjectConfigPath: filepath.Join(repo, "missing.yml")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]struct {
		content   string
		wantField string
		wantLine  bool
	}{
		"syntax error": {
			content:  "remote: origin\n  branch: main\n",
			wantLine: true,
		},
		"indent too small": {
			content:   "manifest_indent: 0\n",
			wantField: "manifest_indent",
		},
		"unknown progress mode": {
			content:   "progress: fancy\n",
			wantField: "progress",
		},
		"tag format without placeholder": {
			content:   "tag_format: release\n",
			wantField: "tag_format",
		},
		"empty remote": {
			content:   "remote: \"\"\n",
			wantField: "remote",
		},
		"negative timeout": {
			content:   "timeout: -1\n",
			wantField: "timeout",
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			isolate(t)
			repo := t.TempDir()
			writeConfig(t, ProjectConfigPath(repo), tt.content)

			_, err := LoadWithOptions(LoadOptions{RepoDir: repo})
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "want *ValidationError, got %T: %v", err, err)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
			if tt.wantLine {
				assert.Positive(t, vErr.Line)
			}
		})
	}
}

func TestValidateYAMLSyntaxFromBytes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data    string
		wantErr bool
	}{
		"valid mapping":   {data: "remote: origin\n"},
		"empty":           {data: ""},
		"whitespace only": {data: "  \n\n"},
		"comment only":    {data: "# nothing here\n"},
		"bad indentation": {data: "remote: origin\n  branch: main\n", wantErr: true},
		"sequence":        {data: "- remote\n- branch\n", wantErr: true},
		"scalar":          {data: "origin\n", wantErr: true},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := ValidateYAMLSyntaxFromBytes([]byte(tt.data), "config.yml")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "config.yml")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateYAMLSyntax_MissingFile(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateYAMLSyntax(filepath.Join(t.TempDir(), "absent.yml")))
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  ValidationError
		want string
	}{
		"with position": {
			err:  ValidationError{FilePath: "c.yml", Line: 3, Column: 7, Message: "bad"},
			want: "c.yml:3:7: bad",
		},
		"with field": {
			err:  ValidationError{FilePath: "config", Field: "remote", Message: "is required"},
			want: "config: field 'remote': is required",
		},
		"plain": {
			err:  ValidationError{FilePath: "c.json", Message: "broken"},
			want: "c.json: broken",
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExtractLineColumn(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg      string
		wantLine int
		wantCol  int
	}{
		"line only":     {msg: "yaml: line 5: could not find expected ':'", wantLine: 5, wantCol: 1},
		"line and col":  {msg: "yaml: line 2: column 4: mapping values are not allowed", wantLine: 2, wantCol: 4},
		"no position":   {msg: "unexpected end of file"},
		"other library": {msg: "toml: line 1: bad"},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			line, col := extractLineColumn(tt.msg)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantCol, col)
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Remote":            "remote",
		"ManifestIndent":    "manifest_indent",
		"MaxHistoryEntries": "max_history_entries",
		"GitCmd":            "git_cmd",
	}

	for in, want := range tests {
		in, want := in, want
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, toSnakeCase(in))
		})
	}
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tag_format", envTransform("RELCUT_TAG_FORMAT"))
	assert.Equal(t, "max_history_entries", envTransform("RELCUT_MAX_HISTORY_ENTRIES"))
}

func TestGetDefaultConfigTemplate_IsValid(t *testing.T) {
	isolate(t)
	repo := t.TempDir()
	writeConfig(t, ProjectConfigPath(repo), GetDefaultConfigTemplate())

	cfg, err := LoadWithOptions(LoadOptions{RepoDir: repo})
	require.NoError(t, err)

	defaults := GetDefaults()
	assert.Equal(t, defaults["changelog_cmd"], cfg.ChangelogCmd)
	assert.Equal(t, defaults["tag_message"], cfg.TagMessage)
}
