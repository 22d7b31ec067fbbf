package config

import (
	"os"
	"path/filepath"
)

const (
	appName = "relcut"

	// ProjectConfigDir is the per-repository config directory.
	ProjectConfigDir = ".relcut"

	// LegacyProjectConfigFile is the older single-file JSON project config.
	LegacyProjectConfigFile = ".relcut.json"
)

// UserConfigPath returns the path to the user-level config file,
// honoring XDG_CONFIG_HOME on Linux:
//   - Linux: ~/.config/relcut/config.yml
//   - macOS: ~/Library/Application Support/relcut/config.yml
//   - Windows: %APPDATA%\relcut\config.yml
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName, "config.yml"), nil
}

// ProjectConfigPath returns the project config path inside repoDir.
func ProjectConfigPath(repoDir string) string {
	return filepath.Join(repoDir, ProjectConfigDir, "config.yml")
}

// LegacyProjectConfigPath returns the legacy JSON project config path inside repoDir.
func LegacyProjectConfigPath(repoDir string) string {
	return filepath.Join(repoDir, LegacyProjectConfigFile)
}
