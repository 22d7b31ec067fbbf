// Package history records one entry per release attempt in a YAML file
// under the state directory.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the history file inside the state directory.
const FileName = "history.yaml"

// HistoryEntry is one release attempt.
type HistoryEntry struct {
	// ID identifies the run; it is unique per attempt, not per version.
	ID        string    `yaml:"id,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
	Repo      string    `yaml:"repo"`
	Version   string    `yaml:"version"`
	Tag       string    `yaml:"tag,omitempty"`
	Commit    string    `yaml:"commit,omitempty"`
	// PushMethod is "transport", "fallback" or "skipped"; empty when the
	// run failed before pushing.
	PushMethod string `yaml:"push_method,omitempty"`
	ExitCode   int    `yaml:"exit_code"`
	Duration   string `yaml:"duration"`
	Error      string `yaml:"error,omitempty"`
}

// HistoryFile is the on-disk history document.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// HistoryPath returns the history file path inside stateDir.
func HistoryPath(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// LoadHistory reads the history in stateDir. A missing file yields an
// empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(HistoryPath(stateDir))
	if errors.Is(err, os.ErrNotExist) {
		return &HistoryFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", HistoryPath(stateDir), err)
	}
	return &history, nil
}

// SaveHistory writes history to stateDir, creating the directory if
// needed. The file is replaced through a rename so readers never see a
// partial document.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp.Name(), HistoryPath(stateDir)); err != nil {
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}
