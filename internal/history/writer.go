package history

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer appends history entries with automatic pruning. Writes from one
// Writer are serialized.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain (0 = unlimited).
	MaxEntries int
	// Warnings receives write failures (default: os.Stderr).
	Warnings io.Writer

	mu sync.Mutex
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
	}
}

// LogEntry appends entry, pruning the oldest entries beyond MaxEntries.
// Failures are reported as warnings and never returned: a release must
// not fail because its history could not be written.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if err := w.logEntryInternal(entry); err != nil {
		out := w.Warnings
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "Warning: failed to log release history: %v\n", err)
	}
}

func (w *Writer) logEntryInternal(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Release summarizes one release run for LogRelease.
type Release struct {
	Repo       string
	Version    string
	Tag        string
	Commit     string
	PushMethod string
	ExitCode   int
	Err        error
}

// LogRelease records a finished release run that took duration.
func (w *Writer) LogRelease(r Release, duration time.Duration) {
	entry := HistoryEntry{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Repo:       r.Repo,
		Version:    r.Version,
		Tag:        r.Tag,
		Commit:     r.Commit,
		PushMethod: r.PushMethod,
		ExitCode:   r.ExitCode,
		Duration:   duration.Round(time.Millisecond).String(),
	}
	if r.Err != nil {
		entry.Error = r.Err.Error()
	}
	w.LogEntry(entry)
}
