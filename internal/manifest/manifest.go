// Package manifest rewrites the version field of a package manifest.
//
// A manifest is read fully, parsed, has its top-level "version" key set and
// is written back fully with a fixed indentation. Key order and all other
// values are preserved. JSON (package.json, composer.json) and YAML
// (pubspec.yaml, Chart.yaml) manifests are supported; the format is chosen
// from the file extension.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VersionKey is the manifest field relcut rewrites.
const VersionKey = "version"

// DefaultIndent is the indentation used when none is configured.
const DefaultIndent = 4

// ErrNotMapping is returned when the manifest's top level is not a key-value mapping.
var ErrNotMapping = errors.New("manifest top level is not a mapping")

// ParseError reports a manifest that could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Codec sets the version in an encoded manifest.
type Codec interface {
	// SetVersion returns data with the top-level version key set to
	// version, re-encoded with indent spaces, and the previous version
	// ("" if the key was absent or not a string).
	SetVersion(data []byte, version string, indent int) (out []byte, previous string, err error)
}

// CodecFor returns the codec matching the manifest's file extension.
// Unknown extensions are treated as JSON.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return JSONCodec{}
	}
}

// Updater rewrites the version field of manifest files.
type Updater struct {
	// Indent is the number of spaces per level (DefaultIndent if <= 0).
	Indent int
}

// Update sets the version of the manifest at path and returns the previous
// version. A missing file yields an error wrapping fs.ErrNotExist; a
// malformed file yields a *ParseError and leaves the file untouched.
// The file is truncated and rewritten in place.
func (u Updater) Update(path, version string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}

	indent := u.Indent
	if indent <= 0 {
		indent = DefaultIndent
	}

	out, previous, err := CodecFor(path).SetVersion(data, version, indent)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return previous, nil
}

// ReadVersion returns the top-level version of the manifest at path without
// writing it. It fails the same way Update does.
func (u Updater) ReadVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}
	// Only the previous value is needed; the re-encoded document is discarded.
	_, previous, err := CodecFor(path).SetVersion(data, "", DefaultIndent)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	return previous, nil
}
