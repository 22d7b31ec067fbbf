package changelog

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ariel-frischer/relcut/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is the fake generator binary for TestGenerate_HelperProcess.
func TestHelperProcess(t *testing.T) {
	testutil.TestHelperProcess(t)
}

type fakeRunner struct {
	dir  string
	name string
	args []string

	// write, if set, is written to the changelog path before returning.
	write string
	out   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.dir, f.name, f.args = dir, name, args
	if f.write != "" {
		if err := os.WriteFile(filepath.Join(dir, DefaultOutput), []byte(f.write), 0o644); err != nil {
			return nil, err
		}
	}
	return []byte(f.out), f.err
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		tmpl    string
		version string
		output  string
		want    []string
		wantErr bool
	}{
		"default template": {
			tmpl:    DefaultCommand,
			version: "1.2.3",
			output:  "CHANGELOG.md",
			want:    []string{"git-chglog", "--next-tag", "v1.2.3", "--output", "CHANGELOG.md"},
		},
		"quoted arguments": {
			tmpl:    `cog changelog --at "{{VERSION}}" -t 'full hash'`,
			version: "2.0.0",
			want:    []string{"cog", "changelog", "--at", "2.0.0", "-t", "full hash"},
		},
		"version with spaces stays one argument": {
			tmpl:    "gen {{VERSION}}",
			version: "1.0 beta",
			want:    []string{"gen", "1.0 beta"},
		},
		"output path with spaces": {
			tmpl:   "gen --output={{OUTPUT}}",
			output: "docs/CHANGE LOG.md",
			want:   []string{"gen", "--output=docs/CHANGE LOG.md"},
		},
		"empty template": {
			tmpl:    "   ",
			wantErr: true,
		},
		"unterminated quote": {
			tmpl:    `gen "{{VERSION}}`,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := RenderCommand(tt.tmpl, tt.version, tt.output)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	exitErr := exitError(t, 2)

	tests := map[string]struct {
		runner       *fakeRunner
		strict       bool
		wantErr      error
		wantWarnings []string
	}{
		"success mentioning version": {
			runner: &fakeRunner{write: "## [v1.2.3] - 2026-10-17\n"},
		},
		"success without mention": {
			runner:       &fakeRunner{write: "## [v1.2.2]\n"},
			wantWarnings: []string{"changelog CHANGELOG.md does not mention 1.2.3"},
		},
		"bare version is a mention": {
			runner: &fakeRunner{write: "Release 1.2.3.\n"},
		},
		"longer major is not a mention": {
			runner:       &fakeRunner{write: "## [v11.2.3]\n"},
			wantWarnings: []string{"changelog CHANGELOG.md does not mention 1.2.3"},
		},
		"longer patch is not a mention": {
			runner:       &fakeRunner{write: "## 1.2.30\n"},
			wantWarnings: []string{"changelog CHANGELOG.md does not mention 1.2.3"},
		},
		"pre-release is not a mention": {
			runner:       &fakeRunner{write: "## v1.2.3-rc.1\n"},
			wantWarnings: []string{"changelog CHANGELOG.md does not mention 1.2.3"},
		},
		"success without changelog file": {
			runner:       &fakeRunner{},
			wantWarnings: []string{"changelog CHANGELOG.md was not written"},
		},
		"non-zero exit is a warning": {
			runner:       &fakeRunner{err: exitErr, out: "no tags"},
			wantWarnings: []string{"changelog generator git-chglog exited with status 2"},
		},
		"missing binary is a warning": {
			runner:       &fakeRunner{err: &exec.Error{Name: "git-chglog", Err: exec.ErrNotFound}},
			wantWarnings: []string{"changelog generator git-chglog not found in PATH"},
		},
		"strict non-zero exit fails": {
			runner:  &fakeRunner{err: exitErr},
			strict:  true,
			wantErr: ErrGeneratorFailed,
		},
		"strict missing binary fails": {
			runner:  &fakeRunner{err: &exec.Error{Name: "git-chglog", Err: exec.ErrNotFound}},
			strict:  true,
			wantErr: exec.ErrNotFound,
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			g := &Generator{Strict: tt.strict, Runner: tt.runner}

			result, err := g.Generate(context.Background(), dir, "1.2.3")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, dir, tt.runner.dir)
			assert.Equal(t, "git-chglog", tt.runner.name)
			assert.Equal(t, []string{"--next-tag", "v1.2.3", "--output", "CHANGELOG.md"}, tt.runner.args)

			require.Len(t, result.Warnings, len(tt.wantWarnings))
			for i, want := range tt.wantWarnings {
				assert.Contains(t, result.Warnings[i], want)
			}
		})
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &Generator{Runner: &fakeRunner{err: errors.New("signal: killed")}}
	_, err := g.Generate(ctx, t.TempDir(), "1.0.0")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_InvalidCommand(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	g := &Generator{Command: `gen "unterminated`, Runner: runner}
	_, err := g.Generate(context.Background(), t.TempDir(), "1.0.0")
	require.Error(t, err)
	assert.Empty(t, runner.name, "runner must not be called")
}

func TestGenerate_AbsoluteOutput(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "HISTORY.md")
	require.NoError(t, os.WriteFile(out, []byte("# 3.0.0\n"), 0o644))

	runner := &fakeRunner{}
	g := &Generator{Command: "gen {{OUTPUT}}", Output: out, Runner: runner}
	result, err := g.Generate(context.Background(), t.TempDir(), "3.0.0")
	require.NoError(t, err)

	assert.Equal(t, []string{out}, runner.args)
	assert.Empty(t, result.Warnings)
}

func TestGenerate_HelperProcess(t *testing.T) {
	name, args, argsFile := testutil.HelperCommand(t, "TestHelperProcess", testutil.HelperProcessConfig{
		WriteFile:    DefaultOutput,
		WriteContent: "## v4.5.6\n",
	})

	tmpl := "'" + name + "'"
	for _, a := range args {
		tmpl += " '" + a + "'"
	}
	tmpl += " --next-tag v{{VERSION}} --output {{OUTPUT}}"

	dir := t.TempDir()
	result, err := (&Generator{Command: tmpl}).Generate(context.Background(), dir, "4.5.6")
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{"--next-tag", "v4.5.6", "--output", "CHANGELOG.md"}, testutil.ReadHelperArgs(t, argsFile))
}

// exitError produces a real *exec.ExitError with the given status.
func exitError(t *testing.T, code int) error {
	t.Helper()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	err = exec.Command(sh, "-c", "exit "+strconv.Itoa(code)).Run()
	require.Error(t, err)
	return err
}
