// Package changelog runs the external changelog generator for a release.
//
// relcut does not parse or format changelogs itself. It renders the
// configured generator command line, runs it in the repository and reports
// problems as warnings unless strict mode is enabled.
package changelog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ariel-frischer/relcut/internal/command"
	"github.com/google/shlex"
)

const (
	// DefaultCommand is the generator command template used when none is configured.
	DefaultCommand = "git-chglog --next-tag v{{VERSION}} --output {{OUTPUT}}"

	// DefaultOutput is the changelog file written by the generator.
	DefaultOutput = "CHANGELOG.md"

	versionPlaceholder = "{{VERSION}}"
	outputPlaceholder  = "{{OUTPUT}}"
)

// ErrGeneratorFailed is returned in strict mode when the generator cannot
// be run or exits non-zero.
var ErrGeneratorFailed = errors.New("changelog generator failed")

// Result describes one generator run.
type Result struct {
	// Args is the command line that was run.
	Args []string
	// Output is the generator's combined stdout and stderr.
	Output []byte
	// Warnings lists non-fatal problems, in the order they were found.
	Warnings []string
}

// Generator runs a changelog generator command.
type Generator struct {
	// Command is the command template; {{VERSION}} and {{OUTPUT}} are
	// substituted after the template is split into arguments.
	Command string
	// Output is the changelog path, relative to the repository root unless absolute.
	Output string
	// Strict turns generator failures into errors.
	Strict bool
	// Runner executes the command. Defaults to command.ExecRunner.
	Runner command.Runner
}

// RenderCommand splits tmpl shell-style and substitutes the placeholders
// in every argument. Substitution happens after splitting so a version
// containing spaces or quotes stays a single argument.
func RenderCommand(tmpl, version, output string) ([]string, error) {
	args, err := shlex.Split(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing changelog command %q: %w", tmpl, err)
	}
	if len(args) == 0 {
		return nil, errors.New("changelog command is empty")
	}
	replacer := strings.NewReplacer(versionPlaceholder, version, outputPlaceholder, output)
	for i, arg := range args {
		args[i] = replacer.Replace(arg)
	}
	return args, nil
}

// Generate runs the generator for version inside dir.
//
// Without Strict, a missing binary or a non-zero exit is recorded in
// Result.Warnings and Generate returns a nil error. A changelog that does
// not mention version after a successful run is always only a warning.
func (g *Generator) Generate(ctx context.Context, dir, version string) (*Result, error) {
	tmpl := g.Command
	if tmpl == "" {
		tmpl = DefaultCommand
	}
	output := g.Output
	if output == "" {
		output = DefaultOutput
	}

	args, err := RenderCommand(tmpl, version, output)
	if err != nil {
		return nil, err
	}

	runner := g.Runner
	if runner == nil {
		runner = command.ExecRunner{}
	}

	result := &Result{Args: args}
	out, err := runner.Run(ctx, dir, args[0], args[1:]...)
	result.Output = out
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		msg := failureMessage(args[0], err)
		if g.Strict {
			return result, fmt.Errorf("%w: %s: %w", ErrGeneratorFailed, msg, err)
		}
		result.Warnings = append(result.Warnings, msg)
		return result, nil
	}

	path := output
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if warning := checkMentions(path, version); warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	return result, nil
}

// mentionPattern matches version as a whole token, optionally v-prefixed:
// "v1.2.3" and "1.2.3." match 1.2.3, while "11.2.3", "1.2.30" and
// "1.2.3-rc.1" do not.
func mentionPattern(version string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^0-9A-Za-z.])v?` + regexp.QuoteMeta(version) + `(?:$|[^0-9A-Za-z.+-]|\.(?:\s|$))`)
}

func failureMessage(name string, err error) string {
	if command.IsNotFound(err) {
		return fmt.Sprintf("changelog generator %s not found in PATH", name)
	}
	if code := command.ExitCode(err); code > 0 {
		return fmt.Sprintf("changelog generator %s exited with status %d", name, code)
	}
	return fmt.Sprintf("changelog generator %s could not be run", name)
}

// checkMentions returns a warning when the changelog at path is missing
// or does not mention the release, as version or v-prefixed tag.
func checkMentions(path, version string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("changelog %s was not written: %v", filepath.Base(path), err)
	}
	if version != "" && !mentionPattern(version).Match(data) {
		return fmt.Sprintf("changelog %s does not mention %s", filepath.Base(path), version)
	}
	return ""
}
