package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// Color functions with auto-detection for terminal support.
	// These fall back gracefully when colors are unavailable.
	errorLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	errorMsg    = color.New(color.FgRed).SprintFunc()
	fixLabel    = color.New(color.FgGreen, color.Bold).SprintFunc()
	usageLabel  = color.New(color.FgCyan, color.Bold).SprintFunc()
	bullet      = color.New(color.FgGreen).SprintFunc()
	categoryFmt = color.New(color.FgYellow).SprintFunc()
	plain       = func(a ...interface{}) string { return fmt.Sprint(a...) }
)

// FormatError formats a CLIError for display in the terminal.
// Colors are dropped automatically when color.NoColor is set.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	return formatError(err, !color.NoColor)
}

func formatError(err *CLIError, useColors bool) string {
	label, msg, fix, usage, dot, category := plain, plain, plain, plain, plain, plain
	if useColors {
		label, msg, fix, usage, dot, category = errorLabel, errorMsg, fixLabel, usageLabel, bullet, categoryFmt
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]: %s\n", label("Error"), category(err.Category.String()), msg(err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s%s\n", usage("Usage: "), err.Usage)
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", fix("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", dot("•"), step)
		}
	}

	return sb.String()
}

// FprintError prints any error to w. CLIErrors anywhere in the chain get
// the structured layout; other errors are shown as runtime errors.
func FprintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	cliErr := AsCLIError(err)
	if cliErr == nil {
		cliErr = &CLIError{Category: Runtime, Message: err.Error(), Err: err}
	}
	fmt.Fprint(w, FormatError(cliErr))
}
