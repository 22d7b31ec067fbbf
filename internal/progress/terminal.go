package progress

import (
	"os"

	"golang.org/x/term"
)

// TerminalCapabilities describes what the output stream can render.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// ProgressSymbols are the markers printed for finished steps.
type ProgressSymbols struct {
	Checkmark  string
	Failure    string
	Warning    string
	SpinnerSet int
}

// DetectTerminalCapabilities inspects stdout, NO_COLOR and RELCUT_ASCII.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("RELCUT_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// PlainCapabilities describes a pipe or log file: no spinner, color or Unicode.
func PlainCapabilities() TerminalCapabilities {
	return TerminalCapabilities{}
}

// SelectSymbols returns Unicode markers with the braille spinner (set 14)
// when supported, otherwise ASCII markers with the |/-\ spinner (set 9).
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return ProgressSymbols{
			Checkmark:  "✓",
			Failure:    "✗",
			Warning:    "⚠",
			SpinnerSet: 14,
		}
	}

	return ProgressSymbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		Warning:    "[WARN]",
		SpinnerSet: 9,
	}
}
