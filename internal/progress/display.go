// Package progress prints release step status: a spinner while a step runs
// on a terminal, and one status line per finished step.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const spinnerInterval = 100 * time.Millisecond

// Display reports step progress to a writer. It is safe for use by one
// release at a time; calls are serialized.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	spin    *spinner.Spinner
}

// NewDisplay returns a Display writing to out. A spinner is only shown
// when caps.IsTTY is set.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start marks step as running.
func (d *Display) Start(step string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	if !d.caps.IsTTY {
		return
	}
	d.spin = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(d.out))
	d.spin.Suffix = " " + step
	d.spin.Start()
}

// Done ends the running step and prints msg with a checkmark.
func (d *Display) Done(msg string) {
	d.finish(d.symbols.Checkmark, color.FgGreen, msg)
}

// Fail ends the running step and prints msg with a failure marker.
func (d *Display) Fail(msg string) {
	d.finish(d.symbols.Failure, color.FgRed, msg)
}

// Warn prints msg with a warning marker without ending the running step.
func (d *Display) Warn(msg string) {
	d.printLine(d.paint(color.FgYellow, d.symbols.Warning) + " " + msg)
}

// Info prints msg as a plain line without ending the running step.
func (d *Display) Info(msg string) {
	d.printLine(msg)
}

func (d *Display) printLine(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	running := d.spin != nil && d.spin.Active()
	d.stopSpinner()
	fmt.Fprintln(d.out, line)
	if running {
		d.spin.Start()
	}
}

func (d *Display) finish(symbol string, attr color.Attribute, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	d.spin = nil
	fmt.Fprintf(d.out, "%s %s\n", d.paint(attr, symbol), msg)
}

// stopSpinner halts the spinner but keeps it for a later restart.
func (d *Display) stopSpinner() {
	if d.spin != nil && d.spin.Active() {
		d.spin.Stop()
	}
}

func (d *Display) paint(attr color.Attribute, s string) string {
	if !d.caps.SupportsColor {
		return s
	}
	c := color.New(attr, color.Bold)
	c.EnableColor()
	return c.Sprint(s)
}
