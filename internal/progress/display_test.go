package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps           TerminalCapabilities
		wantCheck      string
		wantFailure    string
		wantSpinnerSet int
	}{
		"unicode terminal": {
			caps:           TerminalCapabilities{IsTTY: true, SupportsUnicode: true},
			wantCheck:      "✓",
			wantFailure:    "✗",
			wantSpinnerSet: 14,
		},
		"ascii fallback": {
			caps:           TerminalCapabilities{IsTTY: true},
			wantCheck:      "[OK]",
			wantFailure:    "[FAIL]",
			wantSpinnerSet: 9,
		},
		"plain": {
			caps:           PlainCapabilities(),
			wantCheck:      "[OK]",
			wantFailure:    "[FAIL]",
			wantSpinnerSet: 9,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := SelectSymbols(tt.caps)
			assert.Equal(t, tt.wantCheck, got.Checkmark)
			assert.Equal(t, tt.wantFailure, got.Failure)
			assert.Equal(t, tt.wantSpinnerSet, got.SpinnerSet)
		})
	}
}

func TestDisplay_Plain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := NewDisplay(&buf, PlainCapabilities())

	d.Start("Generating changelog")
	d.Warn("changelog generator git-chglog not found in PATH")
	d.Done("Changelog generated")
	d.Start("Creating tag")
	d.Fail("Tag 1.2.3 already exists")
	d.Info("Dry run: nothing was changed")

	want := []string{
		"[WARN] changelog generator git-chglog not found in PATH",
		"[OK] Changelog generated",
		"[FAIL] Tag 1.2.3 already exists",
		"Dry run: nothing was changed",
	}
	assert.Equal(t, want, strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"))
}

func TestDisplay_ColorOnlyWhenSupported(t *testing.T) {
	t.Parallel()

	var plain, colored bytes.Buffer
	NewDisplay(&plain, TerminalCapabilities{}).Done("ok")
	NewDisplay(&colored, TerminalCapabilities{SupportsColor: true}).Done("ok")

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.True(t, strings.HasSuffix(colored.String(), " ok\n"))
}

func TestDisplay_SpinnerOnTTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := NewDisplay(&buf, TerminalCapabilities{IsTTY: true, SupportsUnicode: true})

	d.Start("Pushing tag")
	d.Info("remote: resolving deltas")
	d.Done("Tag pushed to origin")

	assert.Nil(t, d.spin)
	assert.Contains(t, buf.String(), "remote: resolving deltas\n")
	assert.Contains(t, buf.String(), "✓ Tag pushed to origin\n")
}
