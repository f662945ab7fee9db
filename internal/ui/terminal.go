package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether ANSI colors should be written to stdout.
func ShouldUseColor() bool {
	return colorAllowed(os.Getenv, term.IsTerminal(int(os.Stdout.Fd())))
}

// ShouldUseColorStderr is ShouldUseColor for stderr.
func ShouldUseColorStderr() bool {
	return colorAllowed(os.Getenv, term.IsTerminal(int(os.Stderr.Fd())))
}

// colorAllowed applies NO_COLOR (https://no-color.org), CLICOLOR_FORCE and
// CLICOLOR in that order, then falls back to TTY detection.
func colorAllowed(getenv func(string) string, tty bool) bool {
	if noColor || getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(getenv("CLICOLOR")) == "0" {
		return false
	}
	return tty
}
