// Package ui renders terminal styling for the ballot CLI.
package ui

import "fmt"

// ANSI 256-color codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorError  = 167 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent styles headers and identifiers.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted styles secondary text such as totals and defaults.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand styles command names in help output.
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderError styles error messages.
func RenderError(s string) string { return render(colorError, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
