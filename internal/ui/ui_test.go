package ui

import "testing"

func TestColorAllowed(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{"tty", nil, true, true},
		{"pipe", nil, false, false},
		{"no color", map[string]string{"NO_COLOR": "1"}, true, false},
		{"no color beats force", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false, false},
		{"force", map[string]string{"CLICOLOR_FORCE": "1"}, false, true},
		{"clicolor off", map[string]string{"CLICOLOR": "0"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := colorAllowed(getenv, tt.tty); got != tt.want {
				t.Errorf("colorAllowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	if got := RenderAccent("x"); got != "\x1b[38;5;74mx\x1b[0m" {
		t.Errorf("RenderAccent = %q", got)
	}
	if got := RenderMuted(""); got != "" {
		t.Errorf("empty string should stay empty, got %q", got)
	}

	ForceNoColor()
	t.Cleanup(func() { noColor = false })
	if got := RenderError("boom"); got != "boom" {
		t.Errorf("RenderError with color disabled = %q", got)
	}
}
