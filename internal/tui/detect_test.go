package tui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func always(v bool) func(*os.File) bool {
	return func(*os.File) bool { return v }
}

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name     string
		vars     map[string]string
		terminal bool
		want     Mode
	}{
		{"terminal", nil, true, ModeInteractive},
		{"no terminal", nil, false, ModeNonInteractive},
		{"forced", map[string]string{NonInteractiveEnvVar: "1"}, true, ModeNonInteractive},
		{"only 1 forces", map[string]string{NonInteractiveEnvVar: "true"}, true, ModeInteractive},
		{"ci", map[string]string{"CI": "true"}, true, ModeNonInteractive},
		{"no color", map[string]string{"NO_COLOR": "1"}, true, ModeNonInteractive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMode(env(tt.vars), always(tt.terminal)))
		})
	}
}

func TestDetectMode_StdoutRedirected(t *testing.T) {
	stdinOnly := func(f *os.File) bool { return f == os.Stdin }
	assert.Equal(t, ModeNonInteractive, detectMode(env(nil), stdinOnly))
}

func TestIsInteractive_ReturnsFalseInTests(t *testing.T) {
	t.Setenv(NonInteractiveEnvVar, "")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "")

	// go test never attaches a terminal to stdout
	assert.False(t, IsInteractive())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "interactive", ModeInteractive.String())
	assert.Equal(t, "non-interactive", ModeNonInteractive.String())
}
