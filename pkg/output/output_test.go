package output

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := SetWriter(&buf)
	defer SetWriter(prev)
	f()
	return buf.String()
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name  string
		print func(string)
		mark  string
	}{
		{"success", Success, "🪶"},
		{"error", Error, "❌"},
		{"warn", Warn, "⚠️"},
		{"info", Info, "ℹ️"},
		{"step", Step, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capture(t, func() { tt.print("hello there") })
			if !strings.Contains(got, tt.mark) {
				t.Errorf("expected %q marker in %q", tt.mark, got)
			}
			if !strings.Contains(got, "hello there") {
				t.Errorf("expected message in %q", got)
			}
		})
	}
}

func TestVerbose(t *testing.T) {
	if got := capture(t, func() { Verbose("debug detail") }); got != "" {
		t.Errorf("verbose output should be empty when disabled, got %q", got)
	}

	SetVerbose(true)
	defer SetVerbose(false)

	got := capture(t, func() { Verbose("debug detail") })
	if !strings.Contains(got, "debug detail") {
		t.Errorf("expected verbose message, got %q", got)
	}
}

func TestColorize(t *testing.T) {
	if got := Colorize("purple", "x"); got != "x" {
		t.Errorf("unknown color should pass text through, got %q", got)
	}
	if got := Colorize("red", "hot"); !strings.Contains(got, "hot") {
		t.Errorf("colorized text lost its content: %q", got)
	}
}
