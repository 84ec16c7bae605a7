package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		level         Level
		logFunc       func(Logger, string)
		expectedInLog bool
	}{
		{
			name:          "debug message when level is debug",
			level:         LevelDebug,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: true,
		},
		{
			name:          "debug message when level is info",
			level:         LevelInfo,
			logFunc:       func(l Logger, msg string) { l.Debug(msg) },
			expectedInLog: false,
		},
		{
			name:          "warn message when level is warn",
			level:         LevelWarn,
			logFunc:       func(l Logger, msg string) { l.Warn(msg) },
			expectedInLog: true,
		},
		{
			name:          "info message when level is warn",
			level:         LevelWarn,
			logFunc:       func(l Logger, msg string) { l.Info(msg) },
			expectedInLog: false,
		},
		{
			name:          "error message when level is error",
			level:         LevelError,
			logFunc:       func(l Logger, msg string) { l.Error(msg) },
			expectedInLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewLogger(tt.level, buf)

			tt.logFunc(l, "test message")

			assert.Equal(t, tt.expectedInLog, strings.Contains(buf.String(), "test message"),
				"output: %s", buf.String())
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(LevelInfo, buf)

	l.Info("engine finished", F("exit", 1), F("kind", "git"))

	out := buf.String()
	assert.Contains(t, out, "[INFO] engine finished |")
	assert.Contains(t, out, "exit=1")
	assert.Contains(t, out, "kind=git")
}

func TestLogger_WithFieldsSharesLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewLogger(LevelInfo, buf)
	child := parent.WithFields(F("run", "abc"))

	child.Info("started", F("root", "/proj"))
	assert.Contains(t, buf.String(), "run=abc root=/proj")

	// Raising the parent's level silences the child as well.
	parent.SetLevel(LevelError)
	buf.Reset()
	child.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestLogger_SilentMode(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(LevelSilent, buf)

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warning ", LevelWarn},
		{"error", LevelError},
		{"off", LevelSilent},
		{"chatty", LevelWarn},
		{"", LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "SILENT", LevelSilent.String())
	assert.Equal(t, "UNKNOWN", Level(999).String())
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	silent := NewSilentLogger()
	SetDefault(silent)
	assert.Same(t, silent, Default())
}
