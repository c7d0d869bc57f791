// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)

	SetLevel(LevelWarn)
	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below the level leaked through:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("messages at or above the level were dropped:\n%s", out)
	}
}

func TestLevelTags(t *testing.T) {
	buf := captureOutput(t)

	SetLevel(LevelDebug)
	Debugf("formatted %d", 42)

	out := buf.String()
	if !strings.Contains(out, "[DEBUG]") {
		t.Errorf("missing level tag:\n%s", out)
	}
	if !strings.Contains(out, "formatted 42") {
		t.Errorf("format arguments not applied:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Level
		wantOK bool
	}{
		{"Debug", "debug", LevelDebug, true},
		{"Info Uppercase", "INFO", LevelInfo, true},
		{"Warn", "warn", LevelWarn, true},
		{"Warning Alias", "warning", LevelWarn, true},
		{"Error", "error", LevelError, true},
		{"Fatal", "fatal", LevelFatal, true},
		{"Unknown Falls Back To Info", "trace", LevelInfo, false},
		{"Empty", "", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSetGetLevel(t *testing.T) {
	captureOutput(t)

	SetLevel(LevelError)
	if got := GetLevel(); got != LevelError {
		t.Errorf("GetLevel() = %v, want %v", got, LevelError)
	}
}
