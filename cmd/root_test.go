package cmd

import (
	"log/slog"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		flag string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			logLevel = tt.flag
			logger := newLogger()
			if !logger.Enabled(t.Context(), tt.want) {
				t.Errorf("logger with --log-level=%s should enable %v", tt.flag, tt.want)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(t.Context(), tt.want-4) {
				t.Errorf("logger with --log-level=%s should filter below %v", tt.flag, tt.want)
			}
		})
	}
	logLevel = "info"
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve": false, "migrate": false, "idea": false,
		"match": false, "embed-templates": false, "version": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
