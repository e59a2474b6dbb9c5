package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		debugSeen bool
		warnSeen  bool
		json      bool
	}{
		{"default text", "", "", false, true, false},
		{"debug", "debug", "text", true, true, false},
		{"error only", "error", "text", false, false, false},
		{"json", "WARN", "json", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level, tt.format)

			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debugSeen {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugSeen)
			}
			if got := logger.Enabled(context.Background(), slog.LevelWarn); got != tt.warnSeen {
				t.Errorf("warn enabled = %v, want %v", got, tt.warnSeen)
			}

			logger.Error("pool settled", "pool_id", "p1")
			line := strings.TrimSpace(buf.String())
			var decoded map[string]any
			isJSON := json.Unmarshal([]byte(line), &decoded) == nil
			if isJSON != tt.json {
				t.Errorf("json output = %v, want %v: %s", isJSON, tt.json, line)
			}
		})
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAIMS_SECRET", "test-secret")
	t.Setenv("CONFIG_FILE", "")

	cmd := migrateCmd()
	cmd.SetArgs([]string{"-d", dir + "/migrate.db", "-t", "sqlite"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
}
