package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are masked.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "secret_key is masked", key: "secret_key", value: "dev-secret-value", wantMask: true},
		{name: "SECRET is masked", key: "SECRET", value: "hunter2hunter2", wantMask: true},
		{name: "flash_secret is masked by keyword", key: "flash_secret", value: "abcabcabc", wantMask: true},
		{name: "cookie is masked", key: "cookie", value: "surplus=abc123", wantMask: true},
		{name: "Set-Cookie is masked", key: "Set-Cookie", value: "surplus=abc123; Path=/", wantMask: true},
		{name: "session is masked", key: "session", value: "sess_12345", wantMask: true},
		{name: "authorization is masked", key: "authorization", value: "anything", wantMask: true},
		{name: "path is NOT masked", key: "path", value: "/devices", wantMask: false},
		{name: "serial is NOT masked", key: "serial_number", value: "SN001", wantMask: false},
		{name: "db is NOT masked", key: "db", value: "devices.db", wantMask: false},
		{name: "port is NOT masked", key: "port", value: "5000", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, true, FormatText)

			logger.Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked, but found in output: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value %q in output, but not found: %s", MaskValue, output)
				}
			} else if !strings.Contains(output, tt.value) {
				t.Errorf("expected value %q to be present in output, but not found: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitivePatterns tests value-based masking.
func TestSecureHandler_SanitizesSensitivePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		wantMask bool
	}{
		{name: "bearer token", value: "Bearer abc.def.ghi", wantMask: true},
		{name: "basic auth", value: "Basic dXNlcjpwYXNz", wantMask: true},
		{name: "securecookie value", value: "MTcyOTMzMjAwMHxEdi1CQkFFQ180SUFBUkFCRUFBQV98abcDEF123=", wantMask: true},
		{name: "plain text", value: "Laptop added successfully.", wantMask: false},
		{name: "file name", value: "surplus_backup_20261019_140309.zip", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, true, FormatText)

			logger.Info("test message", "value", tt.value)

			masked := !strings.Contains(buf.String(), tt.value)
			if masked != tt.wantMask {
				t.Errorf("value %q: expected masked=%v, output: %s", tt.value, tt.wantMask, buf.String())
			}
		})
	}
}

// TestNewLogger_Levels tests that verbose toggles debug output.
func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		level      slog.Level
		shouldShow bool
	}{
		{name: "debug shown in verbose mode", verbose: true, level: slog.LevelDebug, shouldShow: true},
		{name: "debug hidden in normal mode", verbose: false, level: slog.LevelDebug, shouldShow: false},
		{name: "info shown in normal mode", verbose: false, level: slog.LevelInfo, shouldShow: true},
		{name: "warn shown in normal mode", verbose: false, level: slog.LevelWarn, shouldShow: true},
		{name: "error shown in verbose mode", verbose: true, level: slog.LevelError, shouldShow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.verbose, FormatText)

			const msg = "test_unique_message_12345"
			logger.Log(t.Context(), tt.level, msg)

			hasMessage := strings.Contains(buf.String(), msg)
			if hasMessage != tt.shouldShow {
				t.Errorf("expected shown=%v, output: %s", tt.shouldShow, buf.String())
			}
		})
	}
}

// TestNewLogger_JSON tests JSON output with masking.
func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false, FormatJSON)

	logger.Info("configuration loaded", "secret_key", "dev-secret", "port", "5000")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["secret_key"] != MaskValue {
		t.Errorf("expected secret_key masked, got %v", entry["secret_key"])
	}
	if entry["port"] != "5000" {
		t.Errorf("expected port 5000, got %v", entry["port"])
	}
}

// TestSecureHandler_WithAttrs tests that WithAttrs masks attributes.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true, FormatText).With("secret_key", "s3cr3t-value")
	logger.Info("server starting")

	if strings.Contains(buf.String(), "s3cr3t-value") {
		t.Errorf("expected secret to be masked in WithAttrs, output: %s", buf.String())
	}
}

// TestSecureHandler_WithGroup tests masking inside groups.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true, FormatText).WithGroup("request")
	logger.Info("request", "path", "/export", "cookie", "surplus=abc")

	output := buf.String()
	if !strings.Contains(output, "/export") {
		t.Errorf("expected path to be visible, output: %s", output)
	}
	if strings.Contains(output, "surplus=abc") {
		t.Errorf("expected cookie to be masked, output: %s", output)
	}
}

// TestSecureHandler_NestedGroupAttr tests masking of attributes nested in a group value.
func TestSecureHandler_NestedGroupAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true, FormatText)
	logger.Info("config", slog.Group("server", slog.String("secret_key", "nested-secret"), slog.Int("port", 5000)))

	output := buf.String()
	if strings.Contains(output, "nested-secret") {
		t.Errorf("expected nested secret to be masked, output: %s", output)
	}
	if !strings.Contains(output, "5000") {
		t.Errorf("expected port to be visible, output: %s", output)
	}
}

// TestNewSecureHandler_NilHandler tests the nil fallback.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	h := NewSecureHandler(nil)
	if h.handler == nil {
		t.Error("expected fallback handler, got nil")
	}
}
