package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/surplus/internal/config"
	"github.com/nao1215/surplus/internal/database"
	"github.com/nao1215/surplus/internal/model"
)

// isolateEnv blanks every variable the configuration loader reads.
// Tests calling it use t.Setenv and therefore cannot run in parallel.
func isolateEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		config.EnvPort,
		config.EnvSecretKey,
		config.EnvLegacySecretKey,
		config.EnvDBPath,
		config.EnvAppRoot,
		config.EnvBackupDir,
		config.EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
}

// writeConfig writes an explicit config file so no user file is picked up.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ".surplus")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// seedDatabase stores devices in a new database at path.
func seedDatabase(t *testing.T, path string, devices ...[3]string) {
	t.Helper()

	db, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	for i, d := range devices {
		device, err := model.NewDevice(d[0], d[1], d[2], now.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("invalid device: %v", err)
		}
		if _, err := db.Insert(context.Background(), device); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestBuildConfig tests flag precedence over file and environment.
func TestBuildConfig(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "server:\n  port: 8080\n  host: 127.0.0.1\nstorage:\n  db_path: file.db\n")

	t.Run("file values", func(t *testing.T) {
		cmd := NewServeCmd()
		if err := cmd.ParseFlags([]string{"--config", cfgPath}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 8080 || cfg.Host != "127.0.0.1" || cfg.DBPath != "file.db" {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv(config.EnvPort, "8081")

		cmd := NewServeCmd()
		if err := cmd.ParseFlags([]string{"--config", cfgPath}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 8081 {
			t.Errorf("expected port 8081, got %d", cfg.Port)
		}
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv(config.EnvPort, "8081")
		t.Setenv(config.EnvDBPath, "env.db")

		cmd := NewServeCmd()
		if err := cmd.ParseFlags([]string{"--config", cfgPath, "-p", "9090", "--db", "flag.db"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 9090 || cfg.DBPath != "flag.db" {
			t.Errorf("expected flag values, got port=%d db=%q", cfg.Port, cfg.DBPath)
		}
	})

	t.Run("invalid flag value fails validation", func(t *testing.T) {
		cmd := NewServeCmd()
		if err := cmd.ParseFlags([]string{"--config", cfgPath, "--log-format", "xml"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		if _, err := buildConfig(cmd); !errors.Is(err, config.ErrInvalidLogFormat) {
			t.Errorf("expected ErrInvalidLogFormat, got %v", err)
		}
	})

	t.Run("missing explicit config", func(t *testing.T) {
		cmd := NewServeCmd()
		if err := cmd.ParseFlags([]string{"--config", filepath.Join(dir, "missing.yaml")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		if _, err := buildConfig(cmd); !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestExportCmd tests CSV and Markdown export from the command line.
func TestExportCmd(t *testing.T) {
	isolateEnv(t)

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "log:\n  format: text\n")
	dbPath := filepath.Join(root, "devices.db")
	seedDatabase(t, dbPath,
		[3]string{"SN001", "TAG01", ""},
		[3]string{"SN002", "TAG02", "Laptop"},
	)

	base := []string{"export", "--config", cfgPath, "--root", root, "--db", dbPath}

	t.Run("csv to stdout", func(t *testing.T) {
		stdout, _, err := execute(t, base...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "ID,Serial Number,Tag Number,Device Type,Created At (UTC)\r\n" +
			"1,SN001,TAG01,Unknown,2026-10-19T09:00:00\r\n" +
			"2,SN002,TAG02,Laptop,2026-10-19T09:01:00\r\n"
		if stdout != want {
			t.Errorf("unexpected export:\n got: %q\nwant: %q", stdout, want)
		}
	})

	t.Run("query filters rows", func(t *testing.T) {
		stdout, _, err := execute(t, append(base, "-q", "Laptop")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(stdout, "SN001") || !strings.Contains(stdout, "SN002") {
			t.Errorf("unexpected filtered export %q", stdout)
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "reports", "devices.md")
		_, stderr, err := execute(t, append(base, "--format", "markdown", "-o", out)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stderr, "Exported") {
			t.Errorf("expected confirmation on stderr, got %q", stderr)
		}
		content, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if !strings.Contains(string(content), "# Surplus Devices") {
			t.Errorf("unexpected markdown %q", content)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, _, err := execute(t, append(base, "--format", "xlsx")...); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

// TestBackupCmd tests archive creation from the command line.
func TestBackupCmd(t *testing.T) {
	isolateEnv(t)

	root := t.TempDir()
	cfgPath := writeConfig(t, root, "backup:\n  exclude_dirs: [backups, secret]\n")
	for rel, content := range map[string]string{
		"app.go":         "package app",
		"secret/key.pem": "key",
		"docs/readme.md": "# docs",
	} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}

	seedDatabase(t, filepath.Join(root, "devices.db"), [3]string{"SN001", "TAG01", "Laptop"})

	stdout, _, err := execute(t, "backup", "--config", cfgPath, "--root", root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Created") || !strings.Contains(stdout, "surplus_backup_") {
		t.Errorf("unexpected output %q", stdout)
	}

	matches, err := filepath.Glob(filepath.Join(root, "backups", "surplus_backup_*.zip"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one archive, got %v (%v)", matches, err)
	}

	zr, err := zip.OpenReader(matches[0])
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["app.go"] || !names["docs/readme.md"] || !names[".surplus"] || !names["devices.db"] {
		t.Errorf("missing expected members: %v", names)
	}
	if names["secret/key.pem"] {
		t.Error("configured exclusion was not applied")
	}
}
