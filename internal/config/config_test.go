package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GUACPLAYER_API_URL", "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.SessionBackend != BackendFile {
		t.Fatalf("SessionBackend = %q, want %q", cfg.SessionBackend, BackendFile)
	}
	wantSession, err := expandPath(defaultSessionFile)
	if err != nil {
		t.Fatalf("expandPath(defaultSessionFile) returned error: %v", err)
	}
	if cfg.SessionPath != wantSession {
		t.Fatalf("SessionPath = %q, want %q", cfg.SessionPath, wantSession)
	}
	if cfg.VerifyInterval != defaultVerifyInterval {
		t.Fatalf("VerifyInterval = %v, want %v", cfg.VerifyInterval, defaultVerifyInterval)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GUACPLAYER_API_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`
api_url: "  http://10.0.0.5:5000/api/  "
player: " mpv "
session:
  backend: SQLite
  verify_interval: 90s
log:
  level: DEBUG
download_dir: ~/videos
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:5000/api" {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, "http://10.0.0.5:5000/api")
	}
	if cfg.Player != "mpv" {
		t.Fatalf("Player = %q, want mpv", cfg.Player)
	}
	if cfg.SessionBackend != BackendSQLite {
		t.Fatalf("SessionBackend = %q, want %q", cfg.SessionBackend, BackendSQLite)
	}
	if !strings.HasSuffix(cfg.SessionPath, "session.db") {
		t.Fatalf("SessionPath = %q, want sqlite default", cfg.SessionPath)
	}
	if cfg.VerifyInterval != 90*time.Second {
		t.Fatalf("VerifyInterval = %v, want 90s", cfg.VerifyInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.DownloadDir != filepath.Join(home, "videos") {
		t.Fatalf("DownloadDir = %q, want %q", cfg.DownloadDir, filepath.Join(home, "videos"))
	}
}

func TestLoad_EnvOverridesAPIURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GUACPLAYER_API_URL", "https://guac.example.com/api")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: http://file.example.com/api\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://guac.example.com/api" {
		t.Fatalf("APIURL = %q, want env override", cfg.APIURL)
	}
}

func TestLoad_UnknownBackendFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("session:\n  backend: redis\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown session backend") {
		t.Fatalf("Load error = %v, want unknown session backend", err)
	}
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: [\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
