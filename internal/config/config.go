package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures everything GuacPlayer needs to reach the backend and keep
// its local state.
type Config struct {
	APIURL         string
	SessionBackend string
	SessionPath    string
	VerifyInterval time.Duration
	LogLevel       string
	LogFile        string
	Player         string
	DownloadDir    string
}

const (
	envPrefix = "GUACPLAYER"

	defaultConfigPath     = "~/.config/guacplayer/config.yaml"
	defaultAPIURL         = "http://localhost:5000/api"
	defaultSessionBackend = BackendFile
	defaultSessionFile    = "~/.config/guacplayer/session.toml"
	defaultSessionDB      = "~/.local/share/guacplayer/session.db"
	defaultVerifyInterval = 5 * time.Minute
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.local/state/guacplayer/guacplayer.log"
	defaultDownloadDir    = "~/Downloads"
)

// Session storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Load locates and parses the GuacPlayer config, falling back to defaults when
// the file is missing. GUACPLAYER_* environment variables override file values,
// so GUACPLAYER_API_URL replaces api_url.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("session.backend", defaultSessionBackend)
	v.SetDefault("session.path", "")
	v.SetDefault("session.verify_interval", defaultVerifyInterval)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.file", defaultLogFile)
	v.SetDefault("player", "")
	v.SetDefault("download_dir", defaultDownloadDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(resolved); err == nil {
		v.SetConfigFile(resolved)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg := Config{
		APIURL:         strings.TrimRight(strings.TrimSpace(v.GetString("api_url")), "/"),
		SessionBackend: strings.ToLower(strings.TrimSpace(v.GetString("session.backend"))),
		SessionPath:    strings.TrimSpace(v.GetString("session.path")),
		VerifyInterval: v.GetDuration("session.verify_interval"),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
		LogFile:        strings.TrimSpace(v.GetString("log.file")),
		Player:         strings.TrimSpace(v.GetString("player")),
		DownloadDir:    strings.TrimSpace(v.GetString("download_dir")),
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	switch cfg.SessionBackend {
	case BackendFile, BackendSQLite, BackendMemory:
	case "":
		cfg.SessionBackend = defaultSessionBackend
	default:
		return Config{}, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = defaultSessionPath(cfg.SessionBackend)
	}
	if cfg.SessionBackend != BackendMemory {
		cfg.SessionPath = mustExpand(cfg.SessionPath)
	}
	if cfg.VerifyInterval < 0 {
		cfg.VerifyInterval = 0
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = defaultDownloadDir
	}
	cfg.DownloadDir = mustExpand(cfg.DownloadDir)

	return cfg, nil
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

func defaultSessionPath(backend string) string {
	if backend == BackendSQLite {
		return defaultSessionDB
	}
	return defaultSessionFile
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
