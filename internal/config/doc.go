// Package config loads GuacPlayer's client configuration.
//
// # Overview
//
// GuacPlayer needs very little configuration: the backend base URL, where to
// keep the persisted session, where to log, and how to hand videos to a
// player. Everything has a default so the client works without a config file.
//
// # Resolution
//
// Load reads values in this order, later sources winning:
//
//  1. Built-in defaults
//  2. The config file (default ~/.config/guacplayer/config.yaml; YAML or TOML
//     by extension). A missing file is not an error.
//  3. GUACPLAYER_* environment variables. Nested keys use underscores, so
//     session.backend is GUACPLAYER_SESSION_BACKEND and api_url is
//     GUACPLAYER_API_URL.
//
// Command line flags are applied by the caller after Load returns.
//
// # Default Values
//
//   - api_url: http://localhost:5000/api
//   - session.backend: file (one of file, sqlite, memory)
//   - session.path: ~/.config/guacplayer/session.toml (file) or
//     ~/.local/share/guacplayer/session.db (sqlite)
//   - session.verify_interval: 5m (0 disables the idle session watch)
//   - log.level: info
//   - log.file: ~/.local/state/guacplayer/guacplayer.log
//   - download_dir: ~/Downloads
//   - player: empty, meaning the system URL opener
//
// # Example
//
//	api_url: https://guac.example.com/api
//	player: mpv
//	session:
//	  backend: sqlite
//	log:
//	  level: debug
//
// Tilde expansion is applied to every path.
package config
