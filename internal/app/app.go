package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/auth"
	"github.com/guacplayer/guacplayer/internal/config"
	"github.com/guacplayer/guacplayer/internal/connections"
	"github.com/guacplayer/guacplayer/internal/logger"
	"github.com/guacplayer/guacplayer/internal/prefs"
	"github.com/guacplayer/guacplayer/internal/recordings"
	"github.com/guacplayer/guacplayer/internal/router"
	"github.com/guacplayer/guacplayer/internal/session"
	"github.com/guacplayer/guacplayer/internal/state"
	"github.com/guacplayer/guacplayer/internal/ui"
)

// Options configure the GuacPlayer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/guacplayer/prefs.toml
	APIURL     string // overrides api_url from config and environment
	Console    bool   // mirror logs to stderr; never set while the TUI runs
}

// Navigator moves the user interface to a path. The TUI and the CLI provide
// their own.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// App holds every long-lived component. Build one with New and release it
// with Close.
type App struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Log       zerolog.Logger
	Storage   session.Backend
	Client    *api.Client

	Auth        *auth.Service
	Connections *connections.Service
	Recordings  *recordings.Service

	AuthStore        *state.AuthStore
	ConnectionsStore *state.ConnectionsStore
	RecordingStore   *state.RecordingStore

	mu  sync.RWMutex
	nav Navigator
}

// New loads configuration and wires the application. The persisted session, if
// any, is loaded into the AuthStore before New returns.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if url := strings.TrimSpace(opts.APIURL); url != "" {
		cfg.APIURL = url
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: opts.Console})

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warn().Err(err).Msg("preferences unavailable, using defaults")
	}

	storage, err := session.Open(cfg.SessionBackend, cfg.SessionPath, log.With().Str("component", "session").Logger())
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL: cfg.APIURL,
		Token:   func() string { return session.Token(storage) },
		Logger:  log.With().Str("component", "api").Logger(),
	})
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	a := &App{
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Log:       log,
		Storage:   storage,
		Client:    client,
	}

	// The auth service registers storage teardown first; the reset below runs
	// after it and sees an empty session.
	a.Auth = auth.NewService(client, storage, log)
	a.Connections = connections.NewService(client)
	a.Recordings = recordings.NewService(client, recordings.Options{Player: cfg.Player, Logger: log})

	a.AuthStore = state.NewAuthStore(a.Auth)
	a.ConnectionsStore = state.NewConnectionsStore(a.Connections)
	a.RecordingStore = state.NewRecordingStore(a.Recordings)

	client.OnUnauthorized(func(e *api.Error) {
		log.Info().Str("path", e.Path).Msg("session expired, returning to login")
		a.resetSession()
	})

	a.AuthStore.Initialize()
	log.Info().
		Str("api_url", client.BaseURL()).
		Str("session_backend", cfg.SessionBackend).
		Bool("authenticated", a.AuthStore.IsAuthenticated()).
		Msg("guacplayer started")
	return a, nil
}

// Close releases the session storage.
func (a *App) Close() error {
	if a == nil || a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}

// SetNavigator installs the navigator used when the session ends.
func (a *App) SetNavigator(nav Navigator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav = nav
}

// Guard returns a navigation guard over the AuthStore. setTitle may be nil.
func (a *App) Guard(setTitle func(string)) *router.Guard {
	return router.NewGuard(a.AuthStore, setTitle)
}

// resetSession is the single recovery path for a rejected session: drop what
// is persisted, reload the store from the now empty storage and go to login.
func (a *App) resetSession() {
	a.Auth.ClearSession()
	a.AuthStore.Initialize()
	a.navigate(router.LoginPath)
}

func (a *App) navigate(path string) {
	a.mu.RLock()
	nav := a.nav
	a.mu.RUnlock()
	if nav != nil {
		nav.Navigate(path)
	}
}

// Run boots the TUI until the user quits or the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	StartSessionWatch(ctx, a.AuthStore, a.Config.VerifyInterval, a.Log)

	err := ui.Run(ui.Options{
		Context:     ctx,
		Auth:        a.AuthStore,
		Connections: a.ConnectionsStore,
		Recording:   a.RecordingStore,
		Player:      a.Recordings,
		DownloadDir: a.Config.DownloadDir,
		ThemeName:   a.Prefs.Theme,
		PerPage:     a.Prefs.PerPage,
		PrefsPath:   a.PrefsPath,
		OnStart: func(p *tea.Program) {
			a.SetNavigator(NavigatorFunc(func(path string) {
				p.Send(ui.NavigateMsg{Path: path})
			}))
		},
	})
	a.SetNavigator(nil)
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
