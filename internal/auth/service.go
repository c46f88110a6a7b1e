// Package auth talks to the backend's /auth endpoints and owns the persisted
// session.
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/session"
)

// Transport is the subset of *api.Client the service needs.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, dest any) error
	Post(ctx context.Context, path string, body, dest any) error
	OnUnauthorized(fn func(*api.Error))
}

// Credentials are sent verbatim to POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token,omitempty"`
	User    api.Record `json:"user,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// VerifyResponse is the body of GET /auth/verify.
type VerifyResponse struct {
	Valid bool       `json:"valid"`
	User  api.Record `json:"user,omitempty"`
}

const (
	fallbackLogin  = "login failed"
	fallbackVerify = "invalid token"
)

// ErrMissingCredentials is returned by Login before any request is made.
var ErrMissingCredentials = errors.New("username and password are required")

// Service performs authentication calls and keeps the session storage in sync
// with their outcome.
type Service struct {
	client  Transport
	storage session.Storage
	log     zerolog.Logger
}

// NewService builds the service and registers ClearSession as a handler for
// every 401 the client sees.
func NewService(client Transport, storage session.Storage, log zerolog.Logger) *Service {
	s := &Service{client: client, storage: storage, log: log.With().Str("component", "auth").Logger()}
	client.OnUnauthorized(func(*api.Error) { s.ClearSession() })
	return s
}

// Login posts the credentials. When the backend reports success the token and
// user are persisted before Login returns.
func (s *Service) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return LoginResponse{}, ErrMissingCredentials
	}

	var resp LoginResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return LoginResponse{}, api.WithFallback(err, fallbackLogin)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = fallbackLogin
		}
		return resp, &api.Error{Method: http.MethodPost, Path: "/auth/login", Message: msg}
	}

	if err := s.storage.Set(session.KeyToken, resp.Token); err != nil {
		return resp, err
	}
	user := "null"
	if !resp.User.IsZero() {
		user = string(resp.User)
	}
	if err := s.storage.Set(session.KeyUser, user); err != nil {
		return resp, err
	}
	s.log.Info().Str("user", resp.User.String("username")).Msg("logged in")
	return resp, nil
}

// Logout notifies the backend and clears the local session. Backend failures
// are logged and never returned; the session is cleared on every path.
func (s *Service) Logout(ctx context.Context) {
	defer s.ClearSession()
	if err := s.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.log.Warn().Err(err).Msg("logout request failed")
	}
}

// VerifyToken asks the backend whether the stored token is still accepted.
// It never touches storage; a 401 is handled by the client handlers.
func (s *Service) VerifyToken(ctx context.Context) (VerifyResponse, error) {
	var resp VerifyResponse
	if err := s.client.Get(ctx, "/auth/verify", nil, &resp); err != nil {
		return VerifyResponse{}, api.WithFallback(err, fallbackVerify)
	}
	return resp, nil
}

// CurrentUser returns the persisted user record, or nil.
func (s *Service) CurrentUser() api.Record {
	raw := session.User(s.storage)
	if raw == nil {
		return nil
	}
	return api.Record(raw)
}

// AuthToken returns the persisted token, or "".
func (s *Service) AuthToken() string {
	return session.Token(s.storage)
}

// IsAuthenticated reports whether a token is persisted. It does not contact
// the backend.
func (s *Service) IsAuthenticated() bool {
	return s.AuthToken() != ""
}

// ClearSession removes the persisted token and user.
func (s *Service) ClearSession() {
	if err := session.Clear(s.storage); err != nil {
		s.log.Error().Err(err).Msg("clear session")
	}
}
