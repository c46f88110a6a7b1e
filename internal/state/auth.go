package state

import (
	"context"
	"sync"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/auth"
)

// AuthService is what AuthStore needs from *auth.Service.
type AuthService interface {
	Login(ctx context.Context, creds auth.Credentials) (auth.LoginResponse, error)
	Logout(ctx context.Context)
	VerifyToken(ctx context.Context) (auth.VerifyResponse, error)
	CurrentUser() api.Record
	AuthToken() string
}

// AuthSnapshot is a copy of the session state at a point in time.
type AuthSnapshot struct {
	Status
	User  api.Record
	Token string
}

// IsAuthenticated reports whether the snapshot holds a token.
func (s AuthSnapshot) IsAuthenticated() bool {
	return s.Token != ""
}

// Username reads the username from the user record.
func (s AuthSnapshot) Username() string {
	return s.User.First("username", "name", "email")
}

// AuthStore is the in-memory session shared by the UI, the router guard and
// the CLI. It mirrors what the auth service persists.
type AuthStore struct {
	svc AuthService

	mu    sync.RWMutex
	user  api.Record
	token string
	st    Status
}

func NewAuthStore(svc AuthService) *AuthStore {
	return &AuthStore{svc: svc}
}

// Initialize loads the persisted session. It is also the reset path after the
// backend rejects the session.
func (s *AuthStore) Initialize() {
	user := s.svc.CurrentUser()
	token := s.svc.AuthToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
}

// Login authenticates and, on success, moves the store to the authenticated
// state. Failures leave a message in Error and are returned.
func (s *AuthStore) Login(ctx context.Context, username, password string) (auth.LoginResponse, error) {
	s.mu.Lock()
	s.st.begin()
	s.mu.Unlock()

	resp, err := s.svc.Login(ctx, auth.Credentials{Username: username, Password: password})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.finish(err, "login failed")
	if err != nil {
		return resp, err
	}
	s.user = resp.User.Clone()
	s.token = resp.Token
	return resp, nil
}

// Logout always ends anonymous; backend failures are only logged by the
// service.
func (s *AuthStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.st.begin()
	s.mu.Unlock()

	s.svc.Logout(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.st.finish(nil, "")
}

// VerifyToken asks the backend to confirm the session. A valid answer
// refreshes the user; an invalid one changes nothing; an error drops the
// in-memory session.
func (s *AuthStore) VerifyToken(ctx context.Context) bool {
	s.mu.Lock()
	s.st.begin()
	s.mu.Unlock()

	resp, err := s.svc.VerifyToken(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.IsLoading = false
	if err != nil {
		s.user = nil
		s.token = ""
		return false
	}
	if !resp.Valid {
		return false
	}
	s.user = resp.User.Clone()
	return true
}

// ClearError drops the last error message.
func (s *AuthStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Error = ""
}

// IsAuthenticated reports whether the store holds a token.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Snapshot returns a copy of the current state.
func (s *AuthStore) Snapshot() AuthSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AuthSnapshot{Status: s.st, User: s.user.Clone(), Token: s.token}
}
