package session

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Keys under which the session is persisted.
const (
	KeyToken = "auth_token"
	KeyUser  = "user"
)

// Storage is the persistence port for the client session. Each call is atomic
// on its own; callers get no multi-key transactions.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Backend is a Storage that holds resources until closed.
type Backend interface {
	Storage
	io.Closer
}

// Open builds the storage backend named by kind. log receives backend read
// failures.
func Open(kind, path string, log zerolog.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "memory":
		return NewMemory(), nil
	case "file", "":
		return OpenFile(path)
	case "sqlite":
		return OpenSQLite(path, log)
	default:
		return nil, fmt.Errorf("unknown session backend %q", kind)
	}
}

// Token returns the persisted bearer token, or "" when none is stored.
func Token(s Storage) string {
	if s == nil {
		return ""
	}
	token, _ := s.Get(KeyToken)
	return token
}

// User returns the persisted user record, or nil when none is stored or the
// stored value is not valid JSON.
func User(s Storage) json.RawMessage {
	if s == nil {
		return nil
	}
	raw, ok := s.Get(KeyUser)
	if !ok || raw == "" || raw == "null" || !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

// Clear removes both session keys. Both removals are attempted even when the
// first fails.
func Clear(s Storage) error {
	if s == nil {
		return nil
	}
	errToken := s.Remove(KeyToken)
	errUser := s.Remove(KeyUser)
	if errToken != nil {
		return errToken
	}
	return errUser
}

// Memory keeps the session in process memory only.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error { return nil }
