// Package apitest runs an in-process fake of the GuacPlayer REST backend for
// tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Credentials accepted by the fake login endpoint.
const (
	Username = "alice"
	Password = "s3cret"
	Token    = "test-token"
)

// User is the record returned for the fake account.
const User = `{"id":1,"username":"alice","email":"alice@example.com"}`

// Request is one call observed by the server.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          string
}

// Server is the fake backend. Its zero configuration serves 45 connections,
// a few history rows per connection and one recording per history row.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	failures map[string]int
	token    string
	video    []byte

	Connections int
}

// New starts a fake backend and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		failures:    make(map[string]int),
		token:       Token,
		video:       []byte("fake-mp4-payload"),
		Connections: 45,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root, equivalent to http://host/api.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Fail makes every later request to the named route answer with status.
// Route names are the mux route names registered in routes.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// Expire invalidates the current token so that authenticated routes answer 401.
func (s *Server) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Requests returns a copy of every request observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the most recent request whose path starts with prefix.
func (s *Server) Last(prefix string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.requests[i].Path, prefix) {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	r.Use(s.failInjected)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost).Name("login")
	api.HandleFunc("/auth/logout", s.authed(s.logout)).Methods(http.MethodPost).Name("logout")
	api.HandleFunc("/auth/verify", s.verify).Methods(http.MethodGet).Name("verify")
	api.HandleFunc("/connections", s.authed(s.listConnections)).Methods(http.MethodGet).Name("connections")
	api.HandleFunc("/connections/{id:[0-9]+}", s.authed(s.connection)).Methods(http.MethodGet).Name("connection")
	api.HandleFunc("/connections/{id:[0-9]+}/history", s.authed(s.history)).Methods(http.MethodGet).Name("history")
	api.HandleFunc("/recordings/{uuid}", s.authed(s.recording)).Methods(http.MethodGet).Name("recording")
	api.HandleFunc("/recordings/{uuid}/files", s.authed(s.files)).Methods(http.MethodGet).Name("files")
	api.HandleFunc("/recordings/{uuid}/stream", s.queryAuthed(s.stream)).Methods(http.MethodGet).Name("stream")
	api.HandleFunc("/recordings/{uuid}/download", s.queryAuthed(s.download)).Methods(http.MethodGet).Name("download")
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failInjected(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route != nil {
			s.mu.Lock()
			status, ok := s.failures[route.GetName()]
			s.mu.Unlock()
			if ok {
				writeJSON(w, status, map[string]any{"error": fmt.Sprintf("injected %s failure", route.GetName())})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token != s.currentToken() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Token inválido ou expirado"})
			return
		}
		h(w, r)
	}
}

func (s *Server) queryAuthed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" || token != s.currentToken() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Token inválido ou expirado"})
			return
		}
		h(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Dados inválidos"})
		return
	}
	if creds.Username != Username || creds.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Credenciais inválidas"})
		return
	}
	s.mu.Lock()
	s.token = Token
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   Token,
		"user":    json.RawMessage(User),
	})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logout realizado com sucesso"})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token != s.currentToken() {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "error": "Token inválido ou expirado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": json.RawMessage(User)})
}

func (s *Server) listConnections(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r.URL.Query())
	search := strings.ToLower(r.URL.Query().Get("search"))

	var matched []map[string]any
	for id := 1; id <= s.Connections; id++ {
		c := connection(id)
		if search != "" && !strings.Contains(strings.ToLower(c["connection_name"].(string)), search) {
			continue
		}
		matched = append(matched, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       window(matched, page, perPage),
		"pagination": pagination(page, perPage, len(matched)),
	})
}

func (s *Server) connection(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if id < 1 || id > s.Connections {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Conexão não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": connection(id)})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if id < 1 || id > s.Connections {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Conexão não encontrada"})
		return
	}
	page, perPage := pageParams(r.URL.Query())
	rows := make([]map[string]any, 0, 3)
	for n := 1; n <= 3; n++ {
		hid := id*100 + n
		rows = append(rows, map[string]any{
			"history_id":    hid,
			"history_uuid":  RecordingUUID(hid),
			"connection_id": id,
			"username":      Username,
			"start_date":    "2024-05-01T10:00:00",
			"end_date":      "2024-05-01T10:30:00",
			"remote_host":   "10.0.0.9",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":            window(rows, page, perPage),
		"pagination":      pagination(page, perPage, len(rows)),
		"connection_id":   id,
		"connection_name": fmt.Sprintf("server-%02d", id),
	})
}

func (s *Server) recording(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	if id == "missing" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Gravação não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"uuid":       id,
			"path":       "/recordings/" + id,
			"video_file": "/recordings/" + id + "/recording.mp4",
			"size_bytes": len(s.video),
			"created_at": "2024-05-01T10:31:00",
			"files":      []string{"recording.guac", "recording.mp4"},
		},
	})
}

func (s *Server) files(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"uuid":    id,
		"files": []map[string]any{
			{"name": "recording.guac", "path": "/recordings/" + id + "/recording.guac", "size": 2048, "modified": "2024-05-01T10:30:00"},
			{"name": "recording.mp4", "path": "/recordings/" + id + "/recording.mp4", "size": len(s.video), "modified": "2024-05-01T10:31:00"},
		},
	})
}

func (s *Server) stream(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "video/mp4")
	_, _ = w.Write(s.video)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="recording_%s.mp4"`, mux.Vars(r)["uuid"]))
	_, _ = w.Write(s.video)
}

// Video returns the bytes served by the stream and download endpoints.
func (s *Server) Video() []byte {
	return append([]byte(nil), s.video...)
}

// RecordingUUID is the recording identifier attached to a history row.
func RecordingUUID(historyID int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", historyID)
}

func connection(id int) map[string]any {
	return map[string]any{
		"connection_id":   id,
		"connection_name": fmt.Sprintf("server-%02d", id),
		"protocol":        "rdp",
		"parent_id":       nil,
		"max_connections": 2,
		"proxy_hostname":  "guacd",
		"proxy_port":      4822,
	}
}

func pageParams(q url.Values) (int, int) {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = 20
	}
	return page, perPage
}

func pagination(page, perPage, total int) map[string]any {
	return map[string]any{
		"page":        page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": (total + perPage - 1) / perPage,
	}
}

func window[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
