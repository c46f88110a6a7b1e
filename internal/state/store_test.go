package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/auth"
	"github.com/guacplayer/guacplayer/internal/connections"
	"github.com/guacplayer/guacplayer/internal/recordings"
)

type fakeAuth struct {
	user      api.Record
	token     string
	loginErr  error
	verify    auth.VerifyResponse
	verifyErr error
	logouts   int
}

func (f *fakeAuth) Login(_ context.Context, creds auth.Credentials) (auth.LoginResponse, error) {
	if f.loginErr != nil {
		return auth.LoginResponse{}, f.loginErr
	}
	f.token = "T-" + creds.Username
	f.user = api.Record(fmt.Sprintf(`{"id":1,"username":%q}`, creds.Username))
	return auth.LoginResponse{Success: true, Token: f.token, User: f.user}, nil
}

func (f *fakeAuth) Logout(context.Context) {
	f.logouts++
	f.token = ""
	f.user = nil
}

func (f *fakeAuth) VerifyToken(context.Context) (auth.VerifyResponse, error) {
	return f.verify, f.verifyErr
}

func (f *fakeAuth) CurrentUser() api.Record { return f.user }
func (f *fakeAuth) AuthToken() string       { return f.token }

func TestAuthStore_InitializeFromStorage(t *testing.T) {
	svc := &fakeAuth{token: "persisted", user: api.Record(`{"username":"bob"}`)}
	s := NewAuthStore(svc)
	if s.IsAuthenticated() {
		t.Fatalf("IsAuthenticated before Initialize = true")
	}
	s.Initialize()
	snap := s.Snapshot()
	if !snap.IsAuthenticated() || snap.Username() != "bob" {
		t.Fatalf("snapshot = %+v, want authenticated bob", snap)
	}
}

func TestAuthStore_LoginSuccessAndFailure(t *testing.T) {
	svc := &fakeAuth{}
	s := NewAuthStore(svc)

	if _, err := s.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	snap := s.Snapshot()
	if snap.Token != "T-alice" || snap.Username() != "alice" || snap.IsLoading || snap.Error != "" {
		t.Fatalf("snapshot after login = %+v", snap)
	}

	s.Logout(context.Background())
	svc.loginErr = &api.Error{Status: http.StatusUnauthorized, Message: "Credenciais inválidas", Body: []byte(`{}`)}
	_, err := s.Login(context.Background(), "alice", "bad")
	if err == nil {
		t.Fatalf("Login returned nil error")
	}
	snap = s.Snapshot()
	if snap.Error != "Credenciais inválidas" || snap.IsAuthenticated() || snap.IsLoading {
		t.Fatalf("snapshot after failed login = %+v", snap)
	}

	svc.loginErr = errors.New("dial tcp: refused")
	_, _ = s.Login(context.Background(), "alice", "pw")
	if got := s.Snapshot().Error; got != "login failed" {
		t.Fatalf("Error = %q, want fallback", got)
	}

	s.ClearError()
	if got := s.Snapshot().Error; got != "" {
		t.Fatalf("Error after ClearError = %q", got)
	}
}

func TestAuthStore_LogoutAlwaysAnonymous(t *testing.T) {
	svc := &fakeAuth{token: "T", user: api.Record(`{"username":"a"}`)}
	s := NewAuthStore(svc)
	s.Initialize()

	s.Logout(context.Background())
	snap := s.Snapshot()
	if snap.IsAuthenticated() || snap.User != nil || snap.Error != "" {
		t.Fatalf("snapshot after logout = %+v, want anonymous", snap)
	}
	if svc.logouts != 1 {
		t.Fatalf("service logouts = %d, want 1", svc.logouts)
	}
}

func TestAuthStore_VerifyToken(t *testing.T) {
	tests := []struct {
		name     string
		resp     auth.VerifyResponse
		err      error
		want     bool
		wantAuth bool
		wantUser string
	}{
		{name: "valid refreshes user", resp: auth.VerifyResponse{Valid: true, User: api.Record(`{"username":"fresh"}`)}, want: true, wantAuth: true, wantUser: "fresh"},
		{name: "invalid keeps state", resp: auth.VerifyResponse{Valid: false}, want: false, wantAuth: true, wantUser: "old"},
		{name: "error drops session", err: errors.New("boom"), want: false, wantAuth: false, wantUser: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuth{token: "T", user: api.Record(`{"username":"old"}`), verify: tt.resp, verifyErr: tt.err}
			s := NewAuthStore(svc)
			s.Initialize()

			if got := s.VerifyToken(context.Background()); got != tt.want {
				t.Fatalf("VerifyToken = %v, want %v", got, tt.want)
			}
			snap := s.Snapshot()
			if snap.IsAuthenticated() != tt.wantAuth || snap.Username() != tt.wantUser {
				t.Fatalf("snapshot = auth %v user %q, want %v %q", snap.IsAuthenticated(), snap.Username(), tt.wantAuth, tt.wantUser)
			}
			if snap.IsLoading || snap.Error != "" {
				t.Fatalf("status = %+v, want idle without error", snap.Status)
			}
		})
	}
}

type fakeConnections struct {
	list    func(page, perPage int, search string) (connections.ListResponse, error)
	detail  connections.DetailResponse
	history connections.HistoryResponse
	err     error
}

func (f *fakeConnections) List(_ context.Context, page, perPage int, search string) (connections.ListResponse, error) {
	return f.list(page, perPage, search)
}

func (f *fakeConnections) Detail(context.Context, string) (connections.DetailResponse, error) {
	return f.detail, f.err
}

func (f *fakeConnections) History(context.Context, string, int, int) (connections.HistoryResponse, error) {
	return f.history, f.err
}

func records(n, offset int) []api.Record {
	out := make([]api.Record, n)
	for i := range out {
		out[i] = api.Record(fmt.Sprintf(`{"connection_id":%d}`, offset+i+1))
	}
	return out
}

func TestConnectionsStore_FetchReplacesPageAndPagination(t *testing.T) {
	svc := &fakeConnections{list: func(page, perPage int, search string) (connections.ListResponse, error) {
		return connections.ListResponse{
			Data:       records(perPage, (page-1)*perPage),
			Pagination: api.Pagination{Page: page, PerPage: perPage, Total: 45, TotalPages: 5},
		}, nil
	}}
	s := NewConnectionsStore(svc)

	before := time.Now()
	if _, err := s.FetchConnections(context.Background(), 2, 10, ""); err != nil {
		t.Fatalf("FetchConnections returned error: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Connections) != 10 {
		t.Fatalf("len(Connections) = %d, want 10", len(snap.Connections))
	}
	want := api.Pagination{Page: 2, PerPage: 10, Total: 45, TotalPages: 5}
	if snap.Pagination != want {
		t.Fatalf("Pagination = %+v, want %+v", snap.Pagination, want)
	}
	if !snap.HasConnections() || snap.TotalConnections() != 45 {
		t.Fatalf("HasConnections=%v TotalConnections=%d, want true 45", snap.HasConnections(), snap.TotalConnections())
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	if _, err := s.FetchConnections(context.Background(), 1, 5, "db"); err != nil {
		t.Fatalf("FetchConnections returned error: %v", err)
	}
	snap = s.Snapshot()
	if len(snap.Connections) != 5 || snap.Pagination.Page != 1 || snap.SearchQuery != "db" {
		t.Fatalf("second fetch = %d items page %d search %q, want 5/1/db", len(snap.Connections), snap.Pagination.Page, snap.SearchQuery)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Connections[0][2] = 'X'
	if s.Snapshot().Connections[0][2] == 'X' {
		t.Fatalf("Snapshot should clone records")
	}
}

func TestConnectionsStore_ErrorKeepsPreviousData(t *testing.T) {
	fail := false
	svc := &fakeConnections{list: func(page, perPage int, _ string) (connections.ListResponse, error) {
		if fail {
			return connections.ListResponse{}, &api.Error{Status: 500, Err: errors.New("boom")}
		}
		return connections.ListResponse{Data: records(3, 0), Pagination: api.Pagination{Page: 1, PerPage: 20, Total: 3, TotalPages: 1}}, nil
	}}
	s := NewConnectionsStore(svc)
	_, _ = s.FetchConnections(context.Background(), 1, 20, "")

	fail = true
	if _, err := s.FetchConnections(context.Background(), 2, 20, "x"); err == nil {
		t.Fatalf("FetchConnections returned nil error")
	}
	snap := s.Snapshot()
	if len(snap.Connections) != 3 || snap.SearchQuery != "" {
		t.Fatalf("data changed on error: %d items search %q", len(snap.Connections), snap.SearchQuery)
	}
	if snap.Error != "failed to fetch connections" || snap.IsLoading {
		t.Fatalf("status = %+v, want fallback error and not loading", snap.Status)
	}

	fail = false
	_, _ = s.FetchConnections(context.Background(), 1, 20, "")
	if got := s.Snapshot().Error; got != "" {
		t.Fatalf("Error after successful fetch = %q, want cleared", got)
	}
}

func TestConnectionsStore_DetailAndHistory(t *testing.T) {
	svc := &fakeConnections{
		list: func(int, int, string) (connections.ListResponse, error) {
			return connections.ListResponse{Pagination: api.Pagination{Page: 3, PerPage: 20, Total: 60, TotalPages: 3}}, nil
		},
		detail: connections.DetailResponse{Data: api.Record(`{"connection_id":7,"connection_name":"db"}`)},
		history: connections.HistoryResponse{
			Data:           records(2, 0),
			Pagination:     api.Pagination{Page: 1, PerPage: 20, Total: 2, TotalPages: 1},
			ConnectionName: "db",
		},
	}
	s := NewConnectionsStore(svc)
	_, _ = s.FetchConnections(context.Background(), 3, 20, "")

	if _, err := s.FetchConnectionDetail(context.Background(), "7"); err != nil {
		t.Fatalf("FetchConnectionDetail: %v", err)
	}
	if _, err := s.FetchConnectionHistory(context.Background(), "7", 1, 20); err != nil {
		t.Fatalf("FetchConnectionHistory: %v", err)
	}
	snap := s.Snapshot()
	if snap.Current.String("connection_name") != "db" || len(snap.History) != 2 || snap.HistoryConnection != "db" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Pagination.Page != 3 || snap.HistoryPagination.Total != 2 {
		t.Fatalf("list pagination %+v / history pagination %+v, want independent", snap.Pagination, snap.HistoryPagination)
	}

	s.ResetCurrentConnection()
	if s.Snapshot().Current != nil {
		t.Fatalf("Current after reset = %s, want nil", s.Snapshot().Current)
	}

	svc.err = &api.Error{Status: 404, Message: "Conexão não encontrada", Body: []byte(`{}`)}
	_, _ = s.FetchConnectionDetail(context.Background(), "999")
	if got := s.Snapshot().Error; got != "Conexão não encontrada" {
		t.Fatalf("Error = %q, want backend message", got)
	}
	s.ClearError()
	if got := s.Snapshot().Error; got != "" {
		t.Fatalf("Error after ClearError = %q", got)
	}
}

type fakeRecordings struct {
	info     recordings.InfoResponse
	files    recordings.FilesResponse
	filesErr error
}

func (f *fakeRecordings) Info(_ context.Context, uuid string) (recordings.InfoResponse, error) {
	return recordings.InfoResponse{Success: true, Data: api.Record(fmt.Sprintf(`{"uuid":%q}`, uuid))}, nil
}

func (f *fakeRecordings) Files(context.Context, string) (recordings.FilesResponse, error) {
	return f.files, f.filesErr
}

func TestRecordingStore_Load(t *testing.T) {
	svc := &fakeRecordings{files: recordings.FilesResponse{Files: records(2, 0)}}
	s := NewRecordingStore(svc)

	if err := s.Load(context.Background(), "abc"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := s.Snapshot()
	if snap.UUID != "abc" || snap.Info.String("uuid") != "abc" || len(snap.Files) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	svc.filesErr = errors.New("boom")
	if err := s.Load(context.Background(), "def"); err == nil {
		t.Fatalf("Load returned nil error")
	}
	snap = s.Snapshot()
	if snap.UUID != "def" || len(snap.Files) != 0 || snap.Error != "failed to fetch recording files" {
		t.Fatalf("snapshot after failure = %+v, want def without files", snap)
	}
}
