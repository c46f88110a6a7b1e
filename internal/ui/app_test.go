package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/auth"
	"github.com/guacplayer/guacplayer/internal/connections"
	"github.com/guacplayer/guacplayer/internal/prefs"
	"github.com/guacplayer/guacplayer/internal/recordings"
	"github.com/guacplayer/guacplayer/internal/router"
	"github.com/guacplayer/guacplayer/internal/state"
)

type fakeAuth struct {
	token string
}

func (f *fakeAuth) Login(_ context.Context, c auth.Credentials) (auth.LoginResponse, error) {
	if c.Password != "pw" {
		return auth.LoginResponse{}, &api.Error{Status: 401, Message: "Credenciais inválidas", Body: []byte(`{}`)}
	}
	f.token = "T"
	return auth.LoginResponse{Success: true, Token: "T", User: api.Record(`{"username":"alice"}`)}, nil
}

func (f *fakeAuth) Logout(context.Context) { f.token = "" }

func (f *fakeAuth) VerifyToken(context.Context) (auth.VerifyResponse, error) {
	if f.token == "" {
		return auth.VerifyResponse{}, &api.Error{Status: 401}
	}
	return auth.VerifyResponse{Valid: true, User: api.Record(`{"username":"alice"}`)}, nil
}

func (f *fakeAuth) CurrentUser() api.Record {
	if f.token == "" {
		return nil
	}
	return api.Record(`{"username":"alice"}`)
}

func (f *fakeAuth) AuthToken() string { return f.token }

type fakeConnections struct {
	pages []int
}

func (f *fakeConnections) List(_ context.Context, page, perPage int, search string) (connections.ListResponse, error) {
	f.pages = append(f.pages, page)
	data := make([]api.Record, 0, perPage)
	for i := 1; i <= perPage; i++ {
		id := (page-1)*perPage + i
		data = append(data, api.Record(fmt.Sprintf(`{"connection_id":%d,"connection_name":"server-%02d","protocol":"rdp"}`, id, id)))
	}
	return connections.ListResponse{Data: data, Pagination: api.Pagination{Page: page, PerPage: perPage, Total: 45, TotalPages: 5}}, nil
}

func (f *fakeConnections) Detail(_ context.Context, id string) (connections.DetailResponse, error) {
	return connections.DetailResponse{Data: api.Record(fmt.Sprintf(`{"connection_id":%s,"connection_name":"server-%s","protocol":"ssh"}`, id, id))}, nil
}

func (f *fakeConnections) History(_ context.Context, id string, page, perPage int) (connections.HistoryResponse, error) {
	return connections.HistoryResponse{
		Data:           []api.Record{api.Record(`{"history_id":701,"history_uuid":"rec-701","start_date":"2024-05-01T10:00:00"}`)},
		Pagination:     api.Pagination{Page: 1, PerPage: perPage, Total: 1, TotalPages: 1},
		ConnectionName: "server-" + id,
	}, nil
}

type fakeRecordings struct{}

func (fakeRecordings) Info(_ context.Context, uuid string) (recordings.InfoResponse, error) {
	return recordings.InfoResponse{Data: api.Record(fmt.Sprintf(`{"uuid":%q,"size_bytes":2048}`, uuid))}, nil
}

func (fakeRecordings) Files(context.Context, string) (recordings.FilesResponse, error) {
	return recordings.FilesResponse{Files: []api.Record{api.Record(`{"name":"recording.mp4","size":2048}`)}}, nil
}

type fakePlayer struct {
	played []string
}

func (p *fakePlayer) StreamURL(uuid string) string { return "http://backend/api/recordings/" + uuid + "/stream?token=T" }

func (p *fakePlayer) Play(uuid string) (string, error) {
	p.played = append(p.played, uuid)
	return p.StreamURL(uuid), nil
}

func (p *fakePlayer) Download(_ context.Context, uuid, dir string) (recordings.Downloaded, error) {
	return recordings.Downloaded{Path: filepath.Join(dir, recordings.FileName(uuid)), Bytes: 16}, nil
}

type harness struct {
	auth   *fakeAuth
	conns  *fakeConnections
	player *fakePlayer
	model  Model
}

func newHarness(t *testing.T, token string) *harness {
	t.Helper()
	h := &harness{auth: &fakeAuth{token: token}, conns: &fakeConnections{}, player: &fakePlayer{}}
	authStore := state.NewAuthStore(h.auth)
	authStore.Initialize()
	h.model = New(Options{
		Auth:        authStore,
		Connections: state.NewConnectionsStore(h.conns),
		Recording:   state.NewRecordingStore(fakeRecordings{}),
		Player:      h.player,
		PerPage:     10,
		PrefsPath:   filepath.Join(t.TempDir(), "prefs.toml"),
		DownloadDir: t.TempDir(),
	})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send feeds msg to the model and runs the resulting command chain.
func (h *harness) send(msg tea.Msg) {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	switch msg := execCmd(cmd).(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	case routedMsg, loginMsg, logoutMsg, connectionsMsg, historyMsg, recordingMsg, playMsg, downloadMsg:
		h.send(msg)
	}
}

// execCmd runs cmd, giving up on commands that wait for timers such as the
// cursor blink.
func execCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (h *harness) key(s string) {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	h.send(msg)
}

func TestStartup_AnonymousLandsOnLogin(t *testing.T) {
	h := newHarness(t, "")
	h.run(h.model.navigateCmd("/"))

	if h.model.route.Name != router.Login {
		t.Fatalf("route = %q, want login", h.model.route.Name)
	}
	if h.model.title != "Login - GuacPlayer" {
		t.Fatalf("title = %q", h.model.title)
	}
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t, "")
	h.run(h.model.navigateCmd(router.LoginPath))

	h.model.login.username.SetValue("alice")
	h.model.login.password.SetValue("wrong")
	h.model.login.focused = 1
	h.key("enter")
	if h.model.route.Name != router.Login {
		t.Fatalf("route after bad login = %q, want login", h.model.route.Name)
	}
	if !strings.Contains(h.model.View(), "Credenciais inválidas") {
		t.Fatalf("login view does not show the backend error")
	}

	h.model.login.password.SetValue("pw")
	h.key("enter")
	if h.model.route.Name != router.Dashboard {
		t.Fatalf("route after login = %q, want dashboard", h.model.route.Name)
	}
	if !strings.Contains(h.model.View(), "45") {
		t.Fatalf("dashboard view does not show the connection total")
	}
}

func TestConnections_PagingAndHistory(t *testing.T) {
	h := newHarness(t, "T")
	h.run(h.model.navigateCmd("/connections?page=2"))

	if h.model.route.Name != router.Connections {
		t.Fatalf("route = %q, want connections", h.model.route.Name)
	}
	if got := h.conns.pages; len(got) != 1 || got[0] != 2 {
		t.Fatalf("pages fetched = %v, want [2]", got)
	}

	h.key("n")
	if got := h.conns.pages[len(h.conns.pages)-1]; got != 3 {
		t.Fatalf("page after n = %d, want 3", got)
	}
	h.key("p")
	if got := h.conns.pages[len(h.conns.pages)-1]; got != 2 {
		t.Fatalf("page after p = %d, want 2", got)
	}

	h.key("enter")
	if !h.model.connsView.onHistory {
		t.Fatalf("history not focused after opening a connection")
	}
	if !strings.Contains(h.model.View(), "History of server-11") {
		t.Fatalf("view missing history header:\n%s", h.model.View())
	}

	h.key("enter")
	if h.model.route.Name != router.Recording || h.model.route.Param("uuid") != "rec-701" {
		t.Fatalf("route = %+v, want recording rec-701", h.model.route)
	}
}

func TestRecording_PlayAndDownload(t *testing.T) {
	h := newHarness(t, "T")
	h.run(h.model.navigateCmd(router.RecordingPath("rec-701")))

	if !strings.Contains(h.model.View(), "recording.mp4") {
		t.Fatalf("recording view missing files")
	}
	h.key("p")
	if len(h.player.played) != 1 || h.player.played[0] != "rec-701" {
		t.Fatalf("played = %v, want [rec-701]", h.player.played)
	}
	h.key("d")
	if !strings.Contains(h.model.notice, "recording_rec-701.mp4") {
		t.Fatalf("notice = %q, want saved path", h.model.notice)
	}
	h.key("u")
	if !strings.Contains(h.model.View(), "stream?token=T") {
		t.Fatalf("stream URL not shown")
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	h := newHarness(t, "T")
	h.run(h.model.navigateCmd(router.DashboardPath))
	h.key("L")
	if h.model.route.Name != router.Login {
		t.Fatalf("route after logout = %q, want login", h.model.route.Name)
	}
	if h.auth.token != "" {
		t.Fatalf("service still holds a token after logout")
	}
}

func TestNavigateMsgFromOutside(t *testing.T) {
	h := newHarness(t, "T")
	h.run(h.model.navigateCmd(router.DashboardPath))
	h.auth.token = ""
	h.model.auth.Initialize()

	h.send(NavigateMsg{Path: router.LoginPath})
	if h.model.route.Name != router.Login {
		t.Fatalf("route = %q, want login", h.model.route.Name)
	}
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	h := newHarness(t, "T")
	h.run(h.model.navigateCmd(router.DashboardPath))
	h.key("T")
	if h.model.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", h.model.theme.Name)
	}
	saved, err := prefs.Load(h.model.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" || saved.PerPage != 10 {
		t.Fatalf("saved prefs = %+v, want Kanagawa/10", saved)
	}
}
