package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guacplayer/guacplayer/internal/apitest"
)

type testEnv struct {
	t      *testing.T
	srv    *apitest.Server
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := apitest.New(t)
	dir := t.TempDir()
	cfg := fmt.Sprintf(`api_url: %s
session:
  backend: file
  path: %s
  verify_interval: 0s
log:
  level: debug
  file: %s
download_dir: %s
`, srv.BaseURL(), filepath.Join(dir, "session.toml"), filepath.Join(dir, "guacplayer.log"), filepath.Join(dir, "downloads"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &testEnv{t: t, srv: srv, dir: dir, config: path}
}

// run executes one guacplayer invocation, as a separate process would.
func (e *testEnv) run(stdin string, args ...string) (string, string, int) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.config, "--prefs", filepath.Join(e.dir, "prefs.toml")}, args...)
	code := Run(context.Background(), "test", full, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (e *testEnv) login() {
	e.t.Helper()
	if _, stderr, code := e.run("", "login", "-u", apitest.Username, "-p", apitest.Password); code != 0 {
		e.t.Fatalf("login exit = %d, stderr %q", code, stderr)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	e := newTestEnv(t)

	_, stderr, code := e.run("", "connections", "list")
	if code != 1 || !strings.Contains(stderr, "not logged in") || !strings.Contains(stderr, "guacplayer login") {
		t.Fatalf("anonymous list = %d %q, want not logged in with hint", code, stderr)
	}

	stdout, stderr, code := e.run(apitest.Username+"\n"+apitest.Password+"\n", "login")
	if code != 0 {
		t.Fatalf("login exit = %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "Logged in as alice") {
		t.Fatalf("login stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "Password: ") {
		t.Fatalf("login did not prompt for a password: %q", stderr)
	}

	stdout, _, code = e.run("", "whoami", "-o", "json")
	if code != 0 {
		t.Fatalf("whoami exit = %d", code)
	}
	var user map[string]any
	if err := json.Unmarshal([]byte(stdout), &user); err != nil {
		t.Fatalf("whoami json: %v (%q)", err, stdout)
	}
	if user["username"] != apitest.Username {
		t.Fatalf("whoami user = %v, want alice", user)
	}

	stdout, _, code = e.run("", "logout")
	if code != 0 || !strings.Contains(stdout, "Logged out") {
		t.Fatalf("logout = %d %q", code, stdout)
	}
	if _, ok := e.srv.Last("/api/auth/logout"); !ok {
		t.Fatalf("logout did not reach the backend")
	}

	if _, _, code := e.run("", "whoami"); code != 1 {
		t.Fatalf("whoami after logout exit = %d, want 1", code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newTestEnv(t)
	_, stderr, code := e.run("", "login", "-u", apitest.Username, "-p", "wrong")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Credenciais inválidas") {
		t.Fatalf("stderr = %q, want backend message", stderr)
	}
	if strings.Contains(stderr, "Run 'guacplayer login'") {
		t.Fatalf("bad credentials should not print the login hint: %q", stderr)
	}
}

func TestConnectionsList_PagingAndFormats(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	stdout, stderr, code := e.run("", "connections", "list", "--page", "2", "--per-page", "10")
	if code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr)
	}
	for _, want := range []string{"NAME", "server-11", "server-20", "page 2 of 5, 45 total"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("table missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "server-21") {
		t.Fatalf("table shows a row from page 3:\n%s", stdout)
	}
	req, ok := e.srv.Last("/api/connections")
	if !ok || req.Query.Get("page") != "2" || req.Query.Get("per_page") != "10" || req.Query.Has("search") {
		t.Fatalf("request query = %v, want page=2 per_page=10 without search", req.Query)
	}

	stdout, _, code = e.run("", "connections", "list", "--per-page", "10", "-o", "json")
	if code != 0 {
		t.Fatalf("json exit = %d", code)
	}
	var out struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Page  int `json:"page"`
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if len(out.Data) != 10 || out.Pagination.Page != 1 || out.Pagination.Total != 45 {
		t.Fatalf("json = %d rows, page %d, total %d; want 10, 1, 45", len(out.Data), out.Pagination.Page, out.Pagination.Total)
	}

	stdout, _, code = e.run("", "connections", "list", "--search", "server-4", "-o", "yaml")
	if code != 0 {
		t.Fatalf("yaml exit = %d", code)
	}
	for _, want := range []string{"connection_name: server-40", "total: 6", "search: server-4"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("yaml missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "{") {
		t.Fatalf("yaml output kept JSON flow style:\n%s", stdout)
	}
}

func TestConnectionsShowAndHistory(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	stdout, _, code := e.run("", "connections", "show", "7")
	if code != 0 || !strings.Contains(stdout, "server-07") || !strings.Contains(stdout, "proxy_hostname") {
		t.Fatalf("show = %d:\n%s", code, stdout)
	}

	stdout, _, code = e.run("", "connections", "history", "7")
	if code != 0 {
		t.Fatalf("history exit = %d", code)
	}
	for _, want := range []string{apitest.RecordingUUID(701), apitest.RecordingUUID(703), "server-07: page 1 of 1, 3 total", "2024-05-01 10:00"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("history missing %q:\n%s", want, stdout)
		}
	}

	_, stderr, code := e.run("", "connections", "show", "999")
	if code != 1 || !strings.Contains(stderr, "Conexão não encontrada") {
		t.Fatalf("show 999 = %d %q, want backend not found", code, stderr)
	}
	if strings.Contains(stderr, "guacplayer login") {
		t.Fatalf("404 printed the login hint: %q", stderr)
	}
}

func TestRecordings(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	uuid := apitest.RecordingUUID(701)

	stdout, _, code := e.run("", "recordings", "info", uuid)
	if code != 0 || !strings.Contains(stdout, "size_bytes") || !strings.Contains(stdout, "16 B") {
		t.Fatalf("info = %d:\n%s", code, stdout)
	}

	stdout, _, code = e.run("", "recordings", "files", uuid)
	if code != 0 || !strings.Contains(stdout, "recording.guac") || !strings.Contains(stdout, "2.0 kB") {
		t.Fatalf("files = %d:\n%s", code, stdout)
	}

	stdout, _, _ = e.run("", "recordings", "url", uuid)
	if want := e.srv.BaseURL() + "/recordings/" + uuid + "/stream?token=" + apitest.Token + "\n"; stdout != want {
		t.Fatalf("url = %q, want %q", stdout, want)
	}
	stdout, _, _ = e.run("", "recordings", "url", "--download", uuid)
	if !strings.Contains(stdout, "/recordings/"+uuid+"/download?token=") {
		t.Fatalf("download url = %q", stdout)
	}

	stdout, stderr, code := e.run("", "recordings", "download", uuid)
	if code != 0 {
		t.Fatalf("download exit = %d, stderr %q", code, stderr)
	}
	saved := filepath.Join(e.dir, "downloads", "recording_"+uuid+".mp4")
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if !bytes.Equal(data, e.srv.Video()) {
		t.Fatalf("downloaded %q, want %q", data, e.srv.Video())
	}
	if !strings.Contains(stdout, saved) {
		t.Fatalf("download stdout = %q, want saved path", stdout)
	}

	_, stderr, code = e.run("", "recordings", "info", "missing")
	if code != 1 || !strings.Contains(stderr, "Gravação não encontrada") {
		t.Fatalf("info missing = %d %q", code, stderr)
	}
}

func TestExpiredSessionPrintsHintAndForgetsToken(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.srv.Expire()

	_, stderr, code := e.run("", "connections", "list")
	if code != 1 || !strings.Contains(stderr, "Run 'guacplayer login'") {
		t.Fatalf("expired list = %d %q, want login hint", code, stderr)
	}

	data, err := os.ReadFile(filepath.Join(e.dir, "session.toml"))
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if strings.Contains(string(data), apitest.Token) {
		t.Fatalf("session file still holds the token:\n%s", data)
	}
}

func TestRootRejectsUnknownOutputAndMissingTerminal(t *testing.T) {
	e := newTestEnv(t)

	_, stderr, code := e.run("", "-o", "xml", "logout")
	if code != 1 || !strings.Contains(stderr, "unknown output format") {
		t.Fatalf("-o xml = %d %q", code, stderr)
	}

	_, stderr, code = e.run("")
	if code != 1 || !strings.Contains(stderr, "needs a terminal") {
		t.Fatalf("root without tty = %d %q", code, stderr)
	}
}

func TestLogs(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	if _, _, code := e.run("", "connections", "list"); code != 0 {
		t.Fatalf("list exit = %d", code)
	}

	stdout, _, code := e.run("", "logs", "--raw", "--component", "api")
	if code != 0 {
		t.Fatalf("logs exit = %d", code)
	}
	if !strings.Contains(stdout, `"component":"api"`) || !strings.Contains(stdout, "/api/connections") {
		t.Fatalf("raw api logs:\n%s", stdout)
	}
	if strings.Contains(stdout, `"component":"auth"`) {
		t.Fatalf("component filter let auth lines through:\n%s", stdout)
	}

	stdout, _, _ = e.run("", "logs", "-n", "5")
	if !strings.Contains(stdout, "api response") || strings.Contains(stdout, `{"level"`) {
		t.Fatalf("formatted logs:\n%s", stdout)
	}

	_, stderr, code := e.run("", "logs", "--level", "error")
	if code != 0 || !strings.Contains(stderr, "no log lines") {
		t.Fatalf("error-level logs = %d %q", code, stderr)
	}
}
