package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/mockapi"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv starts a mock API and writes a config pointing at it with a
// fresh state file.
func newTestEnv(t *testing.T) (*mockapi.API, string) {
	t.Helper()

	api := mockapi.New(testLogger())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	configPath := writeConfig(t, `
api:
  base_url: `+srv.URL+`
  timeout: 2s
state_file: `+filepath.Join(t.TempDir(), "state.db")+`
log_level: error
collections:
  events:
    debounce: 10ms
  ngos:
    debounce: 10ms
`)
	return api, configPath
}

func login(t *testing.T, configPath string) {
	t.Helper()
	out, err := executeCmd(t, mockapi.DemoPassword+"\n",
		"login", "-c", configPath, "-e", mockapi.DemoEmail, "--password-stdin")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Signed in as Amina Benali (volunteer)") {
		t.Errorf("login output = %q", out)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, configPath := newTestEnv(t)

	out, err := executeCmd(t, "", "whoami", "-c", configPath)
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("whoami before login = %q", out)
	}

	login(t, configPath)

	// a new process restores the persisted session
	out, err = executeCmd(t, "", "whoami", "-c", configPath)
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	for _, want := range []string{"Amina Benali <" + mockapi.DemoEmail + ">", "id:   u-1", "role: volunteer", "city: Casablanca"} {
		if !strings.Contains(out, want) {
			t.Errorf("whoami output missing %q\nGot: %s", want, out)
		}
	}

	out, err = executeCmd(t, "", "logout", "-c", configPath)
	if err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if !strings.Contains(out, "Signed out") {
		t.Errorf("logout output = %q", out)
	}

	out, err = executeCmd(t, "", "whoami", "-c", configPath)
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("whoami after logout = %q", out)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	_, configPath := newTestEnv(t)

	_, err := executeCmd(t, "wrong\n",
		"login", "-c", configPath, "-e", mockapi.DemoEmail, "--password-stdin")
	if err == nil {
		t.Fatal("login expected error for bad password")
	}
	if !strings.Contains(err.Error(), "invalid email or password") {
		t.Errorf("error = %v", err)
	}
}

func TestLogin_EmptyPassword(t *testing.T) {
	_, configPath := newTestEnv(t)

	_, err := executeCmd(t, "\n",
		"login", "-c", configPath, "-e", mockapi.DemoEmail, "--password-stdin")
	if !domain.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestEvents_Table(t *testing.T) {
	_, configPath := newTestEnv(t)

	out, err := executeCmd(t, "", "events", "-c", configPath, "--city", "Rabat")
	if err != nil {
		t.Fatalf("events error = %v", err)
	}
	for _, want := range []string{"ID", "Soutien scolaire du samedi", "Cours d'informatique", "page 1/1, 3 total"} {
		if !strings.Contains(out, want) {
			t.Errorf("events output missing %q\nGot: %s", want, out)
		}
	}
	if strings.Contains(out, "Collecte alimentaire") {
		t.Errorf("events output includes an event outside Rabat\nGot: %s", out)
	}
}

func TestEvents_PageWithNewCriteria(t *testing.T) {
	_, configPath := newTestEnv(t)

	out, err := executeCmd(t, "", "events", "-c", configPath, "--category", "education", "-n", "2", "-p", "2", "--json")
	if err != nil {
		t.Fatalf("events error = %v", err)
	}

	var page domain.Page[domain.Event]
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("output is not a JSON page: %v\n%s", err, out)
	}
	if page.Total != 3 || page.TotalPages != 2 {
		t.Errorf("Total/TotalPages = %d/%d, want 3/2", page.Total, page.TotalPages)
	}
	if page.Len() != 1 {
		t.Errorf("len(Items) = %d, want 1 (second page)", page.Len())
	}
}

func TestEvents_InvalidPage(t *testing.T) {
	_, configPath := newTestEnv(t)

	_, err := executeCmd(t, "", "events", "-c", configPath, "-p", "0")
	if !domain.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestEvents_APIDown(t *testing.T) {
	configPath := writeConfig(t, `
api:
  base_url: http://127.0.0.1:1
  timeout: 1s
state_file: `+filepath.Join(t.TempDir(), "state.db")+`
log_level: error
`)

	_, err := executeCmd(t, "", "events", "-c", configPath)
	if !domain.IsNetwork(err) {
		t.Errorf("error = %v, want NetworkError", err)
	}
}

func TestNGOs_Table(t *testing.T) {
	_, configPath := newTestEnv(t)

	out, err := executeCmd(t, "", "ngos", "-c", configPath, "--category", "environnement")
	if err != nil {
		t.Fatalf("ngos error = %v", err)
	}
	for _, want := range []string{"Atlas Vert", "Océan Propre", "page 1/1, 2 total"} {
		if !strings.Contains(out, want) {
			t.Errorf("ngos output missing %q\nGot: %s", want, out)
		}
	}
}

func TestRegister(t *testing.T) {
	api, configPath := newTestEnv(t)

	_, err := executeCmd(t, "", "register", "-c", configPath, "ev-1")
	if err == nil {
		t.Fatal("register expected error when signed out")
	}

	login(t, configPath)

	out, err := executeCmd(t, "", "register", "-c", configPath, "ev-1")
	if err != nil {
		t.Fatalf("register error = %v", err)
	}
	if !strings.Contains(out, "Registered for ev-1") {
		t.Errorf("register output = %q", out)
	}
	if !api.Registered("ev-1", "u-1") {
		t.Error("mock API has no registration")
	}

	_, err = executeCmd(t, "", "register", "-c", configPath, "ev-1")
	if !domain.IsNetwork(err) {
		t.Errorf("second register error = %v, want NetworkError (conflict)", err)
	}
}

func TestPrefs(t *testing.T) {
	_, configPath := newTestEnv(t)

	out, err := executeCmd(t, "", "prefs", "-c", configPath)
	if err != nil {
		t.Fatalf("prefs error = %v", err)
	}
	if !strings.Contains(out, "language: fr (ltr)") || !strings.Contains(out, "theme:    light") {
		t.Errorf("default prefs output = %q", out)
	}

	if _, err := executeCmd(t, "", "prefs", "set", "language", "ar", "-c", configPath); err != nil {
		t.Fatalf("prefs set language error = %v", err)
	}
	if _, err := executeCmd(t, "", "prefs", "set", "theme", "dark", "-c", configPath); err != nil {
		t.Fatalf("prefs set theme error = %v", err)
	}

	out, err = executeCmd(t, "", "prefs", "-c", configPath)
	if err != nil {
		t.Fatalf("prefs error = %v", err)
	}
	if !strings.Contains(out, "language: ar (rtl)") || !strings.Contains(out, "theme:    dark") {
		t.Errorf("prefs output after set = %q", out)
	}

	_, err = executeCmd(t, "", "prefs", "set", "theme", "neon", "-c", configPath)
	if !domain.IsValidation(err) {
		t.Errorf("invalid theme error = %v, want ValidationError", err)
	}

	_, err = executeCmd(t, "", "prefs", "set", "font", "big", "-c", configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown preference") {
		t.Errorf("unknown key error = %v", err)
	}
}
