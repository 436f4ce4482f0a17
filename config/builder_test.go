package config

import (
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spanow/ummati"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildOptions_CreatesApp(t *testing.T) {
	yaml := `
api:
  base_url: http://127.0.0.1:1
  timeout: 2s
port: 9123
state_file: ` + filepath.Join(t.TempDir(), "state.db") + `
collections:
  events:
    page_size: 6
  ngos:
    path: /organisations
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg, testLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	app, err := ummati.New(opts...)
	if err != nil {
		t.Fatalf("ummati.New() error = %v", err)
	}
	defer app.Close()

	if got := app.Events().Filters().Limit; got != 6 {
		t.Errorf("events limit = %d, want 6", got)
	}
	if got := app.NGOs().Name(); got != "ngos" {
		t.Errorf("ngos name = %q", got)
	}
}

func TestBuildCollection(t *testing.T) {
	cc := CollectionConfig{
		Path:      "/events",
		PageSize:  20,
		Debounce:  Duration(150 * time.Millisecond),
		OnFailure: "clear",
		Headers:   map[string]string{"X-B": "2", "X-A": "1"},
	}

	c, err := buildCollection("events", cc)
	if err != nil {
		t.Fatalf("buildCollection() error = %v", err)
	}

	if c.Name() != "events" || c.Path() != "/events" {
		t.Errorf("name/path = %q/%q", c.Name(), c.Path())
	}
	if c.PageSize() != 20 {
		t.Errorf("PageSize() = %d, want 20", c.PageSize())
	}
	if c.Debounce() != 150*time.Millisecond {
		t.Errorf("Debounce() = %v, want 150ms", c.Debounce())
	}
	if !c.ClearsOnFailure() {
		t.Error("ClearsOnFailure() = false, want true")
	}
	want := map[string]string{"X-A": "1", "X-B": "2"}
	if !reflect.DeepEqual(c.Headers(), want) {
		t.Errorf("Headers() = %v, want %v", c.Headers(), want)
	}
}

func TestBuildCollection_Defaults(t *testing.T) {
	c, err := buildCollection("ngos", CollectionConfig{Path: "/ngos"})
	if err != nil {
		t.Fatalf("buildCollection() error = %v", err)
	}
	if c.PageSize() != 12 {
		t.Errorf("PageSize() = %d, want 12", c.PageSize())
	}
	if c.Debounce() != 300*time.Millisecond {
		t.Errorf("Debounce() = %v, want 300ms", c.Debounce())
	}
	if c.ClearsOnFailure() {
		t.Error("ClearsOnFailure() = true, want false")
	}
}

func TestBuildCollection_InvalidPath(t *testing.T) {
	if _, err := buildCollection("events", CollectionConfig{Path: "events"}); err == nil {
		t.Error("buildCollection() expected error for relative path")
	}
}

func TestMapToKeyValuePairs_DeterministicOrder(t *testing.T) {
	m := map[string]string{"c": "3", "a": "1", "b": "2"}
	want := []string{"a", "1", "b", "2", "c", "3"}

	for i := 0; i < 10; i++ {
		if got := mapToKeyValuePairs(m); !reflect.DeepEqual(got, want) {
			t.Fatalf("mapToKeyValuePairs() = %v, want %v", got, want)
		}
	}
}
