package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Test fixtures ---

type counter struct {
	Count int `json:"count"`
}

type incr struct{}

func reduceCounter(s counter, _ incr) (counter, error) {
	s.Count++
	return s, nil
}

type listing struct {
	Items []string `json:"items"`
}

type mockCommands struct {
	mu      sync.Mutex
	filters map[string]domain.Filters
	read    []string
	removed []string
	err     error
}

func (m *mockCommands) ChangeFilters(collection string, f domain.Filters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.filters == nil {
		m.filters = make(map[string]domain.Filters)
	}
	m.filters[collection] = f
	return nil
}

func (m *mockCommands) MarkNotificationRead(id string) {
	m.mu.Lock()
	m.read = append(m.read, id)
	m.mu.Unlock()
}

func (m *mockCommands) RemoveNotification(id string) {
	m.mu.Lock()
	m.removed = append(m.removed, id)
	m.mu.Unlock()
}

type fixture struct {
	session *store.Store[counter, incr]
	events  *store.Store[listing, incr]
	cmds    *mockCommands
	srv     *Server
}

func newFixture(port int) *fixture {
	f := &fixture{
		session: store.New(counter{}, reduceCounter, testLogger()),
		events:  store.New(listing{Items: []string{"Nettoyage de plage"}}, func(s listing, _ incr) (listing, error) { return s, nil }, testLogger()),
		cmds:    &mockCommands{},
	}
	f.srv = NewServer(Config{
		Port:        port,
		Session:     TopicOf[counter]("session", f.session),
		Collections: []Topic{TopicOf[listing]("events", f.events)},
		Commands:    f.cmds,
		Logger:      testLogger(),
	})
	return f
}

// --- Snapshot and command tests ---

func TestHandleTopic_Session(t *testing.T) {
	f := newFixture(0)
	_ = f.session.Dispatch(incr{})

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got counter
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 1 {
		t.Errorf("Count = %d, want 1", got.Count)
	}
}

func TestHandleTopic_Unconfigured(t *testing.T) {
	f := newFixture(0)

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCollection(t *testing.T) {
	f := newFixture(0)
	h := f.srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections/events", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Nettoyage de plage") {
		t.Errorf("GET events = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown = %d, want 404", rec.Code)
	}
}

func TestHandleFilters(t *testing.T) {
	f := newFixture(0)
	h := f.srv.Handler()

	body := strings.NewReader(`{"search":"plage","city":"Agadir","page":1,"limit":12}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/collections/events/filters", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	got := f.cmds.filters["events"]
	if got.Search != "plage" || got.City != "Agadir" {
		t.Errorf("forwarded filters = %+v", got)
	}
}

func TestHandleFilters_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		cmdErr     error
		wantStatus int
	}{
		{"malformed body", "/api/collections/events/filters", `{`, nil, http.StatusBadRequest},
		{"unknown collection", "/api/collections/nope/filters", `{}`, nil, http.StatusNotFound},
		{"validation", "/api/collections/events/filters", `{}`, &domain.ValidationError{Field: "page", Reason: "bad"}, http.StatusBadRequest},
		{"command unknown", "/api/collections/events/filters", `{}`, fmt.Errorf("events: %w", ErrUnknownCollection), http.StatusNotFound},
		{"other", "/api/collections/events/filters", `{}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(0)
			f.cmds.err = tt.cmdErr

			rec := httptest.NewRecorder()
			f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestNotificationCommands(t *testing.T) {
	f := newFixture(0)
	h := f.srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/n1/read", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("mark read status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/notifications/n2", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want 204", rec.Code)
	}

	if len(f.cmds.read) != 1 || f.cmds.read[0] != "n1" {
		t.Errorf("read = %v, want [n1]", f.cmds.read)
	}
	if len(f.cmds.removed) != 1 || f.cmds.removed[0] != "n2" {
		t.Errorf("removed = %v, want [n2]", f.cmds.removed)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(0)

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// --- SSE tests ---

func TestHandleSSE_InitialSnapshots(t *testing.T) {
	f := newFixture(0)

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	f.srv.handleSSE(rec, req.WithContext(ctx))

	body := rec.Body.String()
	if !strings.Contains(body, "event: session\ndata: {\"count\":0}") {
		t.Errorf("missing session snapshot, got: %s", body)
	}
	if !strings.Contains(body, "event: events\n") {
		t.Errorf("missing events snapshot, got: %s", body)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	f := newFixture(0)

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		f.srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	_ = f.session.Dispatch(incr{})
	_ = f.session.Dispatch(incr{})

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	body := rec.Body.String()
	if !strings.Contains(body, `data: {"count":2}`) {
		t.Errorf("response should contain streamed update, got: %s", body)
	}
}

func TestHandleSSE_Unsubscribes(t *testing.T) {
	f := newFixture(0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.srv.handleSSE(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx))
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	// the handler's subscription is gone: this subscriber is the only one
	var calls int
	unsub := f.session.Subscribe(func(counter) { calls++ })
	defer unsub()
	_ = f.session.Dispatch(incr{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

type nonFlushWriter struct {
	header http.Header
	status int
}

func (n *nonFlushWriter) Header() http.Header {
	if n.header == nil {
		n.header = make(http.Header)
	}
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) { return len(b), nil }

func (n *nonFlushWriter) WriteHeader(statusCode int) { n.status = statusCode }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	f := newFixture(0)
	w := &nonFlushWriter{}

	f.srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.status)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	f := newFixture(0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	f.srv.handleSSE(rec, httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx))

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	f := newFixture(0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			f.srv.handleSSE(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx))
		}()
	}
	wg.Wait()

	time.Sleep(100 * time.Millisecond)
	after := runtime.NumGoroutine()

	// allow a little slack for runtime goroutines
	if after > before+2 {
		t.Errorf("goroutine leak: before=%d after=%d", before, after)
	}
}

// --- Integration tests with real HTTP connections ---

// TestHandleSSE_ServerShutdownIntegration tests that SSE handlers exit cleanly
// when the server is shut down, using a real HTTP connection.
func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	f := newFixture(0)

	serverCtx, serverCancel := context.WithCancel(context.Background())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// derive request context from server context (simulates BaseContext)
		f.srv.handleSSE(w, r.WithContext(serverCtx))
	})

	ts := httptest.NewServer(handler)
	defer ts.Close()

	connDone := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL)
		if err != nil {
			connDone <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()

		_, _ = io.Copy(io.Discard, resp.Body)
		connDone <- nil
	}()

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	select {
	case <-connDone:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE connection did not close after server shutdown")
	}
}

func TestServer_StartAndStream(t *testing.T) {
	f := newFixture(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	url := fmt.Sprintf("http://127.0.0.1:%d/api/sse", f.srv.Addr().(*net.TCPAddr).Port)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sse error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	lines := make(chan string, 32)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	// wait for the initial session snapshot, then push an update
	waitFor := func(want string) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", want)
				}
				if line == want {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	waitFor(`data: {"count":0}`)
	_ = f.session.Dispatch(incr{})
	waitFor(`data: {"count":1}`)
}

func TestStart_PortInUse(t *testing.T) {
	first := newFixture(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := first.srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	second := newFixture(first.srv.Addr().(*net.TCPAddr).Port)
	if err := second.srv.Start(ctx); err == nil {
		t.Error("Start() on a bound port should fail")
	}
}
