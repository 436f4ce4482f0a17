package ummati

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	app, _ := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
}

func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	app, api := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := app.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}
	if api.listCalls.Load() != 0 {
		t.Error("no listing should be fetched on a cancelled context")
	}
}

func TestStart_LoadsListingsAndServesBinding(t *testing.T) {
	port := freePort(t)
	app, api := newTestApp(t, WithPort(port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/collections/events", port)
	var body string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			data, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			body = string(data)
			if strings.Contains(body, "Nettoyage de plage") {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !strings.Contains(body, "Nettoyage de plage") {
		t.Errorf("events snapshot = %q, want loaded listing", body)
	}
	if api.listCalls.Load() == 0 {
		t.Error("events should be fetched on start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	app, _ := newTestApp(t, WithPort(ln.Addr().(*net.TCPAddr).Port))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Start(ctx); err == nil {
		t.Error("Start() on a bound port should error")
	}
}
