package ummati

import (
	"context"
	"sync"
	"testing"
)

func TestWithSessionCallback_InvokedOnChange(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []SessionState
	)
	app, _ := newTestApp(t, WithSessionCallback(func(s SessionState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	_ = app.Open(context.Background())
	_ = app.Login(context.Background(), "a@b.com", "secret")

	mu.Lock()
	defer mu.Unlock()

	// bootstrap resolves, login raises loading, login completes
	if len(seen) != 3 {
		t.Fatalf("callbacks = %d, want 3: %+v", len(seen), seen)
	}
	if last := seen[len(seen)-1]; !last.IsAuthenticated || last.User.ID != "u1" {
		t.Errorf("last snapshot = %+v", last)
	}
}

func TestWithNotificationCallback_PanicRecovery(t *testing.T) {
	var calls int
	app, _ := newTestApp(t,
		WithNotificationCallback(func(NotificationList) { panic("boom") }),
		WithNotificationCallback(func(NotificationList) { calls++ }),
	)

	app.Notifications().Info("hello")
	app.Notifications().Info("again")

	if calls != 2 {
		t.Errorf("second callback calls = %d, want 2", calls)
	}
}

func TestCallbacks_NilIsSafe(t *testing.T) {
	app, _ := newTestApp(t, WithSessionCallback(nil), WithNotificationCallback(nil))
	app.Notifications().Info("hello")
	_ = app.Open(context.Background())
}

func TestCallbacks_RemovedOnClose(t *testing.T) {
	var calls int
	app, _ := newTestApp(t, WithNotificationCallback(func(NotificationList) { calls++ }))

	app.Notifications().Info("before")
	_ = app.Close()
	app.Notifications().Info("after")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
