package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spanow/ummati"
	"github.com/spanow/ummati/internal/mockapi"
)

func main() {
	// start mock marketplace API with a little latency so debouncing shows
	api := mockapi.New(slog.Default(), mockapi.WithLatency(150*time.Millisecond))
	go func() {
		if err := http.ListenAndServe(":9999", api); err != nil {
			slog.Error("mock server error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	// events keep a short debounce; NGOs empty out when the API fails
	events, err := ummati.NewCollection("events", "/events",
		ummati.WithPageSize(6),
		ummati.WithDebounce(200*time.Millisecond),
	)
	if err != nil {
		slog.Error("failed to create events collection", "error", err)
		os.Exit(1)
	}
	ngos, _ := ummati.NewCollection("ngos", "/ngos", ummati.WithClearOnFailure())

	var lastSeen string
	app, err := ummati.New(
		ummati.WithBaseURL("http://localhost:9999"),
		ummati.WithEvents(events),
		ummati.WithNGOs(ngos),
		ummati.WithPort(8080),
		ummati.WithSessionCallback(func(s ummati.SessionState) {
			if s.IsAuthenticated {
				slog.Info("session", "user", s.User.DisplayName(), "loading", s.IsLoading)
			} else {
				slog.Info("session", "user", nil, "loading", s.IsLoading)
			}
		}),
		ummati.WithNotificationCallback(func(n ummati.NotificationList) {
			if len(n.Notifications) == 0 || n.Notifications[0].ID == lastSeen {
				return
			}
			latest := n.Notifications[0]
			lastSeen = latest.ID
			slog.Info("notification", "type", latest.Severity, "title", latest.Title, "message", latest.Message)
		}),
	)
	if err != nil {
		slog.Error("failed to create app", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Ummati Demo                                         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Snapshots: http://localhost:8080/api/session        ║")
	fmt.Println("  ║   Live feed: curl -N http://localhost:8080/api/sse    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock API on :9999, demo account:                    ║")
	fmt.Printf("  ║   %-51s ║\n", mockapi.DemoEmail+" / "+mockapi.DemoPassword)
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// simulate a user: sign in, then type a search one keystroke at a time
	go func() {
		time.Sleep(time.Second)
		if err := app.Login(ctx, mockapi.DemoEmail, mockapi.DemoPassword); err != nil {
			return
		}
		for _, q := range []string{"p", "pl", "pla", "plag", "plage"} {
			app.Events().OnFilterChange(ummati.Filters{Search: q})
			time.Sleep(60 * time.Millisecond)
		}
		if err := app.Events().Settled(ctx); err == nil {
			st := app.Events().State()
			slog.Info("search settled", "search", st.Filters.Search, "total", st.Result.Total)
		}
		_ = app.RegisterForEvent(ctx, "ev-4")
	}()

	if err := app.Start(ctx); err != nil {
		slog.Error("ummati error", "error", err)
		os.Exit(1)
	}
}
