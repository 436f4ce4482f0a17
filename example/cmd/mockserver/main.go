// Standalone mock marketplace API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/ummati login -c example/ummati.yaml -e amina@ummati.ma
//	go run ./cmd/ummati events -c example/ummati.yaml --city Rabat
//	go run ./cmd/ummati serve -c example/ummati.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spanow/ummati/internal/mockapi"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	latency := flag.Duration("latency", 100*time.Millisecond, "artificial response delay")
	ttl := flag.Duration("token-ttl", mockapi.DefaultTokenTTL, "lifetime of issued credentials")
	flag.Parse()

	fmt.Printf("Mock marketplace API starting on %s\n", *addr)
	fmt.Printf("Demo account: %s / %s\n", mockapi.DemoEmail, mockapi.DemoPassword)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	api := mockapi.New(logger,
		mockapi.WithLatency(*latency),
		mockapi.WithTokenTTL(*ttl),
	)

	if err := http.ListenAndServe(*addr, api); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
