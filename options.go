package ummati

import (
	"errors"
	"log/slog"
	"net/url"
	"time"
)

// appConfig holds mutable state during App construction.
type appConfig struct {
	baseURL        string
	events         Collection
	ngos           Collection
	statePath      string
	port           int
	requestTimeout time.Duration
	logger         *slog.Logger

	sessionCallbacks      []func(SessionState)
	notificationCallbacks []func(NotificationList)
}

// Option is a function that configures an [App] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails, and [New] returns the first such error.
type Option func(*appConfig) error

// WithBaseURL sets the root URL of the marketplace API. Required.
//
// Example:
//
//	app, err := ummati.New(ummati.WithBaseURL("https://api.ummati.ma/v1"))
//
// Returns an error if the URL has no http or https scheme.
func WithBaseURL(rawURL string) Option {
	return func(cfg *appConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return errors.New("invalid base URL: " + err.Error())
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("base URL must have a scheme (http:// or https://)")
		}
		cfg.baseURL = rawURL
		return nil
	}
}

// WithEvents replaces the default events listing ("/events").
func WithEvents(c Collection) Option {
	return func(cfg *appConfig) error {
		if c.name == "" {
			return errors.New("events collection is not initialised, use NewCollection")
		}
		cfg.events = c
		return nil
	}
}

// WithNGOs replaces the default NGO listing ("/ngos").
func WithNGOs(c Collection) Option {
	return func(cfg *appConfig) error {
		if c.name == "" {
			return errors.New("ngos collection is not initialised, use NewCollection")
		}
		cfg.ngos = c
		return nil
	}
}

// WithStatePath sets the file the session and preferences are persisted to.
// Without it, state lives in memory and is lost on exit.
func WithStatePath(path string) Option {
	return func(cfg *appConfig) error {
		cfg.statePath = path
		return nil
	}
}

// WithPort enables the local UI binding on the given port.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *appConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithRequestTimeout bounds every remote request. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSessionCallback registers fn for every session snapshot.
//
// Callbacks run synchronously on the dispatching goroutine, in registration
// order, and must not block. Panics are recovered and logged. Nil callbacks
// are silently ignored.
func WithSessionCallback(fn func(SessionState)) Option {
	return func(cfg *appConfig) error {
		if fn != nil {
			cfg.sessionCallbacks = append(cfg.sessionCallbacks, fn)
		}
		return nil
	}
}

// WithNotificationCallback registers fn for every notification queue
// snapshot. The same rules as [WithSessionCallback] apply.
func WithNotificationCallback(fn func(NotificationList)) Option {
	return func(cfg *appConfig) error {
		if fn != nil {
			cfg.notificationCallbacks = append(cfg.notificationCallbacks, fn)
		}
		return nil
	}
}
