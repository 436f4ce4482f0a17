package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spanow/ummati/internal/domain"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// sseBuffer is the number of snapshots queued per SSE client. A client
	// further behind than this misses snapshots.
	sseBuffer = 64
)

// ErrUnknownCollection is returned by [Commands] for a collection name that
// is not served.
var ErrUnknownCollection = errors.New("unknown collection")

// Commands receives the intents a presentation layer may send.
type Commands interface {
	ChangeFilters(collection string, f domain.Filters) error
	MarkNotificationRead(id string)
	RemoveNotification(id string)
}

// Config configures a [Server].
type Config struct {
	Port          int
	Session       Topic
	Notifications Topic
	Preferences   Topic
	Collections   []Topic
	Commands      Commands
	Logger        *slog.Logger
}

// Server serves store snapshots, commands and the SSE stream.
type Server struct {
	port        int
	session     Topic
	notices     Topic
	prefs       Topic
	collections map[string]Topic
	topics      []Topic
	commands    Commands
	httpServer  *http.Server
	addr        net.Addr
	logger      *slog.Logger
}

// NewServer creates a new HTTP [Server]. The server is not started until
// [Server.Start] is called.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		port:        cfg.Port,
		session:     cfg.Session,
		notices:     cfg.Notifications,
		prefs:       cfg.Preferences,
		collections: make(map[string]Topic, len(cfg.Collections)),
		commands:    cfg.Commands,
		logger:      logger,
	}

	for _, t := range []Topic{cfg.Session, cfg.Notifications, cfg.Preferences} {
		if t.snapshot != nil {
			s.topics = append(s.topics, t)
		}
	}
	for _, t := range cfg.Collections {
		s.collections[t.Name] = t
		s.topics = append(s.topics, t)
	}
	return s
}

// Handler returns the routing for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session", s.handleTopic(s.session))
	mux.HandleFunc("GET /api/notifications", s.handleTopic(s.notices))
	mux.HandleFunc("GET /api/preferences", s.handleTopic(s.prefs))
	mux.HandleFunc("GET /api/collections/{name}", s.handleCollection)
	mux.HandleFunc("POST /api/collections/{name}/filters", s.handleFilters)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleRemove)
	mux.HandleFunc("GET /api/sse", s.handleSSE)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("ui binding listening", "addr", s.addr.String())
	return nil
}

// Addr returns the bound address once [Server.Start] has succeeded.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) handleTopic(t Topic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if t.snapshot == nil {
			http.NotFound(w, r)
			return
		}
		s.writeJSON(w, http.StatusOK, t.Snapshot())
	}
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	t, ok := s.collections[r.PathValue("name")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.collections[name]; !ok || s.commands == nil {
		http.NotFound(w, r)
		return
	}

	var f domain.Filters
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&f); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filters: " + err.Error()})
		return
	}

	if err := s.commands.ChangeFilters(name, f); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrUnknownCollection):
			status = http.StatusNotFound
		case domain.IsValidation(err):
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		http.NotFound(w, r)
		return
	}
	s.commands.MarkNotificationRead(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		http.NotFound(w, r)
		return
	}
	s.commands.RemoveNotification(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams snapshots of every topic via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeEvent := func(u update) error {
		data, err := json.Marshal(u.state)
		if err != nil {
			s.logger.Error("failed to encode snapshot", "topic", u.topic, "error", err)
			return nil
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.topic, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before sending the initial snapshots so nothing in between
	// is lost; sends never block the dispatching goroutine
	ch := make(chan update, sseBuffer)
	for _, t := range s.topics {
		name := t.Name
		unsubscribe := t.subscribe(func(state any) {
			select {
			case ch <- update{topic: name, state: state}:
			default:
			}
		})
		defer unsubscribe()
	}

	for _, t := range s.topics {
		if err := writeEvent(update{topic: t.Name, state: t.Snapshot()}); err != nil {
			return
		}
	}

	for {
		select {
		case u := <-ch:
			if err := writeEvent(u); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
