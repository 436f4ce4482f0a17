package ummati

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/notify"
	"github.com/spanow/ummati/internal/persist"
	"github.com/spanow/ummati/internal/prefs"
	"github.com/spanow/ummati/internal/query"
	"github.com/spanow/ummati/internal/remote"
	"github.com/spanow/ummati/internal/server"
	"github.com/spanow/ummati/internal/session"
	"github.com/spanow/ummati/internal/store"
)

// App wires the client stores together: one session, one notification
// queue, one preferences store and a query controller per listing, all
// talking to the same remote API and persistence.
//
// The typical lifecycle is:
//
//	app, err := ummati.New(ummati.WithBaseURL("https://api.ummati.ma/v1"))
//	if err != nil {
//	    slog.Error("failed to create app", "error", err)
//	    os.Exit(1)
//	}
//	defer app.Close()
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	app.Start(ctx) // blocks until context cancelled
//
// Command-line tools that only need one operation call [App.Open] instead of
// Start, then the operation, then [App.Close].
type App struct {
	baseURL string
	port    int
	logger  *slog.Logger

	client  *remote.Client
	state   *persist.Store
	session *session.Manager
	notices *notify.Queue
	prefs   *prefs.Manager
	events  *query.Controller[domain.Event]
	ngos    *query.Controller[domain.NGO]

	unsubscribe []func()
	closeOnce   sync.Once
	closeErr    error
}

// New creates an [App] with the given options.
//
// A base URL must be configured via [WithBaseURL]. New opens the state file
// (if any) but performs no network I/O; call [App.Open] or [App.Start] for
// that.
//
// Returns an error if any option is invalid or the state file cannot be
// opened.
func New(opts ...Option) (*App, error) {
	cfg := &appConfig{
		events:         defaultCollection("events", "/events"),
		ngos:           defaultCollection("ngos", "/ngos"),
		requestTimeout: remote.DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.events.name == cfg.ngos.name {
		return nil, fmt.Errorf("duplicate collection name: %q", cfg.events.name)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	state, err := persist.Open(cfg.statePath, persist.WithLogger(logger.With("store", "state")))
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	client := remote.NewClient(cfg.baseURL, cfg.requestTimeout, logger)

	sess, err := session.NewManager(session.Options{
		Auth:    client,
		Persist: state,
		Expiry:  remote.TokenExpiry,
		Logger:  logger.With("store", "session"),
	})
	if err != nil {
		state.Close()
		return nil, err
	}

	app := &App{
		baseURL: cfg.baseURL,
		port:    cfg.port,
		logger:  logger,
		client:  client,
		state:   state,
		session: sess,
		notices: notify.NewQueue(logger.With("store", "notifications")),
		prefs:   prefs.NewManager(state, logger.With("store", "preferences")),
	}

	app.events = newController(app, client, cfg.events, domain.Event.SearchText)
	app.ngos = newController(app, client, cfg.ngos, domain.NGO.SearchText)

	for _, fn := range cfg.sessionCallbacks {
		app.unsubscribe = append(app.unsubscribe, sess.Store().Subscribe(fn))
	}
	for _, fn := range cfg.notificationCallbacks {
		app.unsubscribe = append(app.unsubscribe, app.notices.Store().Subscribe(fn))
	}

	return app, nil
}

func newController[T any](app *App, client *remote.Client, c Collection, searchText func(T) string) *query.Controller[T] {
	return query.New(c.name, remote.NewCollection[T](client, c.path, c.Headers()),
		query.WithDebounce[T](c.debounce),
		query.WithPageSize[T](c.pageSize),
		query.WithFailurePolicy[T](c.policy),
		query.WithErrorHandler[T](app.report),
		query.WithSearchText(searchText),
		query.WithLogger[T](app.logger),
	)
}

// Open restores the session from persistence.
//
// A network failure while validating the stored credential is reported as a
// notification and the cached user is kept; Open still returns nil.
func (a *App) Open(ctx context.Context) error {
	err := a.session.Bootstrap(ctx)
	if err != nil && domain.IsNetwork(err) {
		a.report(err)
		return nil
	}
	return err
}

// Start opens the app, loads the first page of every listing, serves the
// UI binding when a port is configured, and blocks until ctx is cancelled.
// The app is closed on return.
//
// Returns nil on graceful shutdown. Returns an error if the UI binding fails
// to start.
func (a *App) Start(ctx context.Context) error {
	defer a.Close()

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	a.logger.Info("ummati starting", "api", a.baseURL)

	if err := a.Open(ctx); err != nil {
		return err
	}

	a.events.Refresh()
	a.ngos.Refresh()

	if a.port > 0 {
		srv := server.NewServer(server.Config{
			Port:          a.port,
			Session:       server.TopicOf[SessionState]("session", a.session.Store()),
			Notifications: server.TopicOf[NotificationList]("notifications", a.notices.Store()),
			Preferences:   server.TopicOf[Preferences]("preferences", a.prefs.Store()),
			Collections: []server.Topic{
				server.TopicOf[EventsState](a.events.Name(), a.events.Store()),
				server.TopicOf[NGOsState](a.ngos.Name(), a.ngos.Store()),
			},
			Commands: a,
			Logger:   a.logger,
		})
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start UI binding: %w", err)
		}
	}

	<-ctx.Done()
	a.logger.Info("ummati stopped")
	return nil
}

// Close stops the query controllers and releases the state file and idle
// connections. Safe to call multiple times.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.events.Stop()
		a.ngos.Stop()
		for _, unsubscribe := range a.unsubscribe {
			unsubscribe()
		}
		a.client.Close()
		a.closeErr = a.state.Close()
	})
	return a.closeErr
}

// Session returns the current session snapshot.
func (a *App) Session() SessionState {
	return a.session.State()
}

// SessionStore exposes the session store for subscription.
func (a *App) SessionStore() store.Observable[SessionState] {
	return a.session.Store()
}

// Notifications returns the notification queue.
func (a *App) Notifications() *notify.Queue {
	return a.notices
}

// Preferences returns the preferences store.
func (a *App) Preferences() *prefs.Manager {
	return a.prefs
}

// Events returns the events listing controller.
func (a *App) Events() *query.Controller[Event] {
	return a.events
}

// NGOs returns the NGO listing controller.
func (a *App) NGOs() *query.Controller[NGO] {
	return a.ngos
}

// Login signs in and greets the user. Failures other than invalid input are
// also reported as notifications.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.session.Login(ctx, email, password); err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			a.report(err)
		} else {
			// a 401 on login means bad credentials, not an expired session
			a.notices.Error("Email ou mot de passe incorrect.")
		}
		return err
	}

	// a concurrent sign-out may already have cleared the user
	if user := a.session.State().User; user != nil {
		a.notices.Success("Bienvenue, "+user.DisplayName()+" !", notify.WithUser(user.ID))
	}
	return nil
}

// Logout signs out. It never fails.
func (a *App) Logout() {
	a.session.Logout()
	a.notices.Info("Vous êtes déconnecté.")
}

// UpdateProfile applies upd to the signed-in user.
func (a *App) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	if err := a.session.UpdateProfile(ctx, upd); err != nil {
		a.report(err)
		return err
	}
	a.notices.Success("Profil mis à jour", notify.WithUser(a.userID()))
	return nil
}

// RegisterForEvent signs the current user up for the event with id and
// reloads the events listing so capacity figures are current.
func (a *App) RegisterForEvent(ctx context.Context, eventID string) error {
	if !a.session.State().IsAuthenticated {
		a.report(domain.ErrNotAuthenticated)
		return domain.ErrNotAuthenticated
	}
	if eventID == "" {
		return &domain.ValidationError{Field: "event", Reason: "required"}
	}

	if err := a.client.RegisterForEvent(ctx, eventID); err != nil {
		a.report(err)
		return err
	}

	a.notices.Success("Inscription confirmée", notify.WithUser(a.userID()))
	a.events.Refresh()
	return nil
}

// ChangeFilters forwards a filter change to the named listing.
func (a *App) ChangeFilters(collection string, f Filters) error {
	switch collection {
	case a.events.Name():
		a.events.OnFilterChange(f)
	case a.ngos.Name():
		a.ngos.OnFilterChange(f)
	default:
		return fmt.Errorf("%q: %w", collection, server.ErrUnknownCollection)
	}
	return nil
}

// MarkNotificationRead marks one notification read.
func (a *App) MarkNotificationRead(id string) {
	a.notices.MarkRead(id)
}

// RemoveNotification deletes one notification.
func (a *App) RemoveNotification(id string) {
	a.notices.Remove(id)
}

// report surfaces err to the user. A rejected credential anywhere means the
// session is over, so it also signs out.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	uid := a.userID()
	if errors.Is(err, domain.ErrUnauthorized) && uid != "" {
		a.logger.Info("credential rejected, signing out", "error", err)
		a.session.Logout()
	}
	a.notices.Report(err, notify.WithUser(uid))
}

func (a *App) userID() string {
	if u := a.session.State().User; u != nil {
		return u.ID
	}
	return ""
}
