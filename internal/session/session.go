package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/persist"
	"github.com/spanow/ummati/internal/store"
)

// Authenticator is the remote side of the session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.Credentials, error)
	Profile(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)

	// UseToken sets the credential attached to subsequent requests. An empty
	// token detaches it.
	UseToken(token string)
}

// Persistence is the durable key-value storage the session writes through to.
type Persistence interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// ExpiryFunc reports the expiry embedded in token, if it carries one.
type ExpiryFunc func(token string) (time.Time, bool)

// Options configures a [Manager]. Only Auth and Persist are required.
type Options struct {
	Auth    Authenticator
	Persist Persistence

	// Expiry, if set, lets bootstrap reject a stored credential that has
	// already expired without a network round trip.
	Expiry ExpiryFunc

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Manager drives the session store.
type Manager struct {
	store   *store.Store[State, Action]
	auth    Authenticator
	persist Persistence
	expiry  ExpiryFunc
	now     func() time.Time
	logger  *slog.Logger

	bootstrapped atomic.Bool
}

// NewManager creates a [Manager] in the loading state.
func NewManager(opts Options) (*Manager, error) {
	if opts.Auth == nil {
		return nil, errors.New("session: authenticator is required")
	}
	if opts.Persist == nil {
		return nil, errors.New("session: persistence is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		store:   store.New(Initial(), Reduce, logger),
		auth:    opts.Auth,
		persist: opts.Persist,
		expiry:  opts.Expiry,
		now:     now,
		logger:  logger,
	}, nil
}

// Store exposes the underlying observable store.
func (m *Manager) Store() store.Observable[State] {
	return m.store
}

// State returns the current session snapshot.
func (m *Manager) State() State {
	return m.store.State()
}

// Bootstrap restores the session from persistence.
//
// It always leaves the store out of the loading state. A missing, expired or
// rejected credential resolves to unauthenticated and returns nil. A network
// failure while validating resolves to the cached user and returns the
// error, so the caller can tell the user they are offline. Only the first
// call does anything.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if !m.bootstrapped.CompareAndSwap(false, true) {
		return nil
	}

	token, ok := m.persist.Get(persist.KeyToken)
	if !ok || token == "" {
		return m.store.Dispatch(SetLoading{Loading: false})
	}

	var cached domain.User
	found, err := persist.GetJSON(m.persist, persist.KeyUser, &cached)
	if err != nil {
		err = &domain.ValidationError{Field: persist.KeyUser, Reason: err.Error()}
		m.logger.Warn("discarding cached session", "error", err)
		m.clearCredentials()
		return m.store.Dispatch(Logout{})
	}
	if !found {
		return m.store.Dispatch(SetLoading{Loading: false})
	}

	if m.expiry != nil {
		if exp, ok := m.expiry(token); ok && !exp.After(m.now()) {
			m.logger.Info("stored credential expired", "expired_at", exp)
			m.clearCredentials()
			return m.store.Dispatch(Logout{})
		}
	}

	m.auth.UseToken(token)

	user, err := m.auth.Profile(ctx)
	switch {
	case err == nil:
		if err := persist.SetJSON(m.persist, persist.KeyUser, user); err != nil {
			m.logger.Warn("failed to persist refreshed user", "error", err)
		}
		return m.store.Dispatch(SetUser{User: user})

	case errors.Is(err, domain.ErrUnauthorized):
		m.logger.Info("stored credential rejected")
		m.clearCredentials()
		m.auth.UseToken("")
		return m.store.Dispatch(Logout{})

	default:
		m.logger.Warn("session validation failed, using cached user", "error", err)
		if dispatchErr := m.store.Dispatch(SetUser{User: cached}); dispatchErr != nil {
			return dispatchErr
		}
		return fmt.Errorf("validate session: %w", err)
	}
}

// Login authenticates with the remote service and persists the credential.
//
// On failure the session returns to unauthenticated (loading cleared) and the
// error is returned unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if email == "" {
		return &domain.ValidationError{Field: "email", Reason: "required"}
	}
	if password == "" {
		return &domain.ValidationError{Field: "password", Reason: "required"}
	}

	if err := m.store.Dispatch(SetLoading{Loading: true}); err != nil {
		return err
	}

	creds, err := m.auth.Login(ctx, email, password)
	if err != nil {
		_ = m.store.Dispatch(SetLoading{Loading: false})
		return err
	}

	if err := m.persist.Set(persist.KeyToken, creds.Token); err != nil {
		m.logger.Warn("failed to persist token", "error", err)
	}
	if err := persist.SetJSON(m.persist, persist.KeyUser, creds.User); err != nil {
		m.logger.Warn("failed to persist user", "error", err)
	}

	m.auth.UseToken(creds.Token)
	m.logger.Info("logged in", "user_id", creds.User.ID)

	return m.store.Dispatch(SetUser{User: creds.User})
}

// Logout clears the credential and the user. It never fails; persistence
// errors are logged.
func (m *Manager) Logout() {
	m.clearCredentials()
	m.auth.UseToken("")
	if err := m.store.Dispatch(Logout{}); err != nil {
		m.logger.Error("logout dispatch failed", "error", err)
	}
}

// UpdateProfile sends upd to the remote service and merges the response into
// the current user. On failure the session is unchanged.
func (m *Manager) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error {
	cur := m.store.State().User
	if cur == nil {
		return domain.ErrNotAuthenticated
	}

	updated, err := m.auth.UpdateProfile(ctx, cur.ID, upd)
	if err != nil {
		return err
	}

	// re-read: the user may have changed while the request was in flight
	cur = m.store.State().User
	if cur == nil {
		return domain.ErrNotAuthenticated
	}

	merged := domain.MergeUser(*cur, updated)
	if err := persist.SetJSON(m.persist, persist.KeyUser, merged); err != nil {
		m.logger.Warn("failed to persist user", "error", err)
	}

	return m.store.Dispatch(SetUser{User: merged})
}

func (m *Manager) clearCredentials() {
	if err := m.persist.Remove(persist.KeyToken); err != nil {
		m.logger.Warn("failed to remove token", "error", err)
	}
	if err := m.persist.Remove(persist.KeyUser); err != nil {
		m.logger.Warn("failed to remove user", "error", err)
	}
}
