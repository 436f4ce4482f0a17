package ummati

import (
	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/notify"
	"github.com/spanow/ummati/internal/prefs"
	"github.com/spanow/ummati/internal/query"
	"github.com/spanow/ummati/internal/session"
)

// Domain types.
type (
	User          = domain.User
	Role          = domain.Role
	ProfileUpdate = domain.ProfileUpdate
	Event         = domain.Event
	NGO           = domain.NGO
	Filters       = domain.Filters
)

// Store snapshots.
type (
	SessionState     = session.State
	NotificationList = notify.State
	Notification     = notify.Notification
	Severity         = notify.Severity
	Preferences      = prefs.State
	EventsState      = query.State[domain.Event]
	NGOsState        = query.State[domain.NGO]
)

// Errors.
type (
	// NetworkError reports a failed or rejected remote call.
	NetworkError = domain.NetworkError

	// ValidationError reports malformed input.
	ValidationError = domain.ValidationError
)

var (
	// ErrUnauthorized reports an invalid or expired credential.
	ErrUnauthorized = domain.ErrUnauthorized

	// ErrNotAuthenticated reports an operation that needs a signed-in user.
	ErrNotAuthenticated = domain.ErrNotAuthenticated
)
