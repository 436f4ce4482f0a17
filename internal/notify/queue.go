package notify

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/store"
)

// Queue owns the notification store.
type Queue struct {
	store  *store.Store[State, Action]
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// QueueOption configures a [Queue].
type QueueOption func(*Queue)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// WithIDGenerator overrides how notification IDs are generated.
func WithIDGenerator(fn func() string) QueueOption {
	return func(q *Queue) { q.newID = fn }
}

// NewQueue creates an empty [Queue].
func NewQueue(logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.store = store.New(State{Notifications: []Notification{}}, Reduce, logger)
	return q
}

// Store exposes the underlying observable store.
func (q *Queue) Store() store.Observable[State] {
	return q.store
}

// State returns the current queue snapshot.
func (q *Queue) State() State {
	return q.store.State()
}

// Add enqueues draft as a new unread notification and returns it. ID and
// CreatedAt are assigned here; a blank title gets the severity default.
func (q *Queue) Add(draft Notification) Notification {
	if !draft.Severity.Valid() {
		draft.Severity = SeverityInfo
	}
	if draft.Title == "" {
		draft.Title = draft.Severity.DefaultTitle()
	}
	draft.ID = q.newID()
	draft.CreatedAt = q.now()
	draft.Read = false

	if err := q.store.Dispatch(Add{Notification: draft}); err != nil {
		q.logger.Error("failed to add notification", "error", err)
	}
	return draft
}

// Remove deletes the notification with id. Unknown IDs are ignored.
func (q *Queue) Remove(id string) {
	q.dispatch(Remove{ID: id})
}

// MarkRead marks the notification with id read. Unknown IDs are ignored.
func (q *Queue) MarkRead(id string) {
	q.dispatch(MarkRead{ID: id})
}

// MarkAllRead marks every notification read.
func (q *Queue) MarkAllRead() {
	q.dispatch(MarkAllRead{})
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.dispatch(Clear{})
}

// UnreadCount returns the number of unread notifications.
func (q *Queue) UnreadCount() int {
	return q.store.State().UnreadCount()
}

func (q *Queue) dispatch(a Action) {
	if err := q.store.Dispatch(a); err != nil {
		q.logger.Error("notification dispatch failed", "error", err)
	}
}

// ToastOption customises a toast.
type ToastOption func(*Notification)

// WithTitle replaces the severity's default title.
func WithTitle(title string) ToastOption {
	return func(n *Notification) { n.Title = title }
}

// WithUser attributes the notification to a user.
func WithUser(userID string) ToastOption {
	return func(n *Notification) { n.UserID = userID }
}

func (q *Queue) toast(sev Severity, message string, opts []ToastOption) Notification {
	n := Notification{Severity: sev, Message: message}
	for _, opt := range opts {
		opt(&n)
	}
	return q.Add(n)
}

// Success enqueues a success toast, titled "Succès" by default.
func (q *Queue) Success(message string, opts ...ToastOption) Notification {
	return q.toast(SeveritySuccess, message, opts)
}

// Error enqueues an error toast, titled "Erreur" by default.
func (q *Queue) Error(message string, opts ...ToastOption) Notification {
	return q.toast(SeverityError, message, opts)
}

// Info enqueues an informational toast.
func (q *Queue) Info(message string, opts ...ToastOption) Notification {
	return q.toast(SeverityInfo, message, opts)
}

// Warning enqueues a warning toast.
func (q *Queue) Warning(message string, opts ...ToastOption) Notification {
	return q.toast(SeverityWarning, message, opts)
}

// Report turns err into a toast according to its kind and reports whether
// one was shown. Validation errors are handled where they occur and are
// never toasted; nil is ignored.
func (q *Queue) Report(err error, opts ...ToastOption) bool {
	if err == nil || domain.IsValidation(err) {
		return false
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		q.Warning("Votre session a expiré, veuillez vous reconnecter.",
			append([]ToastOption{WithTitle("Session expirée")}, opts...)...)
	case errors.Is(err, domain.ErrNotAuthenticated):
		q.Warning("Connectez-vous pour continuer.", opts...)
	case domain.IsNetwork(err):
		var ne *domain.NetworkError
		errors.As(err, &ne)
		msg := "Impossible de joindre le serveur."
		if ne.Message != "" {
			msg = ne.Message
		}
		q.Error(msg, opts...)
	default:
		q.Error(err.Error(), opts...)
	}
	return true
}
