package notify

import (
	"fmt"
	"time"
)

// MaxNotifications bounds the queue. Adding beyond it evicts the oldest.
const MaxNotifications = 50

// Severity classifies a notification for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultTitle is the title a toast of this severity gets when none is given.
func (s Severity) DefaultTitle() string {
	switch s {
	case SeveritySuccess:
		return "Succès"
	case SeverityError:
		return "Erreur"
	case SeverityWarning:
		return "Attention"
	default:
		return "Information"
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Notification is one queued message.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// State is the queue snapshot, newest first.
type State struct {
	Notifications []Notification `json:"notifications"`
}

// UnreadCount returns the number of unread notifications.
func (s State) UnreadCount() int {
	n := 0
	for _, item := range s.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// Action is a queue transition. Only types in this package implement it.
type Action interface {
	notifyAction()
}

// Add prepends a notification, evicting the oldest beyond the cap.
type Add struct {
	Notification Notification
}

// Remove deletes the notification with the given ID.
type Remove struct {
	ID string
}

// MarkRead marks one notification read.
type MarkRead struct {
	ID string
}

// MarkAllRead marks every notification read.
type MarkAllRead struct{}

// Clear empties the queue.
type Clear struct{}

func (Add) notifyAction()         {}
func (Remove) notifyAction()      {}
func (MarkRead) notifyAction()    {}
func (MarkAllRead) notifyAction() {}
func (Clear) notifyAction()       {}

// Reduce is the queue reducer. It never mutates the slice of s; every
// change builds a new one.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case Add:
		n := len(s.Notifications) + 1
		if n > MaxNotifications {
			n = MaxNotifications
		}
		next := make([]Notification, 0, n)
		next = append(next, a.Notification)
		next = append(next, s.Notifications[:n-1]...)
		return State{Notifications: next}, nil

	case Remove:
		next := make([]Notification, 0, len(s.Notifications))
		for _, item := range s.Notifications {
			if item.ID != a.ID {
				next = append(next, item)
			}
		}
		return State{Notifications: next}, nil

	case MarkRead:
		next := make([]Notification, len(s.Notifications))
		copy(next, s.Notifications)
		for i := range next {
			if next[i].ID == a.ID {
				next[i].Read = true
			}
		}
		return State{Notifications: next}, nil

	case MarkAllRead:
		next := make([]Notification, len(s.Notifications))
		copy(next, s.Notifications)
		for i := range next {
			next[i].Read = true
		}
		return State{Notifications: next}, nil

	case Clear:
		return State{Notifications: []Notification{}}, nil

	default:
		return s, fmt.Errorf("notify: unknown action %T", a)
	}
}
