// Package notify implements the in-app notification queue: a bounded,
// newest-first list of messages with read/unread tracking, plus toast
// helpers that map outcomes and errors to user-facing messages.
package notify
