package server

import (
	"github.com/spanow/ummati/internal/store"
)

// Topic is one observable store, type-erased for transport.
type Topic struct {
	// Name identifies the topic in URLs and as the SSE event name.
	Name string

	snapshot  func() any
	subscribe func(fn func(any)) func()
}

// TopicOf publishes obs under name.
func TopicOf[S any](name string, obs store.Observable[S]) Topic {
	return Topic{
		Name:     name,
		snapshot: func() any { return obs.State() },
		subscribe: func(fn func(any)) func() {
			return obs.Subscribe(func(s S) { fn(s) })
		},
	}
}

// Snapshot returns the current state of the topic.
func (t Topic) Snapshot() any {
	return t.snapshot()
}

// update is one snapshot tagged with the topic it came from.
type update struct {
	topic string
	state any
}
