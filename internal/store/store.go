package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Reducer computes the next snapshot from the current one and an action.
//
// Reducers must be pure: no I/O, no dispatching, no mutation of the input.
// Returning an error rejects the action and leaves the store unchanged.
type Reducer[S, A any] func(state S, action A) (S, error)

// Observable is the read side of a [Store]: everything a presentation layer
// needs to render and react to state.
type Observable[S any] interface {
	// State returns the current snapshot.
	State() S

	// Subscribe registers fn for every future snapshot and returns a
	// function that removes it. The returned function is idempotent.
	Subscribe(fn func(S)) (unsubscribe func())

	// Watch returns a buffered channel of future snapshots. Sends are
	// non-blocking: a slow reader misses snapshots rather than blocking
	// dispatch. The cancel function unsubscribes and closes the channel.
	Watch(buffer int) (ch <-chan S, cancel func())
}

type subscriber[S any] struct {
	fn     func(S)
	active atomic.Bool
}

// Store holds one immutable snapshot of type S and applies actions of type A
// to it through a [Reducer].
//
// Store is safe for concurrent use. Dispatches from different goroutines are
// serialised end to end: reduce and notify complete before the next one
// starts, so no subscriber ever sees snapshots out of dispatch order.
// Subscribers must not block waiting for another goroutine's Dispatch on the
// same store.
type Store[S, A any] struct {
	reduce Reducer[S, A]
	logger *slog.Logger

	// dispatchMu is held for a whole reduce-and-notify pass. owner is the
	// goroutine holding it, so re-entrant dispatch can be told apart.
	dispatchMu sync.Mutex
	owner      atomic.Uint64

	mu    sync.Mutex
	state S
	subs  []*subscriber[S]
	queue []pending[S]
}

// pending is a snapshot dispatched from inside a subscriber, together with
// the subscribers registered when it was dispatched.
type pending[S any] struct {
	state S
	subs  []*subscriber[S]
}

// New creates a [Store] seeded with initial.
//
// If logger is nil, [slog.Default] is used. It receives recovered reducer and
// subscriber panics.
func New[S, A any](initial S, reduce Reducer[S, A], logger *slog.Logger) *Store[S, A] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[S, A]{
		reduce: reduce,
		logger: logger,
		state:  initial,
	}
}

// State returns the current snapshot.
func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces action into a new snapshot and notifies the subscribers
// registered at that moment.
//
// If the reducer returns an error or panics, the error is returned and the
// previous snapshot is kept; no subscriber is notified. Otherwise every
// subscriber has been called by the time Dispatch returns. A Dispatch from
// inside a subscriber is the exception: its snapshot is reduced at once but
// delivered after the current pass, before the outer Dispatch returns.
func (s *Store[S, A]) Dispatch(action A) error {
	id := goid()
	if s.owner.Load() == id {
		return s.dispatchNested(action)
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.owner.Store(id)
	defer s.owner.Store(0)

	s.mu.Lock()
	next, err := s.safeReduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(next, subs)
	s.drain()
	return nil
}

// dispatchNested handles a Dispatch made by a subscriber of this store.
func (s *Store[S, A]) dispatchNested(action A) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.safeReduce(s.state, action)
	if err != nil {
		return err
	}
	s.state = next
	s.queue = append(s.queue, pending[S]{state: next, subs: s.snapshotSubsLocked()})
	return nil
}

// Subscribe registers fn to receive every snapshot dispatched from now on.
//
// A subscriber added while a notification pass is running does not receive
// that pass. The returned function removes the subscriber; once it returns,
// fn is not called again from any later pass. Calling it more than once is a
// no-op.
func (s *Store[S, A]) Subscribe(fn func(S)) func() {
	sub := &subscriber[S]{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, other := range s.subs {
			if other == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// Watch adapts [Store.Subscribe] to a buffered channel.
//
// If buffer is less than 1, a buffer of 1 is used. Sends never block; when
// the buffer is full the snapshot is dropped for this watcher. The cancel
// function unsubscribes and closes the channel, and is safe to call more
// than once.
func (s *Store[S, A]) Watch(buffer int) (<-chan S, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan S, buffer)

	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := s.Subscribe(func(state S) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- state:
		default:
			// watcher is slow, drop the snapshot
		}
	})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel
}

// drain delivers snapshots queued by re-entrant dispatch, in order. Only the
// goroutine holding dispatchMu calls it.
func (s *Store[S, A]) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		p := s.queue[0]
		s.queue[0] = pending[S]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.notify(p.state, p.subs)
	}
}

func (s *Store[S, A]) notify(state S, subs []*subscriber[S]) {
	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		s.invokeSafe(sub.fn, state)
	}
}

func (s *Store[S, A]) snapshotSubsLocked() []*subscriber[S] {
	subs := make([]*subscriber[S], len(s.subs))
	copy(subs, s.subs)
	return subs
}

// safeReduce calls the reducer with panic recovery. A panic is logged with a
// correlation ID and returned as an error carrying the same ID.
func (s *Store[S, A]) safeReduce(state S, action A) (next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("reducer panic",
				"correlation_id", correlationID,
				"action", fmt.Sprintf("%T", action),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			next = state
			err = fmt.Errorf("reducer panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.reduce(state, action)
}

// invokeSafe calls a subscriber with panic recovery.
// Panics are logged but do not propagate.
func (s *Store[S, A]) invokeSafe(fn func(S), state S) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked", "panic", r)
		}
	}()
	fn(state)
}

var goroutinePrefix = []byte("goroutine ")

// goid returns the current goroutine's id, parsed from the first line of its
// stack trace ("goroutine 18 [running]:").
func goid() uint64 {
	var buf [64]byte
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
