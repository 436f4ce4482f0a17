package query

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/store"
)

// DefaultDebounce is the quiet period before a filter change settles.
const DefaultDebounce = 300 * time.Millisecond

// ErrStopped is returned by operations on a stopped controller.
var ErrStopped = errors.New("query controller stopped")

// Fetcher loads one page of items for a filter state.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, filters domain.Filters) (domain.Page[T], error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc[T any] func(ctx context.Context, filters domain.Filters) (domain.Page[T], error)

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, filters domain.Filters) (domain.Page[T], error) {
	return f(ctx, filters)
}

// Option configures a [Controller].
type Option[T any] func(*Controller[T])

// WithDebounce sets the quiet period. Zero settles on the next tick.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(c *Controller[T]) { c.debounce = d }
}

// WithPageSize sets the limit used when a filter state has none.
func WithPageSize[T any](n int) Option[T] {
	return func(c *Controller[T]) { c.pageSize = n }
}

// WithInitialFilters seeds the filter state.
func WithInitialFilters[T any](f domain.Filters) Option[T] {
	return func(c *Controller[T]) { c.pending = f }
}

// WithFailurePolicy selects what a failed fetch does to the visible result.
func WithFailurePolicy[T any](p FailurePolicy) Option[T] {
	return func(c *Controller[T]) { c.policy = p }
}

// WithErrorHandler registers fn for failures of the latest settled fetch.
// Failures of superseded fetches are not reported.
func WithErrorHandler[T any](fn func(error)) Option[T] {
	return func(c *Controller[T]) { c.onError = fn }
}

// WithSearchText sets how [Controller.Preview] extracts searchable text from
// an item. Without it, Preview returns the visible items unchanged.
func WithSearchText[T any](fn func(T) string) Option[T] {
	return func(c *Controller[T]) { c.searchText = fn }
}

// WithLogger sets the logger.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *Controller[T]) { c.logger = logger }
}

// Controller debounces filter changes into fetches and exposes the result as
// an observable store.
//
// Controller is safe for concurrent use.
type Controller[T any] struct {
	name       string
	fetcher    Fetcher[T]
	debounce   time.Duration
	pageSize   int
	policy     FailurePolicy
	onError    func(error)
	searchText func(T) string
	logger     *slog.Logger

	store *store.Store[State[T], Action]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	pending  domain.Filters
	rev      uint64
	timer    *time.Timer
	waiting  bool
	seq      uint64
	resolved uint64
	changed  chan struct{}
	stopped  bool
}

// New creates a [Controller] for the listing called name. It does not fetch
// anything until the first filter change, [Controller.Flush] or
// [Controller.Refresh].
func New[T any](name string, fetcher Fetcher[T], opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		name:     name,
		fetcher:  fetcher,
		debounce: DefaultDebounce,
		pageSize: domain.DefaultPageSize,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("collection", name)
	c.pending = c.pending.Normalize(c.pageSize)
	c.ctx, c.cancel = context.WithCancel(context.Background())

	initial := State[T]{
		Filters: c.pending,
		Result:  domain.Page[T]{Items: []T{}},
		Phase:   PhaseIdle,
	}
	c.store = store.New(initial, Reduce[T], c.logger)
	return c
}

// Name returns the listing name.
func (c *Controller[T]) Name() string {
	return c.name
}

// Store exposes the underlying observable store.
func (c *Controller[T]) Store() store.Observable[State[T]] {
	return c.store
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	return c.store.State()
}

// Filters returns the most recently requested filter state.
func (c *Controller[T]) Filters() domain.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// OnFilterChange records f as the pending filter state and restarts the
// debounce window. A change of search, category or city resets the page
// to 1.
func (c *Controller[T]) OnFilterChange(f domain.Filters) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	next := domain.NextFilters(c.pending, f.Normalize(c.pageSize))
	c.pending = next
	c.rev++
	rev := c.rev
	if c.timer != nil {
		c.timer.Stop()
	}
	c.waiting = true
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(rev) })
	c.mu.Unlock()

	c.dispatch(filtersChanged{rev: rev, filters: next, pending: true})
}

// SetPage moves to page n of the current criteria and fetches it without
// waiting for the debounce window.
func (c *Controller[T]) SetPage(n int) error {
	if n < 1 {
		return &domain.ValidationError{Field: "page", Reason: "must be at least 1"}
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	c.cancelTimerLocked()
	c.pending.Page = n
	seq, rev, filters := c.settleLocked()
	c.mu.Unlock()

	c.start(seq, rev, filters)
	return nil
}

// Flush closes an open debounce window immediately. It is a no-op when no
// change is pending.
func (c *Controller[T]) Flush() {
	c.mu.Lock()
	if c.stopped || !c.waiting {
		c.mu.Unlock()
		return
	}
	c.cancelTimerLocked()
	seq, rev, filters := c.settleLocked()
	c.mu.Unlock()

	c.start(seq, rev, filters)
}

// Refresh settles the current filter state now, pending or not.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.cancelTimerLocked()
	seq, rev, filters := c.settleLocked()
	c.mu.Unlock()

	c.start(seq, rev, filters)
}

// Settled blocks until no change is pending and the latest settled fetch
// has resolved, or ctx is done. It returns nil immediately on a stopped
// controller.
func (c *Controller[T]) Settled(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.stopped || (!c.waiting && c.resolved == c.seq) {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Stop cancels the debounce timer and in-flight fetches and waits for
// fetch goroutines to return. Safe to call multiple times.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.waiting = false
	c.broadcastLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller[T]) fire(rev uint64) {
	c.mu.Lock()
	if c.stopped || rev != c.rev || !c.waiting {
		c.mu.Unlock()
		return
	}
	c.waiting = false
	seq, rev, filters := c.settleLocked()
	c.mu.Unlock()

	c.start(seq, rev, filters)
}

// settleLocked assigns the pending filters a new sequence number. Exactly
// one fetch is issued per sequence number, by start.
func (c *Controller[T]) settleLocked() (seq, rev uint64, filters domain.Filters) {
	c.seq++
	c.wg.Add(1)
	return c.seq, c.rev, c.pending
}

func (c *Controller[T]) start(seq, rev uint64, filters domain.Filters) {
	c.dispatch(fetchStarted{seq: seq, rev: rev, filters: filters})
	c.logger.Debug("fetch settled", "seq", seq, "page", filters.Page, "search", filters.Search)

	go c.run(seq, filters)
}

func (c *Controller[T]) run(seq uint64, filters domain.Filters) {
	defer c.wg.Done()

	page, err := c.fetcher.Fetch(c.ctx, filters)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded response", "seq", seq)
		return
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("fetch failed", "seq", seq, "error", err)
		c.dispatch(fetchFailed{seq: seq, err: err, policy: c.policy})
		if c.onError != nil {
			c.onError(err)
		}
	} else {
		if page.Items == nil {
			page.Items = []T{}
		}
		c.dispatch(fetchSucceeded[T]{seq: seq, page: page})
	}

	c.mu.Lock()
	if seq > c.resolved {
		c.resolved = seq
	}
	c.broadcastLocked()
	c.mu.Unlock()
}

func (c *Controller[T]) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.rev++
	c.waiting = false
}

func (c *Controller[T]) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller[T]) dispatch(a Action) {
	if err := c.store.Dispatch(a); err != nil {
		c.logger.Error("query dispatch failed", "error", err)
	}
}
