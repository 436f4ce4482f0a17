package query

import (
	"fmt"

	"github.com/spanow/ummati/internal/domain"
)

// Phase is the debounce position of a controller.
type Phase string

const (
	// PhaseIdle means no filters have been requested yet.
	PhaseIdle Phase = "idle"
	// PhasePending means a change is waiting for the debounce window to close.
	PhasePending Phase = "pending"
	// PhaseSettled means the latest filters have been sent to the fetcher.
	PhaseSettled Phase = "settled"
)

// FailurePolicy decides what a failed fetch does to the visible result.
type FailurePolicy int

const (
	// KeepStale leaves the previous result visible alongside the error.
	KeepStale FailurePolicy = iota
	// ClearResults empties the result on failure.
	ClearResults
)

// State is one controller snapshot.
type State[T any] struct {
	// Filters is the most recently requested filter state, settled or not.
	Filters domain.Filters `json:"filters"`

	// Settled is the filter state of the latest settled fetch.
	Settled domain.Filters `json:"settled"`

	Result  domain.Page[T] `json:"result"`
	Loading bool           `json:"loading"`
	Phase   Phase          `json:"phase"`

	// Err is the failure of the latest settled fetch, if it failed.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	// Seq identifies the latest settled fetch.
	Seq uint64 `json:"seq"`

	rev uint64
}

// Action is a controller transition. Only types in this package implement it.
type Action interface {
	queryAction()
}

type filtersChanged struct {
	rev     uint64
	filters domain.Filters
	pending bool
}

type fetchStarted struct {
	seq     uint64
	rev     uint64
	filters domain.Filters
}

type fetchSucceeded[T any] struct {
	seq  uint64
	page domain.Page[T]
}

type fetchFailed struct {
	seq    uint64
	err    error
	policy FailurePolicy
}

func (filtersChanged) queryAction()    {}
func (fetchStarted) queryAction()      {}
func (fetchSucceeded[T]) queryAction() {}
func (fetchFailed) queryAction()       {}

// Reduce is the controller reducer. Results of any fetch other than the
// latest settled one leave the state unchanged.
func Reduce[T any](s State[T], a Action) (State[T], error) {
	switch a := a.(type) {
	case filtersChanged:
		if a.rev <= s.rev {
			return s, nil
		}
		s.rev = a.rev
		s.Filters = a.filters
		if a.pending {
			s.Phase = PhasePending
		}
		return s, nil

	case fetchStarted:
		if a.seq <= s.Seq {
			return s, nil
		}
		s.Seq = a.seq
		if a.rev >= s.rev {
			s.rev = a.rev
			s.Filters = a.filters
			s.Phase = PhaseSettled
		}
		s.Settled = a.filters
		s.Loading = true
		return s, nil

	case fetchSucceeded[T]:
		if a.seq != s.Seq {
			return s, nil
		}
		s.Result = a.page
		s.Loading = false
		s.Err = nil
		s.Error = ""
		return s, nil

	case fetchFailed:
		if a.seq != s.Seq {
			return s, nil
		}
		s.Loading = false
		s.Err = a.err
		s.Error = a.err.Error()
		if a.policy == ClearResults {
			s.Result = domain.Page[T]{Items: []T{}}
		}
		return s, nil

	default:
		return s, fmt.Errorf("query: unknown action %T", a)
	}
}
