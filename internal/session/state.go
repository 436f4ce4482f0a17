package session

import (
	"fmt"

	"github.com/spanow/ummati/internal/domain"
)

// State is one immutable session snapshot.
//
// IsAuthenticated is always equal to User != nil; the reducer maintains it.
type State struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
}

// Phase names the state machine position of s.
func (s State) Phase() string {
	switch {
	case s.IsLoading:
		return "loading"
	case s.IsAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Initial is the state before bootstrap has resolved.
func Initial() State {
	return State{IsLoading: true}
}

// Action is a session state transition. The set is closed: only the types
// in this package implement it.
type Action interface {
	sessionAction()
}

// SetUser replaces the current user and ends loading.
type SetUser struct {
	User domain.User
}

// SetLoading toggles the loading flag.
type SetLoading struct {
	Loading bool
}

// Logout clears the user.
type Logout struct{}

func (SetUser) sessionAction()    {}
func (SetLoading) sessionAction() {}
func (Logout) sessionAction()     {}

// Reduce is the session reducer.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case SetUser:
		u := a.User.Clone()
		return State{User: &u, IsAuthenticated: true, IsLoading: false}, nil
	case SetLoading:
		s.IsLoading = a.Loading
		return s, nil
	case Logout:
		return State{}, nil
	default:
		return s, fmt.Errorf("session: unknown action %T", a)
	}
}
