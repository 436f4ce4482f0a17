// Package prefs holds the user's display preferences: interface language
// and colour theme. Both are persisted and restored on the next run.
package prefs

import (
	"fmt"
	"log/slog"

	"github.com/spanow/ummati/internal/domain"
	"github.com/spanow/ummati/internal/persist"
	"github.com/spanow/ummati/internal/store"
)

// Language is an interface language code.
type Language string

const (
	French  Language = "fr"
	English Language = "en"
	Arabic  Language = "ar"
)

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool {
	return l == Arabic
}

// Theme is a colour theme.
type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

// ParseLanguage validates s as a [Language].
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case French, English, Arabic:
		return l, nil
	}
	return "", &domain.ValidationError{Field: "language", Reason: fmt.Sprintf("unsupported %q (fr, en or ar)", s)}
}

// ParseTheme validates s as a [Theme].
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case Light, Dark, System:
		return t, nil
	}
	return "", &domain.ValidationError{Field: "theme", Reason: fmt.Sprintf("unsupported %q (light, dark or system)", s)}
}

// State is one preferences snapshot.
type State struct {
	Language Language `json:"language"`
	Theme    Theme    `json:"theme"`
}

// Defaults returns the preferences used when nothing is persisted.
func Defaults() State {
	return State{Language: French, Theme: Light}
}

// Action is a preferences transition. Only types in this package implement
// it.
type Action interface {
	prefsAction()
}

// SetLanguage changes the language.
type SetLanguage struct {
	Language Language
}

// SetTheme changes the theme.
type SetTheme struct {
	Theme Theme
}

func (SetLanguage) prefsAction() {}
func (SetTheme) prefsAction()    {}

// Reduce is the preferences reducer.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case SetLanguage:
		s.Language = a.Language
		return s, nil
	case SetTheme:
		s.Theme = a.Theme
		return s, nil
	default:
		return s, fmt.Errorf("prefs: unknown action %T", a)
	}
}

// Persistence is the storage preferences write through to.
type Persistence interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Manager owns the preferences store.
type Manager struct {
	store   *store.Store[State, Action]
	persist Persistence
	logger  *slog.Logger
}

// NewManager loads persisted preferences, falling back to [Defaults] for
// missing or unrecognised values.
func NewManager(p Persistence, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	initial := Defaults()
	if v, ok := p.Get(persist.KeyLanguage); ok {
		if l, err := ParseLanguage(v); err == nil {
			initial.Language = l
		} else {
			logger.Warn("ignoring stored language", "error", err)
		}
	}
	if v, ok := p.Get(persist.KeyTheme); ok {
		if t, err := ParseTheme(v); err == nil {
			initial.Theme = t
		} else {
			logger.Warn("ignoring stored theme", "error", err)
		}
	}

	return &Manager{
		store:   store.New(initial, Reduce, logger),
		persist: p,
		logger:  logger,
	}
}

// Store exposes the underlying observable store.
func (m *Manager) Store() store.Observable[State] {
	return m.store
}

// State returns the current preferences.
func (m *Manager) State() State {
	return m.store.State()
}

// SetLanguage validates, persists and applies a language change.
func (m *Manager) SetLanguage(s string) error {
	l, err := ParseLanguage(s)
	if err != nil {
		return err
	}
	if err := m.persist.Set(persist.KeyLanguage, string(l)); err != nil {
		return fmt.Errorf("persist language: %w", err)
	}
	return m.store.Dispatch(SetLanguage{Language: l})
}

// SetTheme validates, persists and applies a theme change.
func (m *Manager) SetTheme(s string) error {
	t, err := ParseTheme(s)
	if err != nil {
		return err
	}
	if err := m.persist.Set(persist.KeyTheme, string(t)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	return m.store.Dispatch(SetTheme{Theme: t})
}
