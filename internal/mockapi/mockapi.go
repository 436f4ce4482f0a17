// Package mockapi is an in-memory stand-in for the marketplace REST API.
//
// It backs the example programs and the CLI tests. Credentials are HS256
// JWTs signed with a per-instance key, so expiry behaves like the real
// service.
package mockapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spanow/ummati/internal/domain"
)

// DefaultTokenTTL is how long issued credentials stay valid.
const DefaultTokenTTL = 24 * time.Hour

// Account is a user that can sign in.
type Account struct {
	User     domain.User
	Password string
}

// API is an http.Handler serving the marketplace endpoints.
type API struct {
	logger  *slog.Logger
	key     []byte
	ttl     time.Duration
	latency time.Duration
	now     func() time.Time

	mu            sync.Mutex
	accounts      map[string]*Account // by email
	events        []domain.Event
	ngos          []domain.NGO
	registrations map[string]map[string]bool // event id -> user ids
	mux           *http.ServeMux
}

// Option configures an [API].
type Option func(*API)

// WithTokenTTL sets the lifetime of issued credentials.
func WithTokenTTL(d time.Duration) Option {
	return func(a *API) { a.ttl = d }
}

// WithLatency delays every response by d.
func WithLatency(d time.Duration) Option {
	return func(a *API) { a.latency = d }
}

// WithClock replaces time.Now for token issuing and validation.
func WithClock(now func() time.Time) Option {
	return func(a *API) { a.now = now }
}

// WithAccounts replaces the seeded accounts.
func WithAccounts(accounts ...Account) Option {
	return func(a *API) {
		a.accounts = make(map[string]*Account, len(accounts))
		for i := range accounts {
			acc := accounts[i]
			a.accounts[strings.ToLower(acc.User.Email)] = &acc
		}
	}
}

// WithEvents replaces the seeded events.
func WithEvents(events ...domain.Event) Option {
	return func(a *API) { a.events = append([]domain.Event(nil), events...) }
}

// WithNGOs replaces the seeded NGOs.
func WithNGOs(ngos ...domain.NGO) Option {
	return func(a *API) { a.ngos = append([]domain.NGO(nil), ngos...) }
}

// New creates an API seeded with demo data.
func New(logger *slog.Logger, opts ...Option) *API {
	if logger == nil {
		logger = slog.Default()
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)

	a := &API{
		logger:        logger,
		key:           key,
		ttl:           DefaultTokenTTL,
		now:           time.Now,
		registrations: make(map[string]map[string]bool),
	}
	WithAccounts(seedAccounts()...)(a)
	a.events = seedEvents()
	a.ngos = seedNGOs()

	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", a.handleLogin)
	mux.HandleFunc("GET /auth/me", a.handleMe)
	mux.HandleFunc("PATCH /users/{id}", a.handleUpdateUser)
	mux.HandleFunc("GET /events", a.handleEvents)
	mux.HandleFunc("POST /events/{id}/register", a.handleRegister)
	mux.HandleFunc("GET /ngos", a.handleNGOs)
	a.mux = mux

	return a
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.latency > 0 {
		select {
		case <-time.After(a.latency):
		case <-r.Context().Done():
			return
		}
	}
	a.logger.Debug("mock request", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

// IssueToken signs a credential for userID. Exposed so tests can mint
// expired or foreign tokens.
func (a *API) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Registered reports whether userID is signed up for eventID.
func (a *API) Registered(eventID, userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registrations[eventID][userID]
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	a.mu.Lock()
	acc, ok := a.accounts[strings.ToLower(req.Email)]
	a.mu.Unlock()
	if !ok || acc.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Identifiants invalides")
		return
	}

	token, err := a.IssueToken(acc.User.ID, a.ttl)
	if err != nil {
		a.logger.Error("failed to sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, domain.Credentials{Token: token, User: acc.User.Clone()})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, acc.User.Clone())
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.authenticate(w, r)
	if !ok {
		return
	}
	if r.PathValue("id") != acc.User.ID {
		writeError(w, http.StatusForbidden, "Accès refusé")
		return
	}

	var upd domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	a.mu.Lock()
	acc.User = upd.Apply(acc.User)
	user := acc.User.Clone()
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	f := parseFilters(r)

	a.mu.Lock()
	matched := make([]domain.Event, 0, len(a.events))
	for _, e := range a.events {
		if matches(f, string(e.Status), e.Category, e.City, e.Title, e.Description, e.NGOName) {
			matched = append(matched, e)
		}
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, f))
}

func (a *API) handleNGOs(w http.ResponseWriter, r *http.Request) {
	f := parseFilters(r)

	a.mu.Lock()
	matched := make([]domain.NGO, 0, len(a.ngos))
	for _, n := range a.ngos {
		if matches(f, "", n.Category, n.City, n.Name, n.Description) {
			matched = append(matched, n)
		}
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, f))
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.authenticate(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	a.mu.Lock()
	defer a.mu.Unlock()

	idx := -1
	for i := range a.events {
		if a.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Événement introuvable")
		return
	}

	ev := &a.events[idx]
	if a.registrations[id][acc.User.ID] {
		writeError(w, http.StatusConflict, "Vous êtes déjà inscrit à cet événement")
		return
	}
	if ev.SpotsLeft() == 0 {
		writeError(w, http.StatusConflict, "Cet événement est complet")
		return
	}

	if a.registrations[id] == nil {
		a.registrations[id] = make(map[string]bool)
	}
	a.registrations[id][acc.User.ID] = true
	ev.Registered++

	w.WriteHeader(http.StatusNoContent)
}

// authenticate resolves the bearer token to an account, writing a 401 when
// it cannot.
func (a *API) authenticate(w http.ResponseWriter, r *http.Request) (*Account, bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || raw == "" {
		writeError(w, http.StatusUnauthorized, "Authentification requise")
		return nil, false
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.key, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		msg := "Token invalide"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Session expirée"
		}
		writeError(w, http.StatusUnauthorized, msg)
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.accounts {
		if acc.User.ID == claims.Subject {
			return acc, true
		}
	}
	writeError(w, http.StatusUnauthorized, "Compte introuvable")
	return nil, false
}

func parseFilters(r *http.Request) domain.Filters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.Filters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		City:     q.Get("city"),
		Status:   q.Get("status"),
		Page:     page,
		Limit:    limit,
	}.Normalize(domain.DefaultPageSize)
}

// matches applies the criteria of f. Search is a case-insensitive substring
// match over text.
func matches(f domain.Filters, status, category, city string, text ...string) bool {
	if f.Status != "" && status != "" && f.Status != status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, category) {
		return false
	}
	if f.City != "" && !strings.EqualFold(f.City, city) {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, t := range text {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, f domain.Filters) domain.Page[T] {
	total := len(items)
	pages := (total + f.Limit - 1) / f.Limit

	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := min(start+f.Limit, total)

	return domain.Page[T]{
		Items:      append([]T{}, items[start:end]...),
		Total:      total,
		TotalPages: pages,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
