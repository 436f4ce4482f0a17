package domain

import "time"

// EventStatus is the lifecycle status of a volunteering event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is a volunteering opportunity published by an NGO.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	City        string      `json:"city,omitempty"`
	Status      EventStatus `json:"status,omitempty"`
	StartsAt    time.Time   `json:"startDate"`
	EndsAt      time.Time   `json:"endDate"`
	NGOID       string      `json:"ngoId,omitempty"`
	NGOName     string      `json:"ngoName,omitempty"`
	Capacity    int         `json:"maxVolunteers,omitempty"`
	Registered  int         `json:"currentVolunteers,omitempty"`
}

// SearchText is the text local fuzzy filtering matches against.
func (e Event) SearchText() string {
	return e.Title + " " + e.NGOName + " " + e.City
}

// SpotsLeft returns the remaining capacity, or -1 when unlimited.
func (e Event) SpotsLeft() int {
	if e.Capacity <= 0 {
		return -1
	}
	if left := e.Capacity - e.Registered; left > 0 {
		return left
	}
	return 0
}

// NGO is an organisation listed on the marketplace.
type NGO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	City        string `json:"city,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	EventCount  int    `json:"eventsCount,omitempty"`
}

// SearchText is the text local fuzzy filtering matches against.
func (n NGO) SearchText() string {
	return n.Name + " " + n.City
}

// Page is one page of a remote collection. It is replaced wholesale on
// every settled fetch.
type Page[T any] struct {
	Items      []T `json:"data"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Len returns the number of items on the page.
func (p Page[T]) Len() int {
	return len(p.Items)
}
