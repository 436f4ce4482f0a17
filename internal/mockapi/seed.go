package mockapi

import (
	"time"

	"github.com/spanow/ummati/internal/domain"
)

// DemoEmail and DemoPassword sign in the seeded volunteer account.
const (
	DemoEmail    = "amina@ummati.ma"
	DemoPassword = "ummati2024"
)

func seedAccounts() []Account {
	return []Account{
		{
			User: domain.User{
				ID:        "u-1",
				Email:     DemoEmail,
				FirstName: "Amina",
				LastName:  "Benali",
				Role:      domain.RoleVolunteer,
				City:      "Casablanca",
				Skills:    []string{"animation", "premiers secours"},
			},
			Password: DemoPassword,
		},
		{
			User: domain.User{
				ID:        "u-2",
				Email:     "contact@sourire.ma",
				FirstName: "Association Sourire",
				Role:      domain.RoleNGO,
				City:      "Rabat",
			},
			Password: "sourire",
		},
	}
}

func seedNGOs() []domain.NGO {
	return []domain.NGO{
		{ID: "ngo-1", Name: "Association Sourire", Category: "education", City: "Rabat", Verified: true, EventCount: 3},
		{ID: "ngo-2", Name: "Banque Alimentaire du Maroc", Category: "solidarite", City: "Casablanca", Verified: true, EventCount: 2},
		{ID: "ngo-3", Name: "Atlas Vert", Category: "environnement", City: "Marrakech", EventCount: 2},
		{ID: "ngo-4", Name: "Main dans la Main", Category: "sante", City: "Fès", Verified: true, EventCount: 1},
		{ID: "ngo-5", Name: "Océan Propre", Category: "environnement", City: "Tanger", EventCount: 1},
	}
}

func seedEvents() []domain.Event {
	day := time.Date(2026, time.November, 7, 9, 0, 0, 0, time.UTC)
	at := func(days, hours int) time.Time {
		return day.AddDate(0, 0, days).Add(time.Duration(hours) * time.Hour)
	}

	return []domain.Event{
		{ID: "ev-1", Title: "Soutien scolaire du samedi", Category: "education", City: "Rabat", Status: domain.EventUpcoming,
			StartsAt: at(0, 0), EndsAt: at(0, 3), NGOID: "ngo-1", NGOName: "Association Sourire", Capacity: 10, Registered: 4},
		{ID: "ev-2", Title: "Collecte alimentaire", Category: "solidarite", City: "Casablanca", Status: domain.EventUpcoming,
			StartsAt: at(1, 0), EndsAt: at(1, 6), NGOID: "ngo-2", NGOName: "Banque Alimentaire du Maroc", Capacity: 30, Registered: 12},
		{ID: "ev-3", Title: "Plantation d'arbres", Category: "environnement", City: "Marrakech", Status: domain.EventUpcoming,
			StartsAt: at(7, 0), EndsAt: at(7, 4), NGOID: "ngo-3", NGOName: "Atlas Vert", Capacity: 25, Registered: 25},
		{ID: "ev-4", Title: "Nettoyage de plage", Category: "environnement", City: "Tanger", Status: domain.EventUpcoming,
			StartsAt: at(8, 0), EndsAt: at(8, 3), NGOID: "ngo-5", NGOName: "Océan Propre"},
		{ID: "ev-5", Title: "Atelier lecture pour enfants", Category: "education", City: "Rabat", Status: domain.EventOngoing,
			StartsAt: at(-2, 0), EndsAt: at(12, 0), NGOID: "ngo-1", NGOName: "Association Sourire", Capacity: 8, Registered: 6},
		{ID: "ev-6", Title: "Caravane médicale", Category: "sante", City: "Fès", Status: domain.EventUpcoming,
			StartsAt: at(14, 0), EndsAt: at(15, 8), NGOID: "ngo-4", NGOName: "Main dans la Main", Capacity: 15, Registered: 3},
		{ID: "ev-7", Title: "Distribution de paniers", Category: "solidarite", City: "Casablanca", Status: domain.EventCompleted,
			StartsAt: at(-20, 0), EndsAt: at(-20, 5), NGOID: "ngo-2", NGOName: "Banque Alimentaire du Maroc", Capacity: 20, Registered: 20},
		{ID: "ev-8", Title: "Jardin partagé", Category: "environnement", City: "Marrakech", Status: domain.EventCancelled,
			StartsAt: at(3, 0), EndsAt: at(3, 2), NGOID: "ngo-3", NGOName: "Atlas Vert", Capacity: 12},
		{ID: "ev-9", Title: "Cours d'informatique", Category: "education", City: "Rabat", Status: domain.EventUpcoming,
			StartsAt: at(5, 0), EndsAt: at(5, 2), NGOID: "ngo-1", NGOName: "Association Sourire", Capacity: 6, Registered: 1},
	}
}
