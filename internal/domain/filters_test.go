package domain

import (
	"errors"
	"testing"
)

func TestNextFilters_PageReset(t *testing.T) {
	tests := []struct {
		name     string
		prev     Filters
		next     Filters
		wantPage int
	}{
		{
			name:     "search change resets page",
			prev:     Filters{Search: "x", Page: 3, Limit: 12},
			next:     Filters{Search: "y", Page: 3, Limit: 12},
			wantPage: 1,
		},
		{
			name:     "category change resets page",
			prev:     Filters{Category: "health", Page: 2},
			next:     Filters{Category: "education", Page: 2},
			wantPage: 1,
		},
		{
			name:     "city change resets page",
			prev:     Filters{City: "Rabat", Page: 4},
			next:     Filters{City: "Fès", Page: 5},
			wantPage: 1,
		},
		{
			name:     "page change alone is kept",
			prev:     Filters{Search: "x", Page: 2},
			next:     Filters{Search: "x", Page: 3},
			wantPage: 3,
		},
		{
			name:     "whitespace around search keeps page",
			prev:     Filters{Search: "x", Page: 2},
			next:     Filters{Search: "x ", Page: 3},
			wantPage: 3,
		},
		{
			name:     "whitespace around city keeps page",
			prev:     Filters{City: "Rabat", Page: 2},
			next:     Filters{City: " Rabat", Page: 2},
			wantPage: 2,
		},
		{
			name:     "status change keeps page",
			prev:     Filters{Status: "upcoming", Page: 2},
			next:     Filters{Status: "completed", Page: 2},
			wantPage: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFilters(tt.prev, tt.next)
			if got.Page != tt.wantPage {
				t.Errorf("NextFilters().Page = %d, want %d", got.Page, tt.wantPage)
			}
		})
	}
}

func TestFilters_Normalize(t *testing.T) {
	f := Filters{Search: "  tree planting ", Page: 0, Limit: -1}.Normalize(20)

	if f.Search != "tree planting" {
		t.Errorf("Search = %q, want %q", f.Search, "tree planting")
	}
	if f.Page != 1 {
		t.Errorf("Page = %d, want 1", f.Page)
	}
	if f.Limit != 20 {
		t.Errorf("Limit = %d, want 20", f.Limit)
	}

	f = Filters{}.Normalize(0)
	if f.Limit != DefaultPageSize {
		t.Errorf("Limit = %d, want %d", f.Limit, DefaultPageSize)
	}
}

func TestFilters_Validate(t *testing.T) {
	err := Filters{Page: 0, Limit: 10}.Validate()
	if !IsValidation(err) {
		t.Fatalf("Validate() error = %v, want ValidationError", err)
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Field != "page" {
		t.Errorf("Field = %q, want page", ve.Field)
	}

	if err := (Filters{Page: 1, Limit: 1}).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestFilters_Values(t *testing.T) {
	v := Filters{Search: "eau", City: "Rabat", Page: 2, Limit: 12}.Values()

	want := map[string]string{
		"search": "eau",
		"city":   "Rabat",
		"page":   "2",
		"limit":  "12",
	}
	for k, w := range want {
		if got := v.Get(k); got != w {
			t.Errorf("Values()[%s] = %q, want %q", k, got, w)
		}
	}
	if v.Has("category") || v.Has("status") {
		t.Errorf("Values() should omit empty criteria, got %v", v)
	}
}
