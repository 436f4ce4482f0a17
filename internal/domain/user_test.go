package domain

import "testing"

func TestProfileUpdate_Apply(t *testing.T) {
	city := "Tanger"
	bio := ""
	u := User{ID: "u1", Email: "a@b.com", City: "Rabat", Bio: "hello", Skills: []string{"first aid"}}

	got := ProfileUpdate{City: &city, Bio: &bio}.Apply(u)

	if got.City != "Tanger" {
		t.Errorf("City = %q, want Tanger", got.City)
	}
	if got.Bio != "" {
		t.Errorf("Bio = %q, want empty", got.Bio)
	}
	if got.Email != "a@b.com" {
		t.Errorf("Email = %q, want unchanged", got.Email)
	}

	got.Skills[0] = "changed"
	if u.Skills[0] != "first aid" {
		t.Error("Apply() must not share the Skills slice with its input")
	}
}

func TestMergeUser(t *testing.T) {
	base := User{ID: "u1", Email: "a@b.com", FirstName: "Amina", City: "Rabat"}
	over := User{ID: "u1", City: "Casablanca", Phone: "0600000000"}

	got := MergeUser(base, over)

	if got.FirstName != "Amina" {
		t.Errorf("FirstName = %q, want Amina", got.FirstName)
	}
	if got.City != "Casablanca" {
		t.Errorf("City = %q, want Casablanca", got.City)
	}
	if got.Phone != "0600000000" {
		t.Errorf("Phone = %q, want 0600000000", got.Phone)
	}
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{FirstName: "Amina", LastName: "Benali", Email: "a@b.com"}, "Amina Benali"},
		{User{FirstName: "Amina", Email: "a@b.com"}, "Amina"},
		{User{Email: "a@b.com"}, "a@b.com"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestEvent_SpotsLeft(t *testing.T) {
	if got := (Event{}).SpotsLeft(); got != -1 {
		t.Errorf("SpotsLeft() = %d, want -1 for unlimited", got)
	}
	if got := (Event{Capacity: 10, Registered: 4}).SpotsLeft(); got != 6 {
		t.Errorf("SpotsLeft() = %d, want 6", got)
	}
	if got := (Event{Capacity: 3, Registered: 5}).SpotsLeft(); got != 0 {
		t.Errorf("SpotsLeft() = %d, want 0", got)
	}
}
