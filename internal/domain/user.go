package domain

// Role is the kind of account a user holds.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleNGO       Role = "ngo"
	RoleAdmin     Role = "admin"
)

// User is the authenticated account as returned by the remote profile
// endpoint and cached in persistence.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Role      Role     `json:"role,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	City      string   `json:"city,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}

// DisplayName returns "First Last", falling back to the email address.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Clone returns a copy of u that shares no mutable state with it.
func (u User) Clone() User {
	if u.Skills != nil {
		u.Skills = append([]string(nil), u.Skills...)
	}
	return u
}

// Credentials is the result of a successful login.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProfileUpdate is a partial user update. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string  `json:"firstName,omitempty"`
	LastName  *string  `json:"lastName,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	City      *string  `json:"city,omitempty"`
	Avatar    *string  `json:"avatar,omitempty"`
	Bio       *string  `json:"bio,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.City == nil && p.Avatar == nil && p.Bio == nil && p.Skills == nil
}

// Apply returns u with the non-nil fields of p applied.
func (p ProfileUpdate) Apply(u User) User {
	u = u.Clone()
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Skills != nil {
		u.Skills = append([]string(nil), p.Skills...)
	}
	return u
}

// MergeUser overlays the non-zero fields of over onto base. The server may
// answer a profile update with a partial user, so the cached user fills the
// gaps.
func MergeUser(base, over User) User {
	out := base.Clone()
	if over.ID != "" {
		out.ID = over.ID
	}
	if over.Email != "" {
		out.Email = over.Email
	}
	if over.FirstName != "" {
		out.FirstName = over.FirstName
	}
	if over.LastName != "" {
		out.LastName = over.LastName
	}
	if over.Role != "" {
		out.Role = over.Role
	}
	if over.Phone != "" {
		out.Phone = over.Phone
	}
	if over.City != "" {
		out.City = over.City
	}
	if over.Avatar != "" {
		out.Avatar = over.Avatar
	}
	if over.Bio != "" {
		out.Bio = over.Bio
	}
	if over.Skills != nil {
		out.Skills = append([]string(nil), over.Skills...)
	}
	return out
}
