package models

const RoleAdmin = "admin"

// Identity is the authenticated caller, resolved from a bearer token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Snapshot captures the identity's current public fields.
func (i Identity) Snapshot() Snapshot {
	return Snapshot{
		Name:  i.Name,
		Email: NormalizeEmail(i.Email),
		Photo: i.Photo,
	}
}

// DisplayName falls back to the email when no name is set.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}
