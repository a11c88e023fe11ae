package entity

// Role constants resolved by the identity provider
const (
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleResponsible = "responsible"
	RoleValidator   = "validator"
	RoleViewer      = "viewer"
)

// Identity is the resolved current user. Role is empty when none is assigned.
type Identity struct {
	ID       string `json:"id"`
	Role     string `json:"role,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// Anonymous reports whether no user is identified
func (i Identity) Anonymous() bool {
	return i.ID == ""
}

// Profile mirrors the profiles table: one row per user with a fallback role
type Profile struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	ClientID string `json:"client_id"`
}
