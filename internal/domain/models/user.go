// internal/domain/models/user.go
package models

// Roles understood by the dashboards.
const (
	RoleAdmin = "admin"
	RoleHR    = "hr"
	RoleStaff = "staff"
)

// User is the account record returned by the upstream HR API.
//
// NOTE:
//   - IDs are opaque strings owned by the upstream API; hrdesk never mints them.
//   - Role is normalized to lowercase by the auth layer before it is stored.
type User struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Role       string `json:"role"` // admin | hr | staff
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

// LoginResult is the payload of a successful upstream login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
