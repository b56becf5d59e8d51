package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleOwner = "owner"
)

// User models an authenticated actor in the system. Names are used for
// identity matching against the NIN and BVN registries.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SelfRegistrable reports whether role may be chosen at sign-up. Admins are
// seeded out of band.
func SelfRegistrable(role string) bool {
	return role == RoleUser || role == RoleOwner
}
