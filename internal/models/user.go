package models

import "time"

const (
	RoleLandlord = "landlord"
	RoleManager  = "manager"
	RoleTenant   = "tenant"
)

// DefaultTrustScore is what a tenant starts with before any history exists.
const DefaultTrustScore = 50.0

type User struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       string    `json:"role"` // landlord, manager or tenant
	TrustScore float64   `json:"trust_score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) IsTenant() bool {
	return u.Role == RoleTenant
}
