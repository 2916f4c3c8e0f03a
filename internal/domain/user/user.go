package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// User is an authenticated principal. A customer-role user shares its ID with
// the corresponding customer record; an agent-role user is linked from the
// agent record via UserID.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity attached to a request. Every
// mutating service operation receives one and applies the access policy
// against it.
type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Principal) IsAgent() bool    { return p.Role == RoleAgent }
func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }
