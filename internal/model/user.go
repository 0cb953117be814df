package model

import "time"

// Role is the staff role carried in the access token.  The three values
// are the only roles the back office knows about.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleSales Role = "Sales Staff"
	RoleGate  Role = "Gate Staff"
)

// Valid reports whether r is one of the known staff roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleGate:
		return true
	}
	return false
}

// User represents a staff account as stored in the `users` table.
//
// Fields:
//
//	ID           - primary key identifier of the user.
//	Name         - display name, recorded as scanned_by on gate entries.
//	Email        - unique login address.
//	PasswordHash - bcrypt hashed password.
//	Role         - one of Admin, Sales Staff, Gate Staff.
//	IsActive     - inactive accounts cannot log in.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
