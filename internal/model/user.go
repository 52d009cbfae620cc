package model

import "time"

// Roles carried in the JWT "role" claim.
const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

// User represents a student record as stored in the `users` table.  The
// phone number is the only identity anchor; there is no password.  Name and
// email stay empty until the student fills in the profile.
//
// Fields:
//
//	ID        – primary key identifier of the user.
//	Phone     – E.164 phone number, unique.
//	Name      – optional display name.
//	Email     – optional contact email.
//	Role      – STUDENT for every phone-verified account.
//	CourseIDs – ids from user_courses; populated by repository reads that join it.
type User struct {
	ID        uint64    `json:"id"`
	Phone     string    `json:"phone"`
	Name      *string   `json:"name"`
	Email     *string   `json:"email"`
	Role      string    `json:"role"`
	CourseIDs []uint64  `json:"enrolled_courses"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Admin is a console operator.  Admins sign in with username and password
// and receive a JWT carrying RoleAdmin.
type Admin struct {
	ID           uint64    // admins.id
	Username     string    // admins.username
	PasswordHash string    // admins.password_hash (bcrypt)
	CreatedAt    time.Time // admins.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
