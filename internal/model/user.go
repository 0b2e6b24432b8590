package model

import "time"

// Role names the principal variant.  The same strings are written into the
// "role" claim of access tokens and returned to clients.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// AccountStatus is the lifecycle state shared by users and administrators.
// Only ACTIVE accounts may log in or be authenticated by an access token.
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
	StatusLocked   AccountStatus = "LOCKED"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusLocked
}

// MembershipLevel applies to users only.
type MembershipLevel string

const (
	MembershipNormal MembershipLevel = "NORMAL"
	MembershipVIP    MembershipLevel = "VIP"
)

// User represents a row of the `users` table.
//
// Fields:
//  ID              - UUID primary key.
//  Username        - unique within users.
//  Email           - unique within users.
//  PasswordHash    - bcrypt hash.
//  FullName        - optional display name.
//  PhoneNumber     - optional phone number.
//  MembershipLevel - NORMAL unless upgraded.
//  Status          - ACTIVE, INACTIVE or LOCKED.
//  DeletedAt       - soft delete marker; deleted users cannot log in.
type User struct {
	ID              string          // users.id
	Username        string          // users.username
	Email           string          // users.email
	PasswordHash    string          // users.password_hash
	FullName        string          // users.full_name
	PhoneNumber     string          // users.phone_number
	MembershipLevel MembershipLevel // users.membership_level
	Status          AccountStatus   // users.status
	CreatedAt       time.Time       // users.created_at
	UpdatedAt       time.Time       // users.updated_at
	DeletedAt       *time.Time      // users.deleted_at (nullable)
}

// Administrator represents a row of the `admins` table.  Administrators are
// stored apart from users and never share a table with them.
type Administrator struct {
	ID           string        // admins.id
	Username     string        // admins.username
	Email        string        // admins.email
	PasswordHash string        // admins.password_hash
	FullName     string        // admins.full_name
	Status       AccountStatus // admins.status
	CreatedAt    time.Time     // admins.created_at
	UpdatedAt    time.Time     // admins.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The opaque
// token handed to the client is not stored; only its SHA-256 hash.
//
// Fields:
//  ID          - auto increment primary key.
//  PrincipalID - owner of the token (a user or an administrator id).
//  TokenHash   - SHA-256 hex digest of the token value, unique.
//  ExpiresAt   - expiration timestamp of the token.
//  CreatedAt   - timestamp of creation.
type RefreshToken struct {
	ID          uint64    // refresh_tokens.id
	PrincipalID string    // refresh_tokens.principal_id
	TokenHash   string    // refresh_tokens.token_hash
	ExpiresAt   time.Time // refresh_tokens.expires_at
	CreatedAt   time.Time // refresh_tokens.created_at
}

// Expired reports whether the token is no longer usable at now.
func (t RefreshToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
