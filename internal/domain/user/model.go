package user

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
)

// Role is a flat authorization tag. There is no hierarchy between roles.
type Role string

// Role constants
const (
	RoleAdmin           Role = "admin"
	RoleCadre           Role = "cadre"
	RoleFlightCommander Role = "flight_commander"
	RoleCadet           Role = "cadet"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleAdmin, RoleCadre, RoleFlightCommander, RoleCadet}

// UnknownName is shown when a user has neither first nor last name.
const UnknownName = "Unknown"

// PasswordCost is the bcrypt cost used for stored credentials.
const PasswordCost = 12

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrNameTooLong      = errors.New("name cannot exceed 100 characters")
	ErrNoRoles          = errors.New("user must hold at least one role")
	ErrInvalidRole      = errors.New("role must be one of: admin, cadre, flight_commander, cadet")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")

	ErrProfileIncomplete = errors.New("first name, last name and email are required")
	ErrInvalidFirstName  = errors.New("first name can only contain letters, apostrophes, and hyphens")
	ErrInvalidLastName   = errors.New("last name can only contain letters, apostrophes, and hyphens")
	ErrMalformedEmail    = errors.New("email must look like name@domain.tld")
)

// Names are words of letters, apostrophes and hyphens joined by single spaces.
var (
	namePattern  = regexp.MustCompile(`^[A-Za-z'-]+(?: [A-Za-z'-]+)*$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// User holds state for the User concept.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Email contains '@', at least one known role
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if len(u.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if len(u.FirstName) > MaxNameLength || len(u.LastName) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(u.Roles) == 0 {
		return ErrNoRoles
	}
	for _, r := range u.Roles {
		if !r.Valid() {
			return ErrInvalidRole
		}
	}
	return nil
}

// ValidateProfile checks the fields a cadre member may edit on a cadet.
// It is stricter than Validate, which also accepts accounts created by seeding.
// PRE: none
// POST: Returns nil if first, last and email are well formed
func ValidateProfile(first, last, email string) error {
	if first == "" || last == "" || email == "" {
		return ErrProfileIncomplete
	}
	if len(first) > MaxNameLength || len(last) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !namePattern.MatchString(first) {
		return ErrInvalidFirstName
	}
	if !namePattern.MatchString(last) {
		return ErrInvalidLastName
	}
	if !emailPattern.MatchString(email) {
		return ErrMalformedEmail
	}
	return nil
}

// DisplayName returns "First Last", or UnknownName when both are blank.
// INVARIANT: User fields are not mutated
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return UnknownName
	}
	return name
}

// HasRole reports whether the user holds role r.
func (u *User) HasRole(r Role) bool {
	return slices.Contains(u.Roles, r)
}

// AddRole grants r if the user does not already hold it.
// POST: Roles contains r exactly once
func (u *User) AddRole(r Role) {
	if !u.HasRole(r) {
		u.Roles = append(u.Roles, r)
	}
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= 8 characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < 8 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(ValidRoles, r)
}

// ParseRoles converts a comma separated list into roles, skipping blanks.
func ParseRoles(s string) []Role {
	var roles []Role
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		roles = append(roles, Role(part))
	}
	return roles
}

// JoinRoles is the inverse of ParseRoles.
func JoinRoles(roles []Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
