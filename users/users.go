package users

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
)

// RoleType is the operator role granted by the Banking API.
type RoleType string

const (
	RoleAdmin RoleType = "ADMIN" // Full access to the back office
	RoleAgent RoleType = "AGENT" // Day-to-day banking operations
)

// Roles lists every known role.
var Roles = []RoleType{RoleAdmin, RoleAgent}

// ParseRole maps the API's role string onto a known RoleType.
func ParseRole(s string) (RoleType, error) {
	switch RoleType(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleAgent:
		return RoleAgent, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownRole, s)
}

// Restricted reports whether the role is a restricted operator role. Access
// denials are expected for these roles and are not surfaced as alerts.
func (r RoleType) Restricted() bool {
	switch r {
	case RoleAdmin:
		return false
	case RoleAgent:
		return true
	}
	return true
}

func (r RoleType) Description() string {
	switch r {
	case RoleAdmin:
		return "Administrator - full system access"
	case RoleAgent:
		return "Bank agent - day-to-day operations"
	}
	return "Unknown role"
}

func (r RoleType) String() string {
	return string(r)
}

type User struct {
	ID              *int64   `json:"id,omitempty"`              // Numeric subject id, when the token carries one
	Username        string   `json:"username"`                  // Login name
	Role            RoleType `json:"role"`                      // Operator role
	Email           string   `json:"email,omitempty"`           // Email address
	FirstName       string   `json:"firstName,omitempty"`       // First name
	LastName        string   `json:"lastName,omitempty"`        // Last name
	PhoneNumber     string   `json:"phoneNumber,omitempty"`     // Phone number
	ProfileImageURL string   `json:"profileImageUrl,omitempty"` // Avatar URL
}

// Validate checks the identity invariant: a session user always has a
// username and a known role.
func (u *User) Validate() error {
	if u == nil || strings.TrimSpace(u.Username) == "" || u.Role == "" {
		return apperrors.ErrIncompleteIdentity
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// HasRole returns true if the user holds the role
func (u *User) HasRole(role RoleType) bool {
	return u != nil && u.Role == role
}

// HasAnyRole returns true if the user holds one of the roles
func (u *User) HasAnyRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
