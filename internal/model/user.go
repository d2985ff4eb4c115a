// Package model defines domain entities for the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the authorization tier of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleUser, RoleAdmin}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole converts a tag into a Role, accepting any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// UnmarshalText rejects unknown roles so decoded users always carry a valid one.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UserStatus is the approval state of an account.
type UserStatus string

const (
	StatusPending  UserStatus = "PENDING"
	StatusApproved UserStatus = "APPROVED"
	StatusBlocked  UserStatus = "BLOCKED"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []UserStatus{StatusPending, StatusApproved, StatusBlocked}

// IsValid reports whether s is one of the known statuses.
func (s UserStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusBlocked:
		return true
	}
	return false
}

// ParseUserStatus converts a tag into a UserStatus, accepting any letter case.
func ParseUserStatus(s string) (UserStatus, error) {
	st := UserStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid user status %q", s)
	}
	return st, nil
}

// UnmarshalText rejects unknown statuses.
func (s *UserStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseUserStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// User is an account of the dashboard.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          Role       `json:"role"`
	Status        UserStatus `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	EmailVerified bool       `json:"emailVerified"`
	GoogleID      string     `json:"googleId,omitempty"`
	Picture       string     `json:"picture,omitempty"`
}

// IsAdmin returns true if the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsApproved returns true if the user may sign in.
func (u *User) IsApproved() bool {
	return u.Status == StatusApproved
}

// Ref returns an id+name snapshot of the user for audit entries.
func (u *User) Ref() Ref {
	return Ref{ID: u.ID, Name: u.Name}
}

// UserUpdate carries the optional fields an admin may change.
// Nil fields are left untouched.
type UserUpdate struct {
	Status *UserStatus `json:"status,omitempty"`
	Role   *Role       `json:"role,omitempty"`
}

// IsEmpty returns true if the update names no field.
func (u UserUpdate) IsEmpty() bool {
	return u.Status == nil && u.Role == nil
}
