package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleUnitHead   UserRole = "UNIT_HEAD"
	RoleDoctor     UserRole = "DOCTOR"
	RoleNurse      UserRole = "NURSE"
	RoleStaff      UserRole = "STAFF"
	RoleSpecialist UserRole = "SPECIALIST"
)

// IsReviewer reports whether the role may act as a first-level swap reviewer.
func (r UserRole) IsReviewer() bool {
	return r == RoleSupervisor || r == RoleUnitHead
}

// IsClinical reports whether the role holds shift assignments of its own.
func (r UserRole) IsClinical() bool {
	switch r {
	case RoleDoctor, RoleNurse, RoleStaff, RoleSpecialist:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	UnitAccess    StringList `db:"unit_access" json:"unit_access"`
	Active        bool       `db:"active" json:"active"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// HasUnitAccess reports whether the user may be scheduled at the location.
// An empty access list means unrestricted.
func (u *User) HasUnitAccess(location string) bool {
	if len(u.UnitAccess) == 0 {
		return true
	}
	for _, unit := range u.UnitAccess {
		if EqualLocation(unit, location) {
			return true
		}
	}
	return false
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Roles    []UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// StringList stores a list of values as comma-separated text.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		*l = splitList(v)
		return nil
	case []byte:
		*l = splitList(string(v))
		return nil
	}
	return fmt.Errorf("unsupported StringList source %T", src)
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
