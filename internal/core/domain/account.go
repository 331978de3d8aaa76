package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Role is a named privilege tier attached to an account.
type Role string

const (
	RoleUser          Role = "USER"
	RoleModerator     Role = "MODERATOR"
	RoleAdministrator Role = "ADMINISTRATOR"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountExists = errors.New("account already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUnknownRole = errors.New("unknown role")
var ErrForbidden = errors.New("access forbidden")
var ErrTooManyAttempts = errors.New("too many login attempts")

// ParseRole normalizes a role name and reports whether it belongs to the
// closed enumeration.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleModerator:
		return RoleModerator, true
	case RoleAdministrator:
		return RoleAdministrator, true
	}
	return "", false
}

// RoleSet is an unordered set of roles. The empty set is valid: an account
// without roles carries default privileges only.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	rs := make(RoleSet, len(roles))
	for _, r := range roles {
		rs[r] = struct{}{}
	}
	return rs
}

func (rs RoleSet) Has(r Role) bool {
	_, ok := rs[r]
	return ok
}

// Add inserts r and reports whether the set changed.
func (rs RoleSet) Add(r Role) bool {
	if rs.Has(r) {
		return false
	}
	rs[r] = struct{}{}
	return true
}

// Remove deletes r and reports whether the set changed. Removing an absent
// role is not an error.
func (rs RoleSet) Remove(r Role) bool {
	if !rs.Has(r) {
		return false
	}
	delete(rs, r)
	return true
}

// Names returns the role names sorted for stable output.
func (rs RoleSet) Names() []string {
	names := make([]string, 0, len(rs))
	for r := range rs {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return names
}

// Account is a persisted identity record keyed by login. The password hash
// never leaves the service layer; transport views are built from the other
// fields only.
type Account struct {
	Login        string
	PasswordHash string
	FirstName    string
	LastName     string
	Roles        RoleSet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
