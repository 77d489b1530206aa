package auth

import (
	"sort"
	"time"

	"campus.org/internal/resource"
)

// Account is a person who can authenticate: staff, teacher or student.
// The password hash never leaves this package's boundary in any serialized
// form. Deactivation flips Active; open sessions end on their next refresh.
type Account struct {
	resource.Meta
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	FirstName    string
	LastName     string
	Mobile       string
	BirthDate    *time.Time
	Address      string
}

// Role is a named, explicit permission set. Token claims snapshot it at
// issuance time; changing a role does not rewrite tokens already in flight.
type Role struct {
	Name        string
	Permissions map[string]struct{}
}

// NewRole builds a role from a permission list.
func NewRole(name string, perms ...string) Role {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return Role{Name: name, Permissions: set}
}

// Has reports whether the role grants perm.
func (r Role) Has(perm string) bool {
	_, ok := r.Permissions[perm]
	return ok
}

// PermissionList returns the granted permission names, sorted.
func (r Role) PermissionList() []string {
	out := make([]string, 0, len(r.Permissions))
	for p := range r.Permissions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Principal is the authenticated caller as seen by request handlers: the
// decoded access-token claims, nothing more.
type Principal struct {
	AccountID   string
	Role        string
	Permissions []string
}

// HasPermission reports whether the principal's claims grant perm.
func (p Principal) HasPermission(perm string) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}
