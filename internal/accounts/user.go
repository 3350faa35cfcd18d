// Package accounts stores user accounts, their roles and password hashes.
package accounts

// Role is an account's permission level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleRoot  Role = "root"
)

// RootUsername is the reserved name of the bootstrap account.
const RootUsername = "root"

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleRoot:
		return true
	}
	return false
}

// CanUpload reports whether the role may upload media and trigger scans.
func (r Role) CanUpload() bool { return r == RoleAdmin || r == RoleRoot }

// CanManageUsers reports whether the role may list and toggle accounts.
func (r Role) CanManageUsers() bool { return r == RoleAdmin || r == RoleRoot }

// CanCreateAdmins reports whether the role may create accounts directly.
func (r Role) CanCreateAdmins() bool { return r == RoleRoot }

// User is an account. The password hash never leaves the package.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
	hash     string
}

// Status filters for List.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	Query  string // username substring
	Role   Role
	Status string // StatusActive or StatusDisabled
}
