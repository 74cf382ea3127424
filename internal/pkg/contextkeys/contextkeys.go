// Package contextkeys names the gin context values set by the auth middleware
// and read by handlers outside the middleware package.
package contextkeys

const (
	UserID   = "userID"
	Email    = "email"
	RoleType = "roleType"
)
