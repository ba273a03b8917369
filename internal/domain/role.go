package domain

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Roles lists all assignable role names.
var Roles = []string{RoleAdmin, RoleUser}
