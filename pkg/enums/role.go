package enums

// Role is the user type carried in the identity token.
type Role string

const (
	RoleManager Role = "manager"
	RoleTenant  Role = "tenant"
)

var validRoles = set[Role]{
	RoleManager,
	RoleTenant,
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	return validRoles.has(r)
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	return validRoles.parse("role", value)
}
