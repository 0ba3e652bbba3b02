package enums

// UserRole distinguishes organization accounts from individual adopters.
type UserRole string

const (
	UserRoleFoundation UserRole = "foundation"
	UserRoleAdopter    UserRole = "adopter"
)

var validUserRoles = []UserRole{UserRoleFoundation, UserRoleAdopter}

// String implements fmt.Stringer.
func (r UserRole) String() string { return string(r) }

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool { return contains(validUserRoles, r) }

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, value, "user role")
}
