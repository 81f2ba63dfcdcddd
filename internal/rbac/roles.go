// Package rbac defines role names and role groupings.
package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleAgent         = "Agent"
	RoleSupervisor    = "Supervisor"
	RoleAdministrator = "Administrator"
	RoleSuperAdmin    = "SuperAdmin"
)

// IsAgent reports whether any of the roles is the agent role.
func IsAgent(roles []string) bool {
	return hasRole(roles, RoleAgent)
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
