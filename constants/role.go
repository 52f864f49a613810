package constants

import (
	"strings"
)

type Role string

const (
	RoleApprentice Role = "aprendiz"
	RoleTechnician Role = "tecnico_almacen"
	RolePlanner    Role = "planificador"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// ordered from least to most privileged
var allRoles = []Role{
	RoleApprentice,
	RoleTechnician,
	RolePlanner,
	RoleSupervisor,
	RoleAdmin,
}

func RolesAsStringSlice() []string {
	result := make([]string, len(allRoles))
	for i, r := range allRoles {
		result[i] = string(r)
	}
	return result
}

// Rank returns the privilege level of r, or -1 for an unknown role.
func (r Role) Rank() int {
	for i, known := range allRoles {
		if r == known {
			return i
		}
	}
	return -1
}

// AtLeast reports whether r is as privileged as min.
func (r Role) AtLeast(min Role) bool {
	rank := r.Rank()
	return rank >= 0 && rank >= min.Rank()
}

func CanonicalizeRole(input string) (Role, bool) {
	if input == "" {
		return RoleApprentice, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Role{
		"tecnico":         RoleTechnician,
		"tecnico almacen": RoleTechnician,
		"almacen":         RoleTechnician,
		"planner":         RolePlanner,
		"administrador":   RoleAdmin,
		"apprentice":      RoleApprentice,
	}

	if role, ok := synonyms[normalized]; ok {
		return role, true
	}

	for _, role := range allRoles {
		if normalized == string(role) {
			return role, true
		}
	}

	return RoleApprentice, false
}
