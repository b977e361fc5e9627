package domain

import "strings"

// Role es el rol de un usuario dentro de la plataforma.
type Role string

const (
	RoleEmployee    Role = "EMPLOYEE"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleTenantAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) rank() int {
	switch r {
	case RoleEmployee:
		return 1
	case RoleTenantAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

// AtLeast indica si r tiene como minimo los privilegios de other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r.rank() >= other.rank()
}

// ParseRole normaliza y valida un rol recibido desde el exterior.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	return r, r.Valid()
}
