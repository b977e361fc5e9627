package domain

import (
	"strings"
	"time"
)

// Plan es el plan de suscripcion de un tenant.
type Plan string

const (
	PlanBasic      Plan = "BASIC"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

func ParsePlan(raw string) (Plan, bool) {
	p := Plan(strings.ToUpper(strings.TrimSpace(raw)))
	return p, p.Valid()
}

const (
	DefaultMaxUsers            = 10
	DefaultMaxMessagesPerMonth = 1000

	// DefaultTenantDomain identifica al tenant de respaldo para registros sin dominio conocido.
	DefaultTenantDomain = "default"
	DefaultTenantName   = "Default Organization"

	// PlatformTenantDomain no es un host valido, asi que ningun email resuelve a el.
	PlatformTenantDomain = "_platform"
	PlatformTenantName   = "Platform"
)

// IsReservedTenant indica si el nombre o el dominio pertenecen a un tenant que crea el sistema.
func IsReservedTenant(name, domain string) bool {
	for _, r := range [][2]string{
		{DefaultTenantName, DefaultTenantDomain},
		{PlatformTenantName, PlatformTenantDomain},
	} {
		if strings.EqualFold(strings.TrimSpace(name), r[0]) || strings.EqualFold(strings.TrimSpace(domain), r[1]) {
			return true
		}
	}
	return false
}

type Tenant struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Domain              string    `json:"domain"`
	CreatedAt           time.Time `json:"createdAt"`
	IsActive            bool      `json:"isActive"`
	SubscriptionPlan    Plan      `json:"subscriptionPlan"`
	MaxUsers            int       `json:"maxUsers"`
	MaxMessagesPerMonth int64     `json:"maxMessagesPerMonth"`
}

// NewTenant arma un tenant con los limites por defecto.
func NewTenant(id, name, domain string, now time.Time) Tenant {
	return Tenant{
		ID:                  id,
		Name:                name,
		Domain:              domain,
		CreatedAt:           now,
		IsActive:            true,
		SubscriptionPlan:    PlanBasic,
		MaxUsers:            DefaultMaxUsers,
		MaxMessagesPerMonth: DefaultMaxMessagesPerMonth,
	}
}
