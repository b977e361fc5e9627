package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orga/internal/domain"
	"orga/internal/repository"
)

// SuperAdminService agrupa las operaciones de plataforma sobre tenants y usuarios.
// Todas exigen rol SUPER_ADMIN.
type SuperAdminService struct {
	logger  *zap.Logger
	tenants repository.TenantRepository
	users   repository.UserRepository
	now     func() time.Time
}

func NewSuperAdminService(logger *zap.Logger, tenants repository.TenantRepository, users repository.UserRepository) *SuperAdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuperAdminService{
		logger:  logger,
		tenants: tenants,
		users:   users,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateTenantInput struct {
	Name   string
	Domain string
}

// TenantUpdate solo modifica los campos no nulos.
type TenantUpdate struct {
	Name                *string `json:"name"`
	IsActive            *bool   `json:"isActive"`
	MaxUsers            *int    `json:"maxUsers"`
	MaxMessagesPerMonth *int64  `json:"maxMessagesPerMonth"`
	SubscriptionPlan    *string `json:"subscriptionPlan"`
}

type PlatformMetrics struct {
	TotalTenants  int64 `json:"totalTenants"`
	ActiveTenants int64 `json:"activeTenants"`
	TotalUsers    int64 `json:"totalUsers"`
}

type UserWithTenant struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	TenantID   string      `json:"tenantId"`
	TenantName string      `json:"tenantName"`
}

type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	TenantID string
	Role     string
}

func requireRole(p domain.Principal, role domain.Role) error {
	if p.Role != role {
		return ErrAccessDenied
	}
	return nil
}

func (s *SuperAdminService) CreateTenant(ctx context.Context, p domain.Principal, input CreateTenantInput) (domain.Tenant, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return domain.Tenant{}, err
	}
	name := strings.TrimSpace(input.Name)
	domainName := strings.ToLower(strings.TrimSpace(input.Domain))
	if name == "" || domainName == "" {
		return domain.Tenant{}, validationError("name and domain are required")
	}
	if domain.IsReservedTenant(name, domainName) {
		return domain.Tenant{}, fmt.Errorf("%w: name or domain is reserved", ErrDuplicateDomain)
	}
	if _, err := s.tenants.GetByDomain(ctx, domainName); err == nil {
		return domain.Tenant{}, ErrDuplicateDomain
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Tenant{}, err
	}

	tenant := domain.NewTenant(uuid.NewString(), name, domainName, s.now())
	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Tenant{}, fmt.Errorf("%w: name or domain already registered", ErrDuplicateDomain)
		}
		return domain.Tenant{}, err
	}
	s.logger.Info("tenant created", zap.String("tenant_id", tenant.ID), zap.String("domain", domainName))
	return tenant, nil
}

func (s *SuperAdminService) ListTenants(ctx context.Context, p domain.Principal) ([]domain.Tenant, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	return s.tenants.List(ctx)
}

func (s *SuperAdminService) UpdateTenant(ctx context.Context, p domain.Principal, tenantID string, update TenantUpdate) (domain.Tenant, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return domain.Tenant{}, err
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, notFound(err, "tenant")
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return domain.Tenant{}, validationError("name must not be empty")
		}
		if name != tenant.Name && domain.IsReservedTenant(name, "") {
			return domain.Tenant{}, validationError("tenant name %q is reserved", name)
		}
		tenant.Name = name
	}
	if update.IsActive != nil {
		tenant.IsActive = *update.IsActive
	}
	if update.SubscriptionPlan != nil {
		plan, ok := domain.ParsePlan(*update.SubscriptionPlan)
		if !ok {
			return domain.Tenant{}, validationError("invalid subscription plan")
		}
		tenant.SubscriptionPlan = plan
	}
	if err := applyLimits(&tenant, update.MaxUsers, update.MaxMessagesPerMonth); err != nil {
		return domain.Tenant{}, err
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Tenant{}, validationError("tenant name already in use")
		}
		return domain.Tenant{}, notFound(err, "tenant")
	}
	return tenant, nil
}

// DeleteTenant borra el tenant con todos sus usuarios, conversaciones y mensajes.
func (s *SuperAdminService) DeleteTenant(ctx context.Context, p domain.Principal, tenantID string) error {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return err
	}
	if tenantID == p.TenantID {
		return validationError("cannot delete your own tenant")
	}
	if err := s.tenants.Delete(ctx, tenantID); err != nil {
		return notFound(err, "tenant")
	}
	s.logger.Info("tenant deleted", zap.String("tenant_id", tenantID))
	return nil
}

func (s *SuperAdminService) Metrics(ctx context.Context, p domain.Principal) (PlatformMetrics, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return PlatformMetrics{}, err
	}
	total, active, err := s.tenants.Count(ctx)
	if err != nil {
		return PlatformMetrics{}, err
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return PlatformMetrics{}, err
	}
	return PlatformMetrics{TotalTenants: total, ActiveTenants: active, TotalUsers: users}, nil
}

func (s *SuperAdminService) CreateTenantAdmin(ctx context.Context, p domain.Principal, tenantID, email, password string) (domain.User, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return domain.User{}, err
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return domain.User{}, notFound(err, "tenant")
	}
	user, err := buildUser(email, password, "", domain.RoleTenantAdmin, tenantID, s.now())
	if err != nil {
		return domain.User{}, err
	}
	if err := createUniqueUser(ctx, s.users, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("tenant admin created", zap.String("user_id", user.ID), zap.String("tenant_id", tenantID))
	return user, nil
}

func (s *SuperAdminService) AssignUserToTenant(ctx context.Context, p domain.Principal, userID, tenantID string) (domain.User, domain.Tenant, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return domain.User{}, domain.Tenant{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, domain.Tenant{}, notFound(err, "user")
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return domain.User{}, domain.Tenant{}, notFound(err, "tenant")
	}
	if user.Role == domain.RoleSuperAdmin {
		return domain.User{}, domain.Tenant{}, fmt.Errorf("%w: cannot reassign super admin", ErrProtectedUser)
	}
	if err := s.users.UpdateTenant(ctx, user.ID, tenant.ID); err != nil {
		return domain.User{}, domain.Tenant{}, notFound(err, "user")
	}
	user.TenantID = tenant.ID
	return user, tenant, nil
}

func (s *SuperAdminService) ListUsers(ctx context.Context, p domain.Principal) ([]UserWithTenant, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tenants))
	for _, t := range tenants {
		names[t.ID] = t.Name
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserWithTenant, 0, len(users))
	for _, u := range users {
		out = append(out, UserWithTenant{
			ID:         u.ID,
			Email:      u.Email,
			Role:       u.Role,
			TenantID:   u.TenantID,
			TenantName: names[u.TenantID],
		})
	}
	return out, nil
}

// CreateUser da de alta EMPLOYEE o TENANT_ADMIN en cualquier tenant; nunca SUPER_ADMIN.
func (s *SuperAdminService) CreateUser(ctx context.Context, p domain.Principal, input CreateUserInput) (domain.User, error) {
	if err := requireRole(p, domain.RoleSuperAdmin); err != nil {
		return domain.User{}, err
	}
	role, err := assignableRole(input.Role)
	if err != nil {
		return domain.User{}, err
	}
	if _, err := s.tenants.GetByID(ctx, input.TenantID); err != nil {
		return domain.User{}, notFound(err, "tenant")
	}
	user, err := buildUser(input.Email, input.Password, input.FullName, role, input.TenantID, s.now())
	if err != nil {
		return domain.User{}, err
	}
	if err := createUniqueUser(ctx, s.users, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// assignableRole acepta EMPLOYEE (por defecto) o TENANT_ADMIN.
func assignableRole(raw string) (domain.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.RoleEmployee, nil
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		return "", validationError("invalid role %q", raw)
	}
	if role == domain.RoleSuperAdmin {
		return "", validationError("cannot create super admin via this operation")
	}
	return role, nil
}

func applyLimits(tenant *domain.Tenant, maxUsers *int, maxMessages *int64) error {
	if maxUsers != nil {
		if *maxUsers <= 0 {
			return validationError("maxUsers must be positive")
		}
		tenant.MaxUsers = *maxUsers
	}
	if maxMessages != nil {
		if *maxMessages <= 0 {
			return validationError("maxMessagesPerMonth must be positive")
		}
		tenant.MaxMessagesPerMonth = *maxMessages
	}
	return nil
}

func buildUser(email, password, fullName string, role domain.Role, tenantID string, now time.Time) (domain.User, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return domain.User{}, validationError("invalid email")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = domain.DefaultFullName(email)
	}
	return domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
		CreatedAt:    now,
	}, nil
}

func createUniqueUser(ctx context.Context, users repository.UserRepository, user domain.User) error {
	exists, err := users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateEmail
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrDuplicateEmail
		}
		return notFound(err, "tenant")
	}
	return nil
}
