package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orga/internal/domain"
	"orga/internal/repository"
)

// SetupService da de alta administradores iniciales fuera de la API HTTP.
type SetupService struct {
	logger      *zap.Logger
	provisioner repository.Provisioner
	users       repository.UserRepository
	now         func() time.Time
}

func NewSetupService(logger *zap.Logger, provisioner repository.Provisioner, users repository.UserRepository) *SetupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetupService{
		logger:      logger,
		provisioner: provisioner,
		users:       users,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type SetupInput struct {
	Email        string
	Password     string
	FullName     string
	TenantName   string
	TenantDomain string
}

// CreateSuperAdmin crea un SUPER_ADMIN en el tenant indicado ("_platform" por defecto).
func (s *SetupService) CreateSuperAdmin(ctx context.Context, input SetupInput) (domain.Tenant, domain.User, error) {
	if strings.TrimSpace(input.TenantName) == "" {
		input.TenantName = domain.PlatformTenantName
	}
	if strings.TrimSpace(input.TenantDomain) == "" {
		input.TenantDomain = domain.PlatformTenantDomain
	}
	return s.provision(ctx, input, domain.RoleSuperAdmin)
}

// CreateTenantAdmin crea un TENANT_ADMIN; el tenant se crea si su dominio no existe.
func (s *SetupService) CreateTenantAdmin(ctx context.Context, input SetupInput) (domain.Tenant, domain.User, error) {
	if strings.TrimSpace(input.TenantName) == "" || strings.TrimSpace(input.TenantDomain) == "" {
		return domain.Tenant{}, domain.User{}, validationError("tenant name and domain are required")
	}
	return s.provision(ctx, input, domain.RoleTenantAdmin)
}

func (s *SetupService) provision(ctx context.Context, input SetupInput, role domain.Role) (domain.Tenant, domain.User, error) {
	now := s.now()
	user, err := buildUser(input.Email, input.Password, input.FullName, role, "", now)
	if err != nil {
		return domain.Tenant{}, domain.User{}, err
	}
	exists, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return domain.Tenant{}, domain.User{}, err
	}
	if exists {
		return domain.Tenant{}, domain.User{}, ErrDuplicateEmail
	}

	tenant := domain.NewTenant(uuid.NewString(), strings.TrimSpace(input.TenantName), strings.ToLower(strings.TrimSpace(input.TenantDomain)), now)
	tenant, user, err = s.provisioner.ProvisionAdmin(ctx, tenant, user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Tenant{}, domain.User{}, ErrDuplicateEmail
		}
		return domain.Tenant{}, domain.User{}, err
	}
	s.logger.Info("admin provisioned",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)),
		zap.String("tenant_id", tenant.ID),
	)
	return tenant, user, nil
}
