package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"orga/internal/domain"
	"orga/internal/email"
	"orga/internal/metrics"
	"orga/internal/repository"
)

// TenantAdminService opera sobre el tenant del administrador que llama.
// Cada lectura y escritura queda acotada a p.TenantID.
type TenantAdminService struct {
	logger  *zap.Logger
	tenants repository.TenantRepository
	users   repository.UserRepository
	usage   *UsageService
	mailer  email.Sender
	now     func() time.Time
}

func NewTenantAdminService(logger *zap.Logger, tenants repository.TenantRepository, users repository.UserRepository, usage *UsageService, mailer email.Sender) *TenantAdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = email.NewDisabledSender("")
	}
	return &TenantAdminService{
		logger:  logger,
		tenants: tenants,
		users:   users,
		usage:   usage,
		mailer:  mailer,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type InviteInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

type InviteResult struct {
	User           domain.User `json:"user"`
	InvitationSent bool        `json:"invitationSent"`
}

type TenantUser struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"fullName"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
	MessagesUsed int64       `json:"messagesUsed"`
}

type TenantUsage struct {
	MessagesThisMonth   int64       `json:"messagesThisMonth"`
	MaxMessagesPerMonth int64       `json:"maxMessagesPerMonth"`
	CurrentUsers        int64       `json:"currentUsers"`
	MaxUsers            int         `json:"maxUsers"`
	SubscriptionPlan    domain.Plan `json:"subscriptionPlan"`
}

type LimitsUpdate struct {
	MaxUsers            *int   `json:"maxUsers"`
	MaxMessagesPerMonth *int64 `json:"maxMessagesPerMonth"`
}

func (s *TenantAdminService) tenantOf(ctx context.Context, p domain.Principal) (domain.Tenant, error) {
	if err := requireRole(p, domain.RoleTenantAdmin); err != nil {
		return domain.Tenant{}, err
	}
	tenant, err := s.tenants.GetByID(ctx, p.TenantID)
	if err != nil {
		return domain.Tenant{}, notFound(err, "tenant")
	}
	return tenant, nil
}

// InviteUser crea un usuario en el tenant del llamador. Sin password se genera una
// temporal que solo viaja en el correo de invitacion.
func (s *TenantAdminService) InviteUser(ctx context.Context, p domain.Principal, input InviteInput) (InviteResult, error) {
	tenant, err := s.tenantOf(ctx, p)
	if err != nil {
		return InviteResult{}, err
	}
	ok, err := s.usage.WithinUserLimit(ctx, tenant)
	if err != nil {
		return InviteResult{}, err
	}
	if !ok {
		metrics.UsageLimitRejectionsTotal.WithLabelValues("users").Inc()
		return InviteResult{}, fmt.Errorf("%w: max users %d", ErrUserLimitReached, tenant.MaxUsers)
	}
	role, err := assignableRole(input.Role)
	if err != nil {
		return InviteResult{}, err
	}

	password := input.Password
	generated := strings.TrimSpace(password) == ""
	if generated {
		if password, err = generateTempPassword(); err != nil {
			return InviteResult{}, err
		}
	}
	user, err := buildUser(input.Email, password, input.FullName, role, tenant.ID, s.now())
	if err != nil {
		return InviteResult{}, err
	}
	if err := createUniqueUser(ctx, s.users, user); err != nil {
		return InviteResult{}, err
	}

	inv := email.Invitation{ToEmail: user.Email, FullName: user.FullName, TenantName: tenant.Name}
	if generated {
		inv.TemporaryPassword = password
	}
	sent := true
	if err := s.mailer.SendInvitation(ctx, inv); err != nil {
		sent = false
		s.logger.Warn("invitation email not sent", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("user invited", zap.String("user_id", user.ID), zap.String("tenant_id", tenant.ID), zap.String("role", string(role)))
	return InviteResult{User: user, InvitationSent: sent}, nil
}

// RemoveUser borra un usuario del tenant; los administradores no se pueden borrar por aca.
func (s *TenantAdminService) RemoveUser(ctx context.Context, p domain.Principal, userID string) error {
	if _, err := s.tenantOf(ctx, p); err != nil {
		return err
	}
	user, err := s.users.GetByIDInTenant(ctx, userID, p.TenantID)
	if err != nil {
		return notFound(err, "user")
	}
	if user.Role != domain.RoleEmployee {
		return fmt.Errorf("%w: cannot remove %s", ErrProtectedUser, strings.ToLower(string(user.Role)))
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return notFound(err, "user")
	}
	return nil
}

func (s *TenantAdminService) ListUsers(ctx context.Context, p domain.Principal) ([]TenantUser, error) {
	if _, err := s.tenantOf(ctx, p); err != nil {
		return nil, err
	}
	users, err := s.users.ListByTenant(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	counts, err := s.usage.UserMessageCounts(ctx, p.TenantID, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]TenantUser, 0, len(users))
	for _, u := range users {
		out = append(out, TenantUser{
			ID:           u.ID,
			Email:        u.Email,
			FullName:     u.FullName,
			Role:         u.Role,
			CreatedAt:    u.CreatedAt,
			MessagesUsed: counts[u.ID],
		})
	}
	return out, nil
}

func (s *TenantAdminService) UsageMetrics(ctx context.Context, p domain.Principal) (TenantUsage, error) {
	tenant, err := s.tenantOf(ctx, p)
	if err != nil {
		return TenantUsage{}, err
	}
	messages, err := s.usage.MonthlyMessageCount(ctx, tenant.ID, s.now())
	if err != nil {
		return TenantUsage{}, err
	}
	users, err := s.users.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return TenantUsage{}, err
	}
	return TenantUsage{
		MessagesThisMonth:   messages,
		MaxMessagesPerMonth: tenant.MaxMessagesPerMonth,
		CurrentUsers:        users,
		MaxUsers:            tenant.MaxUsers,
		SubscriptionPlan:    tenant.SubscriptionPlan,
	}, nil
}

func (s *TenantAdminService) UpdateLimits(ctx context.Context, p domain.Principal, update LimitsUpdate) (domain.Tenant, error) {
	tenant, err := s.tenantOf(ctx, p)
	if err != nil {
		return domain.Tenant{}, err
	}
	if err := applyLimits(&tenant, update.MaxUsers, update.MaxMessagesPerMonth); err != nil {
		return domain.Tenant{}, err
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return domain.Tenant{}, notFound(err, "tenant")
	}
	return tenant, nil
}

func (s *TenantAdminService) UpdateSubscription(ctx context.Context, p domain.Principal, rawPlan string) (domain.Tenant, error) {
	tenant, err := s.tenantOf(ctx, p)
	if err != nil {
		return domain.Tenant{}, err
	}
	plan, ok := domain.ParsePlan(rawPlan)
	if !ok {
		return domain.Tenant{}, validationError("invalid subscription plan")
	}
	tenant.SubscriptionPlan = plan
	if err := s.tenants.Update(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Tenant{}, ErrNotFound
		}
		return domain.Tenant{}, err
	}
	return tenant, nil
}
