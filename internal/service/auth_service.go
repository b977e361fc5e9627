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
	"orga/internal/metrics"
	"orga/internal/repository"
)

// AuthService coordina registro, login y resolucion de identidad.
type AuthService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	tenants repository.TenantRepository
	jwt     *JWTService
	limiter LoginRateLimiter
	now     func() time.Time
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, tenants repository.TenantRepository, jwtServ *JWTService, limiter LoginRateLimiter) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewMemoryLoginRateLimiter(time.Minute, 5)
	}
	return &AuthService{
		logger:  logger,
		users:   users,
		tenants: tenants,
		jwt:     jwtServ,
		limiter: limiter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// AuthResult es la respuesta de signup, login y refresh.
type AuthResult struct {
	TokenPair
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Me describe al usuario autenticado junto con su tenant.
type Me struct {
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	TenantID   string      `json:"tenantId"`
	TenantName string      `json:"tenantName"`
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		return AuthResult{}, validationError("invalid email")
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if exists {
		return AuthResult{}, ErrDuplicateEmail
	}
	hash, err := hashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	tenant, err := s.ResolveTenantForEmail(ctx, email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("resolve tenant: %w", err)
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fullName = domain.DefaultFullName(email)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         domain.RoleEmployee,
		TenantID:     tenant.ID,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Dos signups concurrentes pasan el pre-check; la restriccion unica decide.
		if errors.Is(err, repository.ErrConflict) {
			return AuthResult{}, ErrDuplicateEmail
		}
		return AuthResult{}, err
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("tenant_id", tenant.ID))

	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	if !s.limiter.Allow(ctx, email) {
		metrics.LoginRateLimitRejectionsTotal.Inc()
		return AuthResult{}, ErrRateLimited
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	s.limiter.Reset(ctx, email)
	return s.issue(ctx, user)
}

// Refresh rota el par de tokens; el rol y tenant se releen del store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := s.jwt.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.jwt.RevokeRefresh(ctx, refreshToken); err != nil {
		if errors.Is(err, ErrJWTInvalid) || errors.Is(err, ErrJWTExpired) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// Principal resuelve la identidad vigente del subject de un token.
func (s *AuthService) Principal(ctx context.Context, email string) (domain.Principal, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.Principal{}, notFound(err, "user")
	}
	return domain.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, p domain.Principal) (Me, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return Me{}, notFound(err, "user")
	}
	tenant, err := s.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return Me{}, notFound(err, "tenant")
	}
	return Me{
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
	}, nil
}

// ResolveTenantForEmail busca el tenant por la primera etiqueta del dominio
// (acme.example.com -> acme), luego por el dominio completo, y si no hay
// coincidencia usa el tenant "default", creandolo si hace falta.
func (s *AuthService) ResolveTenantForEmail(ctx context.Context, email string) (domain.Tenant, error) {
	for _, candidate := range domainCandidates(email) {
		tenant, err := s.tenants.GetByDomain(ctx, candidate)
		if err == nil {
			return tenant, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.Tenant{}, err
		}
	}
	return s.ensureDefaultTenant(ctx)
}

func (s *AuthService) ensureDefaultTenant(ctx context.Context) (domain.Tenant, error) {
	tenant := domain.NewTenant(uuid.NewString(), domain.DefaultTenantName, domain.DefaultTenantDomain, s.now())
	return s.tenants.Ensure(ctx, tenant)
}

func (s *AuthService) issue(ctx context.Context, user domain.User) (AuthResult, error) {
	pair, err := s.jwt.GeneratePair(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{TokenPair: pair, Email: user.Email, Role: user.Role}, nil
}

func domainCandidates(email string) []string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return nil
	}
	full := email[at+1:]
	first, _, _ := strings.Cut(full, ".")
	if first == "" || first == full {
		return []string{full}
	}
	return []string{first, full}
}
