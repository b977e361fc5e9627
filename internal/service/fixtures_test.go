package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"orga/internal/chatbot"
	"orga/internal/domain"
	"orga/internal/email"
	"orga/internal/repository"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Invitation
	err  error
}

func (m *fakeMailer) SendInvitation(_ context.Context, inv email.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, inv)
	return nil
}

type testEnv struct {
	store  *repository.MemoryStore
	auth   *AuthService
	usage  *UsageService
	super  *SuperAdminService
	admin  *TenantAdminService
	setup  *SetupService
	chat   *ChatService
	bot    *chatbot.MockClient
	mailer *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	jwtServ := NewJWTService("test-secret", time.Minute, time.Hour, nil)
	usage := NewUsageService(store.Messages(), store.Users(), time.UTC)
	bot := &chatbot.MockClient{Reply: "Hi there"}
	mailer := &fakeMailer{}
	return &testEnv{
		store:  store,
		auth:   NewAuthService(nil, store.Users(), store.Tenants(), jwtServ, NewMemoryLoginRateLimiter(time.Minute, 100)),
		usage:  usage,
		super:  NewSuperAdminService(nil, store.Tenants(), store.Users()),
		admin:  NewTenantAdminService(nil, store.Tenants(), store.Users(), usage, mailer),
		setup:  NewSetupService(nil, store.Provisioner(), store.Users()),
		chat:   NewChatService(nil, store.Tenants(), store.Conversations(), store.Messages(), usage, bot),
		bot:    bot,
		mailer: mailer,
	}
}

func (e *testEnv) tenant(t *testing.T, name, domainName string) domain.Tenant {
	t.Helper()
	tenant := domain.NewTenant(uuid.NewString(), name, domainName, time.Now().UTC())
	require.NoError(t, e.store.Tenants().Create(context.Background(), tenant))
	return tenant
}

func (e *testEnv) user(t *testing.T, emailAddr string, role domain.Role, tenantID string) domain.Principal {
	t.Helper()
	hash, err := hashPassword("password123")
	require.NoError(t, err)
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		FullName:     domain.DefaultFullName(emailAddr),
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return domain.Principal{UserID: u.ID, Email: u.Email, Role: u.Role, TenantID: u.TenantID}
}
