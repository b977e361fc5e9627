package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"orga/internal/domain"
)

func superAdmin(t *testing.T, env *testEnv) domain.Principal {
	t.Helper()
	platform := env.tenant(t, domain.PlatformTenantName, domain.PlatformTenantDomain)
	return env.user(t, "root@platform.io", domain.RoleSuperAdmin, platform.ID)
}

func TestSuperAdmin_RequiresRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tenant := env.tenant(t, "Acme", "acme")
	admin := env.user(t, "boss@acme.com", domain.RoleTenantAdmin, tenant.ID)

	_, err := env.super.ListTenants(ctx, admin)
	require.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.super.CreateTenant(ctx, admin, CreateTenantInput{Name: "X", Domain: "x"})
	require.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.super.Metrics(ctx, admin)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestSuperAdmin_TenantLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := superAdmin(t, env)

	tenant, err := env.super.CreateTenant(ctx, root, CreateTenantInput{Name: "Acme", Domain: " ACME "})
	require.NoError(t, err)
	require.Equal(t, "acme", tenant.Domain)
	require.Equal(t, domain.PlanBasic, tenant.SubscriptionPlan)
	require.True(t, tenant.IsActive)

	_, err = env.super.CreateTenant(ctx, root, CreateTenantInput{Name: "Acme 2", Domain: "acme"})
	require.ErrorIs(t, err, ErrDuplicateDomain)
	_, err = env.super.CreateTenant(ctx, root, CreateTenantInput{Name: "", Domain: "y"})
	require.ErrorIs(t, err, ErrValidation)

	inactive := false
	plan := "pro"
	maxUsers := 3
	updated, err := env.super.UpdateTenant(ctx, root, tenant.ID, TenantUpdate{IsActive: &inactive, SubscriptionPlan: &plan, MaxUsers: &maxUsers})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, domain.PlanPro, updated.SubscriptionPlan)
	require.Equal(t, 3, updated.MaxUsers)
	require.Equal(t, "acme", updated.Domain)

	bad := "GOLD"
	_, err = env.super.UpdateTenant(ctx, root, tenant.ID, TenantUpdate{SubscriptionPlan: &bad})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.super.UpdateTenant(ctx, root, "missing", TenantUpdate{})
	require.ErrorIs(t, err, ErrNotFound)

	m, err := env.super.Metrics(ctx, root)
	require.NoError(t, err)
	require.Equal(t, PlatformMetrics{TotalTenants: 2, ActiveTenants: 1, TotalUsers: 1}, m)
}

func TestSuperAdmin_SystemTenantsAreReserved(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := superAdmin(t, env)

	for _, in := range []CreateTenantInput{
		{Name: domain.DefaultTenantName, Domain: "dorg"},
		{Name: "Fallback", Domain: domain.DefaultTenantDomain},
		{Name: "platform", Domain: "plat"},
		{Name: "Ops", Domain: domain.PlatformTenantDomain},
	} {
		_, err := env.super.CreateTenant(ctx, root, in)
		require.ErrorIs(t, err, ErrDuplicateDomain, "%+v", in)
	}

	acme, err := env.super.CreateTenant(ctx, root, CreateTenantInput{Name: "Acme", Domain: "acme"})
	require.NoError(t, err)
	reserved := domain.DefaultTenantName
	_, err = env.super.UpdateTenant(ctx, root, acme.ID, TenantUpdate{Name: &reserved})
	require.ErrorIs(t, err, ErrValidation)

	// el registro sin dominio conocido sigue cayendo en el tenant por defecto
	res, err := env.auth.Signup(ctx, SignupInput{Email: "bob@unknown.com", Password: "password123"})
	require.NoError(t, err)
	user, err := env.store.Users().GetByEmail(ctx, res.Email)
	require.NoError(t, err)
	tenant, err := env.store.Tenants().GetByID(ctx, user.TenantID)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTenantDomain, tenant.Domain)
}

func TestSuperAdmin_DeleteTenantCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := superAdmin(t, env)
	tenant := env.tenant(t, "Acme", "acme")
	p := env.user(t, "u@acme.com", domain.RoleEmployee, tenant.ID)
	res, err := env.chat.Ask(ctx, p, AskInput{Message: "Hello"})
	require.NoError(t, err)

	require.ErrorIs(t, env.super.DeleteTenant(ctx, root, root.TenantID), ErrValidation)
	require.NoError(t, env.super.DeleteTenant(ctx, root, tenant.ID))
	require.ErrorIs(t, env.super.DeleteTenant(ctx, root, tenant.ID), ErrNotFound)

	_, err = env.store.Users().GetByID(ctx, p.UserID)
	require.Error(t, err)
	msgs, err := env.store.Messages().ListByConversation(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestSuperAdmin_Users(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	root := superAdmin(t, env)
	acme := env.tenant(t, "Acme", "acme")
	beta := env.tenant(t, "Beta", "beta")

	admin, err := env.super.CreateTenantAdmin(ctx, root, acme.ID, "Boss@Acme.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleTenantAdmin, admin.Role)
	_, err = env.super.CreateTenantAdmin(ctx, root, acme.ID, "boss@acme.com", "secret123")
	require.ErrorIs(t, err, ErrDuplicateEmail)
	_, err = env.super.CreateTenantAdmin(ctx, root, "missing", "x@acme.com", "secret123")
	require.ErrorIs(t, err, ErrNotFound)

	emp, err := env.super.CreateUser(ctx, root, CreateUserInput{Email: "e@acme.com", Password: "secret123", TenantID: acme.ID})
	require.NoError(t, err)
	require.Equal(t, domain.RoleEmployee, emp.Role)
	_, err = env.super.CreateUser(ctx, root, CreateUserInput{Email: "s@acme.com", Password: "secret123", TenantID: acme.ID, Role: "SUPER_ADMIN"})
	require.ErrorIs(t, err, ErrValidation)

	moved, tenant, err := env.super.AssignUserToTenant(ctx, root, emp.ID, beta.ID)
	require.NoError(t, err)
	require.Equal(t, beta.ID, moved.TenantID)
	require.Equal(t, "Beta", tenant.Name)
	_, _, err = env.super.AssignUserToTenant(ctx, root, root.UserID, beta.ID)
	require.ErrorIs(t, err, ErrProtectedUser)

	users, err := env.super.ListUsers(ctx, root)
	require.NoError(t, err)
	require.Len(t, users, 3)
	byEmail := map[string]UserWithTenant{}
	for _, u := range users {
		byEmail[u.Email] = u
	}
	require.Equal(t, "Beta", byEmail["e@acme.com"].TenantName)
	require.Equal(t, "Platform", byEmail["root@platform.io"].TenantName)
}

func TestTenantAdmin_InviteUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tenant := env.tenant(t, "Acme", "acme")
	admin := env.user(t, "boss@acme.com", domain.RoleTenantAdmin, tenant.ID)

	res, err := env.admin.InviteUser(ctx, admin, InviteInput{Email: "new@acme.com", FullName: "New Person"})
	require.NoError(t, err)
	require.True(t, res.InvitationSent)
	require.Equal(t, tenant.ID, res.User.TenantID)
	require.Equal(t, domain.RoleEmployee, res.User.Role)

	require.Len(t, env.mailer.sent, 1)
	inv := env.mailer.sent[0]
	require.Equal(t, "new@acme.com", inv.ToEmail)
	require.Equal(t, "Acme", inv.TenantName)
	require.NotEmpty(t, inv.TemporaryPassword)
	require.True(t, checkPassword(res.User.PasswordHash, inv.TemporaryPassword))

	_, err = env.admin.InviteUser(ctx, admin, InviteInput{Email: "new@acme.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	_, err = env.admin.InviteUser(ctx, admin, InviteInput{Email: "x@acme.com", Role: "SUPER_ADMIN"})
	require.ErrorIs(t, err, ErrValidation)

	env.mailer.err = errors.New("smtp down")
	res, err = env.admin.InviteUser(ctx, admin, InviteInput{Email: "co@acme.com", Password: "secret123", Role: "tenant_admin"})
	require.NoError(t, err)
	require.False(t, res.InvitationSent)
	require.Equal(t, domain.RoleTenantAdmin, res.User.Role)
}

func TestTenantAdmin_InviteRespectsUserLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tenant := env.tenant(t, "Acme", "acme")
	admin := env.user(t, "boss@acme.com", domain.RoleTenantAdmin, tenant.ID)
	other := env.tenant(t, "Other", "other")
	env.user(t, "a@other.com", domain.RoleEmployee, other.ID)
	env.user(t, "b@other.com", domain.RoleEmployee, other.ID)

	maxUsers := 2
	_, err := env.admin.UpdateLimits(ctx, admin, LimitsUpdate{MaxUsers: &maxUsers})
	require.NoError(t, err)

	_, err = env.admin.InviteUser(ctx, admin, InviteInput{Email: "one@acme.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = env.admin.InviteUser(ctx, admin, InviteInput{Email: "two@acme.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrUserLimitReached)
}

func TestTenantAdmin_ScopedToOwnTenant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acme := env.tenant(t, "Acme", "acme")
	beta := env.tenant(t, "Beta", "beta")
	admin := env.user(t, "boss@acme.com", domain.RoleTenantAdmin, acme.ID)
	coAdmin := env.user(t, "co@acme.com", domain.RoleTenantAdmin, acme.ID)
	emp := env.user(t, "e@acme.com", domain.RoleEmployee, acme.ID)
	outsider := env.user(t, "e@beta.com", domain.RoleEmployee, beta.ID)

	require.ErrorIs(t, env.admin.RemoveUser(ctx, admin, outsider.UserID), ErrNotFound)
	require.ErrorIs(t, env.admin.RemoveUser(ctx, admin, coAdmin.UserID), ErrProtectedUser)
	require.NoError(t, env.admin.RemoveUser(ctx, admin, emp.UserID))

	users, err := env.admin.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		require.NotEqual(t, outsider.UserID, u.ID)
	}

	_, err = env.admin.ListUsers(ctx, outsider)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestTenantAdmin_UsageAndPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tenant := env.tenant(t, "Acme", "acme")
	admin := env.user(t, "boss@acme.com", domain.RoleTenantAdmin, tenant.ID)
	emp := env.user(t, "e@acme.com", domain.RoleEmployee, tenant.ID)

	_, err := env.chat.Ask(ctx, emp, AskInput{Message: "Hello"})
	require.NoError(t, err)

	usage, err := env.admin.UsageMetrics(ctx, admin)
	require.NoError(t, err)
	require.EqualValues(t, 2, usage.MessagesThisMonth)
	require.EqualValues(t, 2, usage.CurrentUsers)
	require.Equal(t, domain.DefaultMaxUsers, usage.MaxUsers)

	users, err := env.admin.ListUsers(ctx, admin)
	require.NoError(t, err)
	for _, u := range users {
		if u.ID == emp.UserID {
			require.EqualValues(t, 2, u.MessagesUsed)
		} else {
			require.Zero(t, u.MessagesUsed)
		}
	}

	updated, err := env.admin.UpdateSubscription(ctx, admin, "enterprise")
	require.NoError(t, err)
	require.Equal(t, domain.PlanEnterprise, updated.SubscriptionPlan)
	_, err = env.admin.UpdateSubscription(ctx, admin, "free")
	require.ErrorIs(t, err, ErrValidation)

	zero := int64(0)
	_, err = env.admin.UpdateLimits(ctx, admin, LimitsUpdate{MaxMessagesPerMonth: &zero})
	require.ErrorIs(t, err, ErrValidation)
}
