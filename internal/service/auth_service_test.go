package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orga/internal/domain"
)

func TestSignup_ResolvesTenantByFirstDomainLabel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acme := env.tenant(t, "Acme", "acme")

	res, err := env.auth.Signup(ctx, SignupInput{Email: " Ana@Acme.Example.com ", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, "ana@acme.example.com", res.Email)
	require.Equal(t, domain.RoleEmployee, res.Role)
	require.NotEmpty(t, res.AccessToken)

	user, err := env.store.Users().GetByEmail(ctx, "ana@acme.example.com")
	require.NoError(t, err)
	require.Equal(t, acme.ID, user.TenantID)
	require.Equal(t, "ana", user.FullName)
}

func TestSignup_FallsBackToFullDomainThenDefault(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	full := env.tenant(t, "Beta", "beta.io")

	_, err := env.auth.Signup(ctx, SignupInput{Email: "bo@beta.io", Password: "secret123", FullName: "Bo"})
	require.NoError(t, err)
	u, err := env.store.Users().GetByEmail(ctx, "bo@beta.io")
	require.NoError(t, err)
	require.Equal(t, full.ID, u.TenantID)

	_, err = env.auth.Signup(ctx, SignupInput{Email: "x@unknown.org", Password: "secret123"})
	require.NoError(t, err)
	_, err = env.auth.Signup(ctx, SignupInput{Email: "y@other.net", Password: "secret123"})
	require.NoError(t, err)

	def, err := env.store.Tenants().GetByDomain(ctx, domain.DefaultTenantDomain)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTenantName, def.Name)
	n, err := env.store.Users().CountByTenant(ctx, def.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestSignup_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Signup(ctx, SignupInput{Email: "not-an-email", Password: "secret123"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.auth.Signup(ctx, SignupInput{Email: "a@b.com", Password: ""})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSignup_ConcurrentDuplicatesCreateOneUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.tenant(t, "Race", "race")

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.auth.Signup(ctx, SignupInput{Email: "dup@race.dev", Password: "secret123"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateEmail)
	}
	require.Equal(t, 1, ok)
	total, err := env.store.Users().Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tenant := env.tenant(t, "Acme", "acme")
	env.user(t, "boss@acme.com", domain.RoleTenantAdmin, tenant.ID)

	res, err := env.auth.Login(ctx, "BOSS@acme.com", "password123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleTenantAdmin, res.Role)

	_, err = env.auth.Login(ctx, "boss@acme.com", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "ghost@acme.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RateLimited(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.auth.limiter = NewMemoryLoginRateLimiter(time.Hour, 2)

	for i := 0; i < 2; i++ {
		_, err := env.auth.Login(ctx, "a@b.com", "nope123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := env.auth.Login(ctx, "a@b.com", "nope123")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.auth.limiter = NewMemoryLoginRateLimiter(time.Hour, 2)
	tenant := env.tenant(t, "Acme", "acme")
	env.user(t, "ana@acme.com", domain.RoleEmployee, tenant.ID)

	_, err := env.auth.Login(ctx, "ana@acme.com", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "ana@acme.com", "password123")
	require.NoError(t, err)

	// el login correcto reinicia el contador
	for i := 0; i < 2; i++ {
		_, err = env.auth.Login(ctx, "ana@acme.com", "wrong-pass")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = env.auth.Login(ctx, "ana@acme.com", "password123")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res, err := env.auth.Signup(ctx, SignupInput{Email: "r@acme.com", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := env.auth.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, res.RefreshToken, rotated.RefreshToken)

	_, err = env.auth.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.auth.Logout(ctx, rotated.RefreshToken))
	_, err = env.auth.Refresh(ctx, rotated.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.ErrorIs(t, env.auth.Logout(ctx, "garbage"), ErrInvalidCredentials)
}

func TestPrincipalAndCurrentUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tenant := env.tenant(t, "Acme", "acme")
	p := env.user(t, "me@acme.com", domain.RoleEmployee, tenant.ID)

	got, err := env.auth.Principal(ctx, "me@acme.com")
	require.NoError(t, err)
	require.Equal(t, p, got)

	me, err := env.auth.CurrentUser(ctx, got)
	require.NoError(t, err)
	require.Equal(t, Me{Email: "me@acme.com", Role: domain.RoleEmployee, TenantID: tenant.ID, TenantName: "Acme"}, me)

	_, err = env.auth.Principal(ctx, "gone@acme.com")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestDomainCandidates(t *testing.T) {
	require.Equal(t, []string{"acme", "acme.example.com"}, domainCandidates("u@acme.example.com"))
	require.Equal(t, []string{"localhost"}, domainCandidates("u@localhost"))
	require.Nil(t, domainCandidates("u@"))
	require.Nil(t, domainCandidates("nodomain"))
}
