package http

import (
	"context"
	"net/http"
	"testing"

	"orga/internal/domain"
	"orga/internal/service"
)

func TestJWTAuthMiddleware_AllowsValidAccessToken(t *testing.T) {
	srv := newTestServer(t, nil)
	_, _, err := srv.setup.CreateTenantAdmin(context.Background(), service.SetupInput{
		Email: "boss@acme.com", Password: "secret123", TenantName: "Acme", TenantDomain: "acme",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	token := srv.login(t, "boss@acme.com", "secret123")

	rec := srv.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var me service.Me
	decode(t, rec, &me)
	if me.Email != "boss@acme.com" || me.Role != domain.RoleTenantAdmin || me.TenantName != "Acme" {
		t.Fatalf("unexpected me: %+v", me)
	}
}

func TestJWTAuthMiddleware_RejectsMissingOrInvalidToken(t *testing.T) {
	srv := newTestServer(t, nil)

	if rec := srv.do(t, http.MethodGet, "/api/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/chat/conversations", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_RejectsDeletedSubject(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()
	_, user, err := srv.setup.CreateTenantAdmin(ctx, service.SetupInput{
		Email: "gone@acme.com", Password: "secret123", TenantName: "Acme", TenantDomain: "acme",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	token := srv.login(t, "gone@acme.com", "secret123")
	if err := srv.store.Users().Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if rec := srv.do(t, http.MethodGet, "/api/auth/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted subject, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "e@acme.com", "password": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}
	var res service.AuthResult
	decode(t, rec, &res)

	if rec := srv.do(t, http.MethodGet, "/api/admin/super/tenants", res.AccessToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee on super admin route, got %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/api/admin/tenant/users", res.AccessToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee on tenant admin route, got %d", rec.Code)
	}
}
