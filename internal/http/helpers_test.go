package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"orga/internal/chatbot"
	"orga/internal/email"
	"orga/internal/repository"
	"orga/internal/service"
)

type noopMailer struct{}

func (noopMailer) SendInvitation(context.Context, email.Invitation) error { return nil }

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
	setup  *service.SetupService
	jwt    *service.JWTService
}

func newTestServer(t *testing.T, bot chatbot.Client) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	jwtServ := service.NewJWTService("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())
	usage := service.NewUsageService(store.Messages(), store.Users(), time.UTC)
	authServ := service.NewAuthService(nil, store.Users(), store.Tenants(), jwtServ, service.NewMemoryLoginRateLimiter(time.Minute, 50))

	h := NewHandlers(nil, Services{
		Auth:        authServ,
		JWT:         jwtServ,
		Chat:        service.NewChatService(nil, store.Tenants(), store.Conversations(), store.Messages(), usage, bot),
		SuperAdmin:  service.NewSuperAdminService(nil, store.Tenants(), store.Users()),
		TenantAdmin: service.NewTenantAdminService(nil, store.Tenants(), store.Users(), usage, noopMailer{}),
	}, nil)

	return &testServer{
		router: NewRouter(nil, h),
		store:  store,
		setup:  service.NewSetupService(nil, store.Provisioner(), store.Users()),
		jwt:    jwtServ,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// login devuelve el access token de un usuario existente.
func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var res service.AuthResult
	decode(t, rec, &res)
	return res.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
