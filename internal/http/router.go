package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"orga/internal/domain"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, h Handlers) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(logger), zapLoggerMiddleware(), metricsMiddleware())

	r.GET("/healthz", h.Health.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authn := JWTAuthMiddleware(h.jwtServ, h.authServ)

	auth := r.Group("/api/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", authn, h.Auth.Me)

	chat := r.Group("/chat", authn)
	chat.POST("/ask", h.Chat.Ask)
	chat.POST("/conversations", h.Chat.CreateConversation)
	chat.GET("/conversations", h.Chat.ListConversations)
	chat.GET("/conversations/:id", h.Chat.GetConversation)
	chat.DELETE("/conversations/:id", h.Chat.DeleteConversation)

	super := r.Group("/api/admin/super", authn, RequireRole(domain.RoleSuperAdmin))
	super.POST("/tenants", h.SuperAdmin.CreateTenant)
	super.GET("/tenants", h.SuperAdmin.ListTenants)
	super.PUT("/tenants/:id", h.SuperAdmin.UpdateTenant)
	super.DELETE("/tenants/:id", h.SuperAdmin.DeleteTenant)
	super.POST("/tenants/:id/admin", h.SuperAdmin.CreateTenantAdmin)
	super.GET("/metrics", h.SuperAdmin.Metrics)
	super.GET("/users", h.SuperAdmin.ListUsers)
	super.POST("/users", h.SuperAdmin.CreateUser)
	super.PUT("/users/:id/assign-tenant", h.SuperAdmin.AssignTenant)

	tenant := r.Group("/api/admin/tenant", authn, RequireRole(domain.RoleTenantAdmin))
	tenant.POST("/users/invite", h.TenantAdmin.InviteUser)
	tenant.GET("/users", h.TenantAdmin.ListUsers)
	tenant.DELETE("/users/:id", h.TenantAdmin.RemoveUser)
	tenant.GET("/usage/metrics", h.TenantAdmin.UsageMetrics)
	tenant.PUT("/limits", h.TenantAdmin.UpdateLimits)
	tenant.PUT("/subscription", h.TenantAdmin.UpdateSubscription)

	return r
}
