package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orga/internal/service"
)

// Pinger es satisfecho por *pgxpool.Pool; nil cuando se usa el store en memoria.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers agrupa los handlers y las dependencias que necesita el router.
type Handlers struct {
	Auth        *AuthHandler
	Chat        *ChatHandler
	SuperAdmin  *SuperAdminHandler
	TenantAdmin *TenantAdminHandler
	Health      *HealthHandler

	authServ *service.AuthService
	jwtServ  *service.JWTService
}

// Services son los servicios de dominio ya construidos en main.
type Services struct {
	Auth        *service.AuthService
	JWT         *service.JWTService
	Chat        *service.ChatService
	SuperAdmin  *service.SuperAdminService
	TenantAdmin *service.TenantAdminService
}

func NewHandlers(logger *zap.Logger, svcs Services, db Pinger) Handlers {
	return Handlers{
		Auth:        NewAuthHandler(svcs.Auth),
		Chat:        NewChatHandler(svcs.Chat),
		SuperAdmin:  NewSuperAdminHandler(svcs.SuperAdmin),
		TenantAdmin: NewTenantAdminHandler(svcs.TenantAdmin),
		Health:      &HealthHandler{logger: logger, db: db},
		authServ:    svcs.Auth,
		jwtServ:     svcs.JWT,
	}
}

type HealthHandler struct {
	logger *zap.Logger
	db     Pinger
}

// Healthz maneja GET /healthz; con Postgres configurado hace un ping acotado.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "memory"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "postgres"})
}
