package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orga/internal/service"
)

// TenantAdminHandler agrupa /api/admin/tenant. Todo queda acotado al tenant del llamador.
type TenantAdminHandler struct {
	adminServ *service.TenantAdminService
}

func NewTenantAdminHandler(adminServ *service.TenantAdminService) *TenantAdminHandler {
	return &TenantAdminHandler{adminServ: adminServ}
}

// InviteUser maneja POST /api/admin/tenant/users/invite.
func (h *TenantAdminHandler) InviteUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		Role     string `json:"role" binding:"omitempty,role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "invite user", err)
		return
	}
	p, _ := GetPrincipal(c)
	res, err := h.adminServ.InviteUser(c.Request.Context(), p, service.InviteInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(c, "invite user", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *TenantAdminHandler) RemoveUser(c *gin.Context) {
	p, _ := GetPrincipal(c)
	if err := h.adminServ.RemoveUser(c.Request.Context(), p, c.Param("id")); err != nil {
		writeServiceError(c, "remove user", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TenantAdminHandler) ListUsers(c *gin.Context) {
	p, _ := GetPrincipal(c)
	users, err := h.adminServ.ListUsers(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "list tenant users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *TenantAdminHandler) UsageMetrics(c *gin.Context) {
	p, _ := GetPrincipal(c)
	usage, err := h.adminServ.UsageMetrics(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "usage metrics", err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *TenantAdminHandler) UpdateLimits(c *gin.Context) {
	var req struct {
		MaxUsers            *int   `json:"maxUsers" binding:"omitempty,gt=0"`
		MaxMessagesPerMonth *int64 `json:"maxMessagesPerMonth" binding:"omitempty,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "update limits", err)
		return
	}
	p, _ := GetPrincipal(c)
	tenant, err := h.adminServ.UpdateLimits(c.Request.Context(), p, service.LimitsUpdate{
		MaxUsers:            req.MaxUsers,
		MaxMessagesPerMonth: req.MaxMessagesPerMonth,
	})
	if err != nil {
		writeServiceError(c, "update limits", err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *TenantAdminHandler) UpdateSubscription(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required,plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "update subscription", err)
		return
	}
	p, _ := GetPrincipal(c)
	tenant, err := h.adminServ.UpdateSubscription(c.Request.Context(), p, req.Plan)
	if err != nil {
		writeServiceError(c, "update subscription", err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}
