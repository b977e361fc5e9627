package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orga/internal/service"
)

// SuperAdminHandler agrupa /api/admin/super; RequireRole(SUPER_ADMIN) va en el router
// y el servicio vuelve a chequear el rol.
type SuperAdminHandler struct {
	superServ *service.SuperAdminService
}

func NewSuperAdminHandler(superServ *service.SuperAdminService) *SuperAdminHandler {
	return &SuperAdminHandler{superServ: superServ}
}

func (h *SuperAdminHandler) CreateTenant(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Domain string `json:"domain" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "create tenant", err)
		return
	}
	p, _ := GetPrincipal(c)
	tenant, err := h.superServ.CreateTenant(c.Request.Context(), p, service.CreateTenantInput{Name: req.Name, Domain: req.Domain})
	if err != nil {
		writeServiceError(c, "create tenant", err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (h *SuperAdminHandler) ListTenants(c *gin.Context) {
	p, _ := GetPrincipal(c)
	tenants, err := h.superServ.ListTenants(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "list tenants", err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

func (h *SuperAdminHandler) UpdateTenant(c *gin.Context) {
	var req struct {
		Name                *string `json:"name"`
		IsActive            *bool   `json:"isActive"`
		MaxUsers            *int    `json:"maxUsers" binding:"omitempty,gt=0"`
		MaxMessagesPerMonth *int64  `json:"maxMessagesPerMonth" binding:"omitempty,gt=0"`
		SubscriptionPlan    *string `json:"subscriptionPlan" binding:"omitempty,plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "update tenant", err)
		return
	}
	p, _ := GetPrincipal(c)
	tenant, err := h.superServ.UpdateTenant(c.Request.Context(), p, c.Param("id"), service.TenantUpdate{
		Name:                req.Name,
		IsActive:            req.IsActive,
		MaxUsers:            req.MaxUsers,
		MaxMessagesPerMonth: req.MaxMessagesPerMonth,
		SubscriptionPlan:    req.SubscriptionPlan,
	})
	if err != nil {
		writeServiceError(c, "update tenant", err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *SuperAdminHandler) DeleteTenant(c *gin.Context) {
	p, _ := GetPrincipal(c)
	if err := h.superServ.DeleteTenant(c.Request.Context(), p, c.Param("id")); err != nil {
		writeServiceError(c, "delete tenant", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SuperAdminHandler) Metrics(c *gin.Context) {
	p, _ := GetPrincipal(c)
	m, err := h.superServ.Metrics(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "platform metrics", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// CreateTenantAdmin maneja POST /api/admin/super/tenants/:id/admin.
func (h *SuperAdminHandler) CreateTenantAdmin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "create tenant admin", err)
		return
	}
	p, _ := GetPrincipal(c)
	user, err := h.superServ.CreateTenantAdmin(c.Request.Context(), p, c.Param("id"), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, "create tenant admin", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// AssignTenant maneja PUT /api/admin/super/users/:id/assign-tenant.
func (h *SuperAdminHandler) AssignTenant(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "assign tenant", err)
		return
	}
	p, _ := GetPrincipal(c)
	user, tenant, err := h.superServ.AssignUserToTenant(c.Request.Context(), p, c.Param("id"), req.TenantID)
	if err != nil {
		writeServiceError(c, "assign tenant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":     user.ID,
		"email":      user.Email,
		"tenantId":   tenant.ID,
		"tenantName": tenant.Name,
	})
}

func (h *SuperAdminHandler) ListUsers(c *gin.Context) {
	p, _ := GetPrincipal(c)
	users, err := h.superServ.ListUsers(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *SuperAdminHandler) CreateUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"fullName"`
		TenantID string `json:"tenantId" binding:"required"`
		Role     string `json:"role" binding:"omitempty,role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "create user", err)
		return
	}
	p, _ := GetPrincipal(c)
	user, err := h.superServ.CreateUser(c.Request.Context(), p, service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		TenantID: req.TenantID,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(c, "create user", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
