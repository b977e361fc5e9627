package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orga/internal/service"
)

// AuthHandler expone signup, login y manejo de tokens.
type AuthHandler struct {
	authServ *service.AuthService
}

func NewAuthHandler(authServ *service.AuthService) *AuthHandler {
	return &AuthHandler{authServ: authServ}
}

// Signup maneja POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"fullName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "signup", err)
		return
	}

	res, err := h.authServ.Signup(c.Request.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeServiceError(c, "signup", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "login", err)
		return
	}

	res, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	p, _ := GetPrincipal(c)
	me, err := h.authServ.CurrentUser(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, me)
}

// Refresh maneja POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "refresh", err)
		return
	}
	res, err := h.authServ.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout maneja POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "logout", err)
		return
	}
	if err := h.authServ.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeServiceError(c, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}
