package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	identityapp "github.com/procurement/backend/internal/application/identity"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
)

// AuthService is the part of identityapp.AuthService the handler uses
type AuthService interface {
	Login(ctx context.Context, req identityapp.LoginRequest, ip string) (*identityapp.LoginResult, error)
	Refresh(ctx context.Context, req identityapp.RefreshRequest) (*identityapp.LoginResult, error)
	Logout(ctx context.Context, access *auth.Claims, req identityapp.LogoutRequest) error
	Me(ctx context.Context, p identity.Principal) (*identityapp.UserResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login
// @ID           login
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginRequest true "Request body"
// @Success      200 {object} dto.Response{data=identityapp.LoginResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh handles POST /auth/refresh
// @ID           refreshToken
// @Summary      Refresh the access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RefreshRequest true "Request body"
// @Success      200 {object} dto.Response{data=identityapp.LoginResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout handles POST /auth/logout. The body is optional and may carry the
// refresh token to revoke along with the access token.
// @ID           logout
// @Summary      Log out
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LogoutRequest false "Refresh token to revoke"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req identityapp.LogoutRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out"})
}

// Me handles GET /auth/me
// @ID           getCurrentUser
// @Summary      Get the current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	user, err := h.authService.Me(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
